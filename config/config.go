// thcrap-launcher/config/config.go
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	AppID   = "thcrap-launcher"
	AppName = "Thcrap Launcher"

	// RelativeThcrapDir is the local-mode runtime directory, under the game directory.
	RelativeThcrapDir = "./thcrap"

	DefaultArchiveURL = "https://github.com/thpatch/thcrap/releases/latest/download/thcrap.zip"
)

// Config is built once at startup from the environment and command-line flags, and
// handed to every component that needs part of it.
type Config struct {
	// ThcrapDir is the runtime root, absolute (global mode) or relative to Cwd.
	ThcrapDir string
	// ArchiveCache is a thcrap.zip used instead of downloading when present.
	ArchiveCache string
	ArchiveURL   string

	// Patch skips interactive selection when set.
	Patch string
	// RunConfigurator runs the thcrap configurator and exits.
	RunConfigurator bool
	// Interactive forces the profile picker.
	Interactive bool
	Verbose     bool

	// Updater and SteamIntegration request a runtime feature toggle when non-nil.
	Updater          *bool
	SteamIntegration *bool

	// Cwd is the logical working directory that must contain the game.
	Cwd string
	// Args is the wrapper command, ending with the game executable.
	Args []string
}

// GameExe is the trailing argument of the wrapper command.
func (c Config) GameExe() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// FromEnv returns the defaults derived from the environment.
func FromEnv(getenv func(string) string) Config {
	home := getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}

	cwd := getenv("PWD")
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	return Config{
		ThcrapDir:    GlobalThcrapDir(getenv, home),
		ArchiveCache: filepath.Join(cacheDir(getenv, home), AppID, "thcrap.zip"),
		ArchiveURL:   DefaultArchiveURL,
		Cwd:          cwd,
	}
}

// GlobalThcrapDir is the shared runtime directory under the XDG data directory.
func GlobalThcrapDir(getenv func(string) string, home string) string {
	return filepath.Join(firstNonEmpty(
		getenv("XDG_DATA_DIR"),
		getenv("XDG_DATA_HOME"),
		filepath.Join(home, ".local", "share"),
	), AppID)
}

func cacheDir(getenv func(string) string, home string) string {
	return firstNonEmpty(
		getenv("XDG_CACHE_DIR"),
		getenv("XDG_CACHE_HOME"),
		filepath.Join(home, ".cache"),
	)
}

// ExpandHome replaces a leading "~" or "~/" with home.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

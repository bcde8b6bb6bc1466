// thcrap-launcher/thcrap/paths.go
package thcrap

import "path/filepath"

const (
	ExecutableName   = "thcrap.exe"
	LoaderName       = "thcrap_loader.exe"
	ProfileDirName   = "config"
	ConfigDocName    = "config.js"
	SettingsFileName = "thcrap_launcher.json"

	// ProfileExt is the suffix of every patch profile file.
	ProfileExt = ".js"
)

// Location holds every path derived from one runtime root.
type Location struct {
	Root           string
	Executable     string
	Loader         string
	ProfileDir     string
	ConfigDocument string
	SettingsFile   string
}

// Resolve derives the runtime layout from baseDir. baseDir may be absolute or
// relative to the working directory; the result keeps that form.
func Resolve(baseDir string) Location {
	root := filepath.Clean(baseDir)
	profileDir := filepath.Join(root, ProfileDirName)
	return Location{
		Root:           root,
		Executable:     filepath.Join(root, ExecutableName),
		Loader:         filepath.Join(root, LoaderName),
		ProfileDir:     profileDir,
		ConfigDocument: filepath.Join(profileDir, ConfigDocName),
		SettingsFile:   filepath.Join(root, SettingsFileName),
	}
}

// ProfileFile is the file name the loader expects for the named profile.
func ProfileFile(name string) string {
	return name + ProfileExt
}

// thcrap-launcher/thcrap/profiles.go
package thcrap

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"thcrap-launcher/config"
)

const (
	// NoPatch is the selection that runs the game without thcrap.
	NoPatch = "no_patch"
	// legacyNoPatch is how older launcher versions recorded NoPatch.
	legacyNoPatch = "no patch"

	// MaxProfileSize is the exclusive upper bound on a profile file's size.
	MaxProfileSize = 1 << 20

	profileMarker = "patches"
)

// IsNoPatch reports whether selection means "run unpatched".
func IsNoPatch(selection string) bool {
	return selection == NoPatch || selection == legacyNoPatch
}

// ListProfiles returns the names of the valid patch profiles in loc.ProfileDir, in
// directory order. A missing or unreadable directory yields no profiles.
func ListProfiles(loc Location) []string {
	entries, err := readDirUnsorted(loc.ProfileDir)
	if err != nil {
		return []string{}
	}
	names := []string{}
	for _, entry := range entries {
		if name, ok := ValidateProfile(loc.ProfileDir, entry); ok {
			names = append(names, name)
		}
	}
	return names
}

// ValidateProfile reports the profile name for entry when it is a usable profile:
// the right extension, a regular file under the size cap, and a JSON object with a
// truthy "patches" field. Any failure, including I/O errors, means not a profile.
func ValidateProfile(dir string, entry fs.DirEntry) (string, bool) {
	name := entry.Name()
	if !strings.HasSuffix(name, ProfileExt) {
		return "", false
	}
	stem := strings.TrimSuffix(name, ProfileExt)
	if stem == "" {
		return "", false
	}

	path := filepath.Join(dir, name)
	// Stat rather than entry.Info so symlinked profiles are followed.
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	if info.Size() >= MaxProfileSize {
		return "", false
	}

	data, err := readCapped(path)
	if err != nil {
		return "", false
	}
	doc, err := config.ParseDocument(name, data)
	if err != nil || !doc.Truthy(profileMarker) {
		return "", false
	}
	return stem, true
}

// readCapped reads at most MaxProfileSize bytes; a file that grew past the cap
// since it was listed is rejected.
func readCapped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxProfileSize))
	if err != nil {
		return nil, err
	}
	if len(data) >= MaxProfileSize {
		return nil, fs.ErrInvalid
	}
	return data, nil
}

func readDirUnsorted(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadDir(-1)
}

// EnsureProfileDefaults creates loc.ProfileDir on first use and seeds the runtime
// config so thcrap neither updates in the background nor updates other games.
// It reports whether the directory was created.
func EnsureProfileDefaults(loc Location) (bool, error) {
	if _, err := os.Stat(loc.ProfileDir); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if err := os.MkdirAll(loc.ProfileDir, 0755); err != nil {
		return false, err
	}

	doc, err := config.LoadDocument(loc.ConfigDocument)
	if err != nil {
		return true, err
	}
	overrides := config.NewDocument()
	if err := overrides.Set("background_updates", false); err != nil {
		return true, err
	}
	if err := overrides.Set("update_others", false); err != nil {
		return true, err
	}
	return true, config.SaveDocument(config.MergeOverride(doc, overrides), loc.ConfigDocument)
}

// thcrap-launcher/thcrap/features.go
package thcrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Feature is an optional runtime component switched off by renaming its DLL.
type Feature struct {
	Name string
	DLL  string // relative to the runtime root
}

var (
	FeatureUpdater = Feature{Name: "Thcrap Updater", DLL: filepath.Join("bin", "thcrap_update.dll")}
	FeatureSteam   = Feature{Name: "Thcrap Steam Integration", DLL: filepath.Join("bin", "steam_api.dll")}
)

// Features lists the toggles in display order.
func Features() []Feature {
	return []Feature{FeatureUpdater, FeatureSteam}
}

func (f Feature) enabledPath(loc Location) string {
	return filepath.Join(loc.Root, f.DLL)
}

func (f Feature) disabledPath(loc Location) string {
	p := f.enabledPath(loc)
	return strings.TrimSuffix(p, ".dll") + "_disabled.dll"
}

// Enabled reports whether the feature's DLL is in place.
func (f Feature) Enabled(loc Location) bool {
	return fileExists(f.enabledPath(loc))
}

// SetEnabled renames the DLL in or out of place. A feature whose DLL is in
// neither state is left alone and reported as an error.
func (f Feature) SetEnabled(loc Location, enable bool) error {
	on, off := f.enabledPath(loc), f.disabledPath(loc)
	from, to := on, off
	if enable {
		from, to = off, on
	}
	if fileExists(to) {
		return nil
	}
	if !fileExists(from) {
		return fmt.Errorf("%s: %s not found", f.Name, from)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	return nil
}

// thcrap-launcher/game/guard.go
package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const exeSuffix = ".exe"

// Checks performed by CheckTarget, in order.
const (
	CheckExtension   = "extension"
	CheckContainment = "containment"
	CheckExistence   = "existence"
)

// ValidationError reports a game path that failed one of the target checks.
type ValidationError struct {
	Check string
	Path  string
	Cwd   string
	Err   error
}

func (e *ValidationError) Error() string {
	switch e.Check {
	case CheckExtension:
		return fmt.Sprintf("%s doesn't end in %s", e.Path, exeSuffix)
	case CheckContainment:
		return fmt.Sprintf("%s is not inside the current directory, %s", e.Path, e.Cwd)
	case CheckExistence:
		return fmt.Sprintf("%s does not exist", e.Path)
	}
	return fmt.Sprintf("invalid game path %s (%s)", e.Path, e.Check)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// CheckTarget validates the game executable path before anything else happens:
// it must end in .exe (any case), lie lexically inside cwd, and exist.
func CheckTarget(path, cwd string) error {
	if !strings.HasSuffix(strings.ToLower(path), exeSuffix) {
		return &ValidationError{Check: CheckExtension, Path: path, Cwd: cwd}
	}

	target, base := anchor(path, cwd)
	if !contains(base, target) {
		return &ValidationError{Check: CheckContainment, Path: path, Cwd: cwd}
	}

	if _, err := os.Stat(target); err != nil {
		return &ValidationError{Check: CheckExistence, Path: path, Cwd: cwd, Err: err}
	}
	return nil
}

// anchor puts path and cwd in the same form. A relative path is taken relative
// to cwd when cwd is absolute; a relative cwd is made absolute when path is.
func anchor(path, cwd string) (string, string) {
	switch {
	case !filepath.IsAbs(path) && filepath.IsAbs(cwd):
		path = filepath.Join(cwd, path)
	case filepath.IsAbs(path) && !filepath.IsAbs(cwd):
		if abs, err := filepath.Abs(cwd); err == nil {
			cwd = abs
		}
	}
	return filepath.Clean(path), filepath.Clean(cwd)
}

// contains is a path-component check, so /games/th1 does not contain /games/th18.
func contains(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

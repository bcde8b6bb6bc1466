// thcrap-launcher/game/handoff.go
package game

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"thcrap-launcher/thcrap"
)

// UnpatchedLocale is forced on the game when it runs without thcrap.
const UnpatchedLocale = "ja_JP.UTF-8"

// HandoffError means the replacement process could not be started.
type HandoffError struct {
	Argv0 string
	Err   error
}

func (e *HandoffError) Error() string {
	return fmt.Sprintf("cannot launch %s: %v", e.Argv0, e.Err)
}

func (e *HandoffError) Unwrap() error { return e.Err }

// Command is the process image that replaces the launcher.
type Command struct {
	Args []string
	// Env holds variables set on top of the inherited environment.
	Env map[string]string
}

// Environ merges c.Env over base, which is in os.Environ form.
func (c Command) Environ(base []string) []string {
	if len(c.Env) == 0 {
		return base
	}
	env := make([]string, 0, len(base)+len(c.Env))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, overridden := c.Env[key]; !overridden {
			env = append(env, kv)
		}
	}
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+c.Env[k])
	}
	return env
}

// BuildCommand turns the wrapper command args (ending with the game path) into the
// command for selection. For the unpatched selection the game runs as invoked,
// under a Japanese locale. Otherwise the game path is swapped for the thcrap loader,
// the profile file and the game path relative to the runtime root, which is where
// the loader resolves it from. Relative paths are taken from cwd.
func BuildCommand(selection string, loc thcrap.Location, gameExe string, args []string, cwd string) (Command, error) {
	if len(args) == 0 {
		return Command{}, errors.New("empty command line")
	}
	prefix := args[:len(args)-1]

	if thcrap.IsNoPatch(selection) {
		return Command{
			Args: append(append([]string(nil), prefix...), gameExe),
			Env:  map[string]string{"LANG": UnpatchedLocale},
		}, nil
	}
	if selection == "" {
		return Command{}, errors.New("no profile selected")
	}

	rel, err := filepath.Rel(absFrom(cwd, loc.Root), absFrom(cwd, gameExe))
	if err != nil {
		return Command{}, fmt.Errorf("locating %s from %s: %w", gameExe, loc.Root, err)
	}
	out := append([]string(nil), prefix...)
	out = append(out, loc.Loader, thcrap.ProfileFile(selection), rel)
	return Command{Args: out}, nil
}

func absFrom(cwd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(cwd, path)
}

// Engine replaces the current process with a Command.
type Engine struct {
	logger   *zap.Logger
	lookPath func(file string) (string, error)
	exec     func(argv0 string, argv []string, envv []string) error
	environ  func() []string
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:   logger.Named("handoff"),
		lookPath: exec.LookPath,
		exec:     replaceProcess,
		environ:  os.Environ,
	}
}

// Check resolves the program of cmd through PATH without running anything.
func (e *Engine) Check(cmd Command) error {
	_, err := e.resolve(cmd)
	return err
}

func (e *Engine) resolve(cmd Command) (string, error) {
	if len(cmd.Args) == 0 {
		return "", &HandoffError{Err: errors.New("empty command line")}
	}
	argv0, err := e.lookPath(cmd.Args[0])
	if err != nil {
		return "", &HandoffError{Argv0: cmd.Args[0], Err: err}
	}
	return argv0, nil
}

// Handoff replaces the current process and only returns when that failed, with a
// *HandoffError.
func (e *Engine) Handoff(cmd Command) error {
	argv0, err := e.resolve(cmd)
	if err != nil {
		return err
	}

	e.logger.Info("handing off", zap.String("path", argv0), zap.Strings("args", cmd.Args))
	_ = e.logger.Sync()

	if err := e.exec(argv0, cmd.Args, cmd.Environ(e.environ())); err != nil {
		return &HandoffError{Argv0: argv0, Err: err}
	}
	return nil
}

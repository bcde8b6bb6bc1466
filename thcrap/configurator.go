// thcrap-launcher/thcrap/configurator.go
package thcrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// Configurator runs thcrap.exe through the same wrapper command as the game, so
// that it executes under the same compatibility layer.
type Configurator struct {
	Stdout io.Writer
	Stderr io.Writer
	logger *zap.Logger

	// run executes the prepared command. Tests replace it.
	run func(cmd *exec.Cmd) error
}

func NewConfigurator(logger *zap.Logger) *Configurator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Configurator{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		logger: logger.Named("configurator"),
		run:    (*exec.Cmd).Run,
	}
}

// ConfiguratorArgs is prefix followed by the runtime executable and its flags.
func ConfiguratorArgs(loc Location, prefix []string) []string {
	args := append([]string(nil), prefix...)
	return append(args, loc.Executable, "--skip-search-games")
}

// Run seeds the runtime defaults on first use, then blocks until the configurator
// exits. Its exit status is only logged; callers check the filesystem afterwards.
func (c *Configurator) Run(ctx context.Context, loc Location, prefix []string) error {
	created, err := EnsureProfileDefaults(loc)
	if err != nil {
		return fmt.Errorf("seeding thcrap defaults: %w", err)
	}
	if created {
		c.logger.Info("created profile directory", zap.String("path", loc.ProfileDir))
	}

	args := ConfiguratorArgs(loc, prefix)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	c.logger.Info("running thcrap configurator", zap.Strings("args", args))
	if err := c.run(cmd); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			c.logger.Warn("configurator exited with error", zap.Int("code", exitErr.ExitCode()))
			return nil
		}
		return fmt.Errorf("cannot start configurator %s: %w", args[0], err)
	}
	return nil
}

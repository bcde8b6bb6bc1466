// thcrap-launcher/game/exec_other.go

//go:build !unix

package game

import (
	"errors"
	"os"
	"os/exec"
)

// replaceProcess has no exec(2) to call here: it runs the command in the
// foreground and exits with its status.
func replaceProcess(argv0 string, argv []string, envv []string) error {
	cmd := &exec.Cmd{
		Path:   argv0,
		Args:   argv,
		Env:    envv,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	err := cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	if err != nil {
		os.Exit(1)
	}
	os.Exit(0)
	return nil
}

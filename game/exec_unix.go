// thcrap-launcher/game/exec_unix.go

//go:build unix

package game

import "golang.org/x/sys/unix"

func replaceProcess(argv0 string, argv []string, envv []string) error {
	return unix.Exec(argv0, argv, envv)
}

// thcrap-launcher/utils/lock_unix.go

//go:build unix

package utils

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileLock is an advisory, process-wide exclusive lock backed by flock(2).
type FileLock struct {
	f *os.File
}

// Lock blocks until the exclusive lock on path is held. The lock file is created
// if needed and left in place afterwards.
func Lock(path string) (*FileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	for {
		err = unix.Flock(int(f.Fd()), unix.LOCK_EX)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return &FileLock{f: f}, nil
}

// Unlock releases the lock. Safe to call on a nil lock.
func (l *FileLock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}

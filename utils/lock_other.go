// thcrap-launcher/utils/lock_other.go

//go:build !unix

package utils

// FileLock is a no-op on platforms without flock(2).
type FileLock struct{}

func Lock(path string) (*FileLock, error) {
	return &FileLock{}, nil
}

func (l *FileLock) Unlock() error {
	return nil
}

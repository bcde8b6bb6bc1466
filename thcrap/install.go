// thcrap-launcher/thcrap/install.go
package thcrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"thcrap-launcher/utils"
)

const installLockName = ".install.lock"

// InstallError is a fatal bootstrap failure. Op names the failed step.
type InstallError struct {
	Op   string
	Path string
	Err  error
}

func (e *InstallError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("thcrap install (%s) %s", e.Op, e.Path)
	}
	return fmt.Sprintf("thcrap install (%s) %s: %v", e.Op, e.Path, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// Installer makes sure the runtime is unpacked under a Location.
type Installer struct {
	URL    string
	Client *http.Client
	logger *zap.Logger

	// download fetches the archive. Tests replace it.
	download func(ctx context.Context, url string) ([]byte, error)

	group   singleflight.Group
	archive []byte
}

func NewInstaller(url string, client *http.Client, logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	inst := &Installer{URL: url, Client: client, logger: logger.Named("install")}
	inst.download = func(ctx context.Context, url string) ([]byte, error) {
		return utils.DownloadFile(ctx, inst.Client, url)
	}
	return inst
}

// EnsureInstalled creates loc.Root and, when the runtime executable is missing,
// unpacks the archive into it. archiveCache, when the file exists, is used instead
// of the network. On success loc.Executable exists.
func (i *Installer) EnsureInstalled(ctx context.Context, loc Location, archiveCache string) error {
	if err := os.MkdirAll(loc.Root, 0755); err != nil {
		return &InstallError{Op: "mkdir", Path: loc.Root, Err: err}
	}
	if fileExists(loc.Executable) {
		return nil
	}

	lock, err := utils.Lock(filepath.Join(loc.Root, installLockName))
	if err != nil {
		return &InstallError{Op: "lock", Path: loc.Root, Err: err}
	}
	defer lock.Unlock()

	// Another launcher may have finished the install while we waited.
	if fileExists(loc.Executable) {
		return nil
	}

	data, err := i.archiveBytes(ctx, archiveCache)
	if err != nil {
		return err
	}

	i.logger.Info("extracting thcrap", zap.String("root", loc.Root), zap.Int("bytes", len(data)))
	n, err := utils.Unzip(data, loc.Root)
	if err != nil {
		return &InstallError{Op: "extract", Path: loc.Root, Err: err}
	}
	i.logger.Debug("extracted files", zap.Int("count", n))

	if !fileExists(loc.Executable) {
		return &InstallError{
			Op:   "verify",
			Path: loc.Executable,
			Err:  fmt.Errorf("installation appears to have failed, please retry"),
		}
	}
	return nil
}

func (i *Installer) archiveBytes(ctx context.Context, archiveCache string) ([]byte, error) {
	if archiveCache != "" && fileExists(archiveCache) {
		i.logger.Info("using cached archive", zap.String("path", archiveCache))
		data, err := os.ReadFile(archiveCache)
		if err != nil {
			return nil, &InstallError{Op: "read cache", Path: archiveCache, Err: err}
		}
		return data, nil
	}

	v, err, _ := i.group.Do(i.URL, func() (any, error) {
		if i.archive != nil {
			return i.archive, nil
		}
		i.logger.Info("downloading thcrap", zap.String("url", i.URL))
		data, err := i.download(ctx, i.URL)
		if err != nil {
			return nil, err
		}
		i.archive = data
		return data, nil
	})
	if err != nil {
		return nil, &InstallError{Op: "download", Path: i.URL, Err: err}
	}
	return v.([]byte), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

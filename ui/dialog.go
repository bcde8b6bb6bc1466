// thcrap-launcher/ui/dialog.go
package ui

import (
	"fmt"
	"sync"

	"github.com/faiface/mainthread"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"thcrap-launcher/config"
)

var dialogMutex = &sync.Mutex{}

// ErrorReporter tells the user about a fatal error. With a display available it
// opens a native message box; otherwise only the log sees it.
type ErrorReporter struct {
	logger  *zap.Logger
	getenv  func(string) string
	message func(title, text string)
}

func NewErrorReporter(logger *zap.Logger, getenv func(string) string) *ErrorReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorReporter{
		logger:  logger.Named("ui"),
		getenv:  getenv,
		message: showErrorBox,
	}
}

// HasDisplay reports whether an X11 or Wayland session is reachable.
func (r *ErrorReporter) HasDisplay() bool {
	return r.getenv("DISPLAY") != "" || r.getenv("WAYLAND_DISPLAY") != ""
}

// Report logs err and, when possible, shows it in a dialog. It blocks until the
// dialog is dismissed.
func (r *ErrorReporter) Report(err error) {
	r.logger.Error("fatal", zap.Error(err))
	if !r.HasDisplay() {
		return
	}
	if !dialogMutex.TryLock() {
		r.logger.Warn("an error dialog is already open")
		return
	}
	defer dialogMutex.Unlock()

	title := fmt.Sprintf("Error in %s", config.AppName)
	text := fmt.Sprintf("%s encountered an error and will now exit.\nError: %v", config.AppName, err)
	r.message(title, text)
}

// showErrorBox must run on the main OS thread for GTK; callers run under
// mainthread.Run.
func showErrorBox(title, text string) {
	mainthread.Call(func() {
		dialog.Message("%s", text).Title(title).Error()
	})
}

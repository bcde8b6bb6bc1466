// thcrap-launcher/config/settings.go
package config

import (
	"fmt"

	"go.uber.org/zap"

	"thcrap-launcher/utils"
)

const (
	// NoConfig is reported by LastRun when nothing has been launched yet.
	NoConfig = "no_config"

	keyLastRun = "last_run"
	keyColor   = "color"
)

// Settings is the launcher-owned document next to the runtime.
type Settings struct {
	path   string
	logger *zap.Logger
}

func NewSettings(path string, logger *zap.Logger) *Settings {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Settings{path: path, logger: logger.Named("settings")}
}

func (s *Settings) Load() (*Document, error) {
	return LoadDocument(s.path)
}

// LastRun returns the name of the last launched selection, or NoConfig.
func (s *Settings) LastRun() (string, error) {
	doc, err := s.Load()
	if err != nil {
		return NoConfig, err
	}
	raw, ok := doc.Raw(keyLastRun)
	if !ok {
		return NoConfig, nil
	}
	var name string
	if _, err := doc.Decode(keyLastRun, &name); err != nil {
		// Non-string values are stringified rather than rejected.
		return string(raw), nil
	}
	return name, nil
}

func (s *Settings) SetLastRun(name string) error {
	return s.override(keyLastRun, name)
}

// Colors returns the stored display color overrides, keyed by color name.
func (s *Settings) Colors() (map[string]string, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	colors := map[string]string{}
	if _, err := doc.Decode(keyColor, &colors); err != nil {
		s.logger.Warn("ignoring malformed color settings", zap.Error(err))
		return map[string]string{}, nil
	}
	return colors, nil
}

func (s *Settings) SetColors(colors map[string]string) error {
	return s.override(keyColor, colors)
}

// override loads the current settings, replaces one key and saves, holding the
// settings lock for the whole cycle.
func (s *Settings) override(key string, value any) error {
	lock, err := utils.Lock(s.path + ".lock")
	if err != nil {
		return err
	}
	defer lock.Unlock()

	doc, err := s.Load()
	if err != nil {
		return err
	}
	overrides := NewDocument()
	if err := overrides.Set(key, value); err != nil {
		return err
	}
	if err := SaveDocument(MergeOverride(doc, overrides), s.path); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	s.logger.Debug("settings updated", zap.String("key", key), zap.String("path", s.path))
	return nil
}

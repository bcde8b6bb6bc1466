// thcrap-launcher/launcher/launcher.go

// Package launcher drives one launch: validate the game path, make sure thcrap is
// installed, pick a patch profile and hand the process over.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"

	"thcrap-launcher/config"
	"thcrap-launcher/game"
	"thcrap-launcher/thcrap"
)

// ErrCancelled is returned by a Selector when the user quits without choosing.
var ErrCancelled = errors.New("selection cancelled")

// ErrSelectorUnavailable is returned by a Selector that cannot be shown in the
// current environment, such as a terminal picker started without a terminal.
var ErrSelectorUnavailable = errors.New("profile picker unavailable")

// SelectionError means a profile had to be chosen interactively and could not be.
// It carries the valid choices so they can be passed with --patch instead.
type SelectionError struct {
	Profiles []string
	Err      error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("cannot choose a patch profile: %v; pass -p NAME to launch directly (available: %s)",
		e.Err, strings.Join(e.Profiles, ", "))
}

func (e *SelectionError) Unwrap() error { return e.Err }

// Choices is what a Selector offers: the unpatched sentinel followed by every
// valid profile, and the last launched name for pre-selection.
type Choices struct {
	Profiles []string
	LastRun  string
}

// Selection is a Selector's answer: either a profile to launch or a request to run
// the thcrap configurator and ask again.
type Selection struct {
	Profile   string
	Configure bool
}

type Selector interface {
	Select(ctx context.Context, choices Choices) (Selection, error)
}

type Installer interface {
	EnsureInstalled(ctx context.Context, loc thcrap.Location, archiveCache string) error
}

type Configurator interface {
	Run(ctx context.Context, loc thcrap.Location, prefix []string) error
}

// Handoff checks and runs the final command. Check must fail for anything
// Handoff would reject before replacing the process.
type Handoff interface {
	Check(cmd game.Command) error
	Handoff(cmd game.Command) error
}

// Deps are the collaborators of a Launcher. Selector may be nil, in which case
// the launch needs --patch or a usable last run.
type Deps struct {
	Installer    Installer
	Configurator Configurator
	Settings     *config.Settings
	Selector     Selector
	Handoff      Handoff
	Logger       *zap.Logger
}

type Launcher struct {
	cfg    config.Config
	loc    thcrap.Location
	deps   Deps
	logger *zap.Logger
}

func New(cfg config.Config, loc thcrap.Location, deps Deps) *Launcher {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{cfg: cfg, loc: loc, deps: deps, logger: logger.Named("launcher")}
}

// Run performs the launch. On success the process image has been replaced and Run
// never returns; a nil return means the user asked for something that ends
// without launching (configurator only, or quitting the picker).
func (l *Launcher) Run(ctx context.Context) error {
	if len(l.cfg.Args) == 0 {
		return errors.New("missing game executable argument")
	}
	gameExe := l.cfg.GameExe()
	prefix := l.cfg.Args[:len(l.cfg.Args)-1]

	if err := game.CheckTarget(gameExe, l.cfg.Cwd); err != nil {
		return err
	}

	firstRun := !dirExists(l.loc.ProfileDir)
	if err := l.deps.Installer.EnsureInstalled(ctx, l.loc, l.cfg.ArchiveCache); err != nil {
		return err
	}
	if err := l.applyFeatureToggles(); err != nil {
		return err
	}

	if l.cfg.RunConfigurator {
		return l.configure(ctx, prefix)
	}
	if firstRun {
		l.logger.Info("first run, starting the thcrap configurator")
		if err := l.configure(ctx, prefix); err != nil {
			return err
		}
	}

	selection, err := l.choose(ctx, prefix)
	if errors.Is(err, ErrCancelled) {
		l.logger.Info("no profile chosen, exiting")
		return nil
	}
	if err != nil {
		return err
	}

	cmd, err := game.BuildCommand(selection, l.loc, gameExe, l.cfg.Args, l.cfg.Cwd)
	if err != nil {
		return err
	}
	if err := l.deps.Handoff.Check(cmd); err != nil {
		return err
	}
	if err := l.deps.Settings.SetLastRun(selection); err != nil {
		return err
	}
	return l.deps.Handoff.Handoff(cmd)
}

func (l *Launcher) configure(ctx context.Context, prefix []string) error {
	if err := l.deps.Configurator.Run(ctx, l.loc, prefix); err != nil {
		return err
	}
	if len(thcrap.ListProfiles(l.loc)) == 0 {
		l.logger.Warn("no patch profiles found after running the configurator", zap.String("dir", l.loc.ProfileDir))
	}
	return nil
}

// choose resolves the selection: an explicit --patch wins, then the last run
// unless the picker was requested, then the picker.
func (l *Launcher) choose(ctx context.Context, prefix []string) (string, error) {
	profiles := thcrap.ListProfiles(l.loc)

	if l.cfg.Patch != "" {
		if thcrap.IsNoPatch(l.cfg.Patch) || slices.Contains(profiles, l.cfg.Patch) {
			return l.cfg.Patch, nil
		}
		return "", fmt.Errorf("unknown patch profile %q (available: %s)", l.cfg.Patch, available(profiles))
	}

	lastRun, err := l.deps.Settings.LastRun()
	if err != nil {
		return "", err
	}
	if !l.cfg.Interactive && (thcrap.IsNoPatch(lastRun) || slices.Contains(profiles, lastRun)) {
		l.logger.Info("launching last used profile", zap.String("profile", lastRun))
		return lastRun, nil
	}

	if l.deps.Selector == nil {
		return "", &SelectionError{Profiles: withNoPatch(profiles), Err: ErrSelectorUnavailable}
	}
	for {
		sel, err := l.deps.Selector.Select(ctx, Choices{
			Profiles: withNoPatch(profiles),
			LastRun:  lastRun,
		})
		if errors.Is(err, ErrSelectorUnavailable) {
			return "", &SelectionError{Profiles: withNoPatch(profiles), Err: err}
		}
		if err != nil {
			return "", err
		}
		if !sel.Configure {
			return sel.Profile, nil
		}
		if err := l.configure(ctx, prefix); err != nil {
			return "", err
		}
		profiles = thcrap.ListProfiles(l.loc)
	}
}

func (l *Launcher) applyFeatureToggles() error {
	toggles := []struct {
		feature thcrap.Feature
		want    *bool
	}{
		{thcrap.FeatureUpdater, l.cfg.Updater},
		{thcrap.FeatureSteam, l.cfg.SteamIntegration},
	}
	for _, t := range toggles {
		if t.want == nil {
			continue
		}
		if err := t.feature.SetEnabled(l.loc, *t.want); err != nil {
			return err
		}
		l.logger.Info("feature toggled", zap.String("feature", t.feature.Name), zap.Bool("enabled", *t.want))
	}
	return nil
}

func available(profiles []string) string {
	return strings.Join(withNoPatch(profiles), ", ")
}

func withNoPatch(profiles []string) []string {
	return append([]string{thcrap.NoPatch}, profiles...)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// thcrap-launcher/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/faiface/mainthread"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"thcrap-launcher/config"
	"thcrap-launcher/game"
	"thcrap-launcher/launcher"
	"thcrap-launcher/thcrap"
	"thcrap-launcher/ui"
	"thcrap-launcher/utils"
)

const helpEpilog = `If unset, XDG_DATA_DIR defaults to ~/.local/share

The positional arguments are supposed to come from a %command% in the Steam launch
options. Otherwise, it must be something equivalent to it: a command that would start
the game normally, under Wine. Flags are only recognised before the first positional
argument; everything after it is passed through verbatim.

Paths can be absolute or relative. Relative paths are relative to the process working
directory, usually the game directory if launched under Steam. A leading ~ is expanded.

Examples of paths for --thcrap-dir:
  thcrap OR ./thcrap       - 'thcrap' under the game directory.
  ../shared_thcrap         - 'shared_thcrap' in the parent of the game directory.
  /home/deck/global_thcrap - An absolute path
  ~/global_thcrap          - The same as above if your HOME is /home/deck`

type flags struct {
	gui              bool
	patch            string
	configurator     bool
	thcrapDir        string
	global           bool
	relative         bool
	updater          bool
	steamIntegration bool
	verbose          bool
}

// runFunc performs a launch for a fully built configuration.
type runFunc func(ctx context.Context, cfg config.Config) error

func newRootCmd(getenv func(string) string, run runFunc) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "thcrap-launcher [flags] [wrapper args...] GAME.exe",
		Short: "Launcher for Touhou games using thcrap, for Steam on Linux or Wine",
		Long: `Launcher for Touhou games using thcrap, for Steam on Linux or Wine.

In Steam, use this for the launch options, with the patch profile to play:
  thcrap-launcher -p en %command%

Without -p the last launched profile is reused. thcrap is downloaded automatically
when needed, and the thcrap configurator opens on the first run to create patch
profiles (run it again later with -c).

The profile picker (-g) is a terminal interface. Steam does not give games a
terminal, so under Steam pick profiles with -p; when a profile has to be chosen
and no terminal is available, an error dialog lists the profiles to pass to -p.`,
		Example:      "  thcrap-launcher -p en /path/to/proton waitforexitandrun /path/to/th18.exe",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := buildConfig(cmd, f, args, getenv)
			return run(cmd.Context(), cfg)
		},
	}
	cmd.SetUsageTemplate(cmd.UsageTemplate() + "\n" + helpEpilog + "\n")

	fs := cmd.Flags()
	fs.SetInterspersed(false)
	fs.BoolVarP(&f.gui, "gui", "g", false, "choose the patch profile in the terminal picker")
	fs.StringVarP(&f.patch, "patch", "p", "", "patch profile to launch, passed to thcrap as PATCH.js; use no_patch to run the game without thcrap")
	fs.BoolVarP(&f.configurator, "thcrap-configurator", "c", false, "run the thcrap configurator and exit")
	fs.StringVarP(&f.thcrapDir, "thcrap-dir", "d", "", "directory where thcrap will be located (default $XDG_DATA_DIR/"+config.AppID+")")
	fs.BoolVar(&f.global, "global", false, "use the default absolute thcrap dir (default behaviour)")
	fs.BoolVar(&f.relative, "relative", false, "use the default relative thcrap dir, "+config.RelativeThcrapDir)
	fs.BoolVar(&f.updater, "updater", true, "enable or disable the thcrap updater (--updater=false)")
	fs.BoolVar(&f.steamIntegration, "steam-integration", true, "enable or disable thcrap Steam integration (--steam-integration=false)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	cmd.MarkFlagsMutuallyExclusive("thcrap-dir", "global", "relative")

	return cmd
}

func buildConfig(cmd *cobra.Command, f flags, args []string, getenv func(string) string) config.Config {
	cfg := config.FromEnv(getenv)

	switch {
	case f.relative:
		cfg.ThcrapDir = config.RelativeThcrapDir
	case f.thcrapDir != "":
		home := getenv("HOME")
		if home == "" {
			home, _ = os.UserHomeDir()
		}
		cfg.ThcrapDir = config.ExpandHome(f.thcrapDir, home)
	}

	cfg.Patch = f.patch
	cfg.RunConfigurator = f.configurator
	cfg.Interactive = f.gui
	cfg.Verbose = f.verbose
	cfg.Args = append([]string(nil), args...)

	if cmd.Flags().Changed("updater") {
		v := f.updater
		cfg.Updater = &v
	}
	if cmd.Flags().Changed("steam-integration") {
		v := f.steamIntegration
		cfg.SteamIntegration = &v
	}
	return cfg
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// launch wires the real components together and runs one launch.
func launch(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	loc := thcrap.Resolve(cfg.ThcrapDir)
	logger.Debug("resolved thcrap location",
		zap.String("root", loc.Root),
		zap.String("cwd", cfg.Cwd),
		zap.Strings("args", cfg.Args))

	settings := config.NewSettings(loc.SettingsFile, logger)
	l := launcher.New(cfg, loc, launcher.Deps{
		Installer:    thcrap.NewInstaller(cfg.ArchiveURL, utils.DefaultClient(), logger),
		Configurator: thcrap.NewConfigurator(logger),
		Settings:     settings,
		Selector:     ui.NewPicker(loc, settings, logger),
		Handoff:      game.NewEngine(logger),
		Logger:       logger,
	})

	if err := l.Run(ctx); err != nil {
		if needsDialog(cfg, err) {
			ui.NewErrorReporter(logger, os.Getenv).Report(err)
		}
		return err
	}
	return nil
}

// needsDialog reports whether err is shown in a native dialog as well as logged.
// Selection failures always are, since a launch from Steam has no visible stderr.
func needsDialog(cfg config.Config, err error) bool {
	var selErr *launcher.SelectionError
	return cfg.Interactive || errors.As(err, &selErr)
}

func runApp() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Getenv, launch).ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func main() {
	code := 0
	mainthread.Run(func() {
		code = runApp()
	})
	os.Exit(code)
}

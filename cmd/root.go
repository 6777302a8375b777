// Package cmd implements the CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/zorak1103/bootguard/internal/bootstrap"
	"github.com/zorak1103/bootguard/internal/config"
	"github.com/zorak1103/bootguard/internal/logging"
	"github.com/zorak1103/bootguard/internal/version"
)

// Exit codes returned by the launcher.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
)

var (
	cfgFile       string
	debugMode     bool
	cfg           *config.Config
	errConfigLoad error

	// exitCode is the status Execute terminates with after a successful run.
	exitCode int

	// runApplication is replaced in tests so the root command does not start a GUI.
	runApplication = func(opts bootstrap.Options) int {
		return bootstrap.New(opts).Run()
	}
)

var rootCmd = &cobra.Command{
	Use:   "bootguard [flags] [args...]",
	Short: "Crash-safe launcher for the Cura desktop application",
	Long: `Bootguard prepares the process and starts the desktop application.

Before any native or GUI code runs it:
  - Adjusts library and module search paths for packaged builds
  - Redirects stdout and stderr to per-user log files
  - Initializes crash telemetry (Sentry) when a DSN is configured
  - Installs a goroutine dump hook and the crash interceptor

Crashes at any point of startup or runtime are shown in a crash dialog,
written as Markdown crash reports and optionally sent via Shoutrrr.
Arguments that bootguard does not recognize are passed to the application.`,
	Version: version.GetFullVersion(),
	Args:    cobra.ArbitraryArgs,
	FParseErrWhitelist: cobra.FParseErrWhitelist{
		UnknownFlags: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		skipConfig := cmd.Name() == "init" || cmd.Name() == "help" || cmd.Name() == "version"
		if skipConfig {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			errConfigLoad = err
			return fmt.Errorf("%w: %w", config.Err, err)
		}

		if debugMode {
			logging.Base().Debug().Str("event", "config.loaded").Str("path", cfg.ConfigFilePath).Msg("configuration loaded")
		}
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		exitCode = runApplication(launchOptions(os.Args))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	logging.Configure(logging.Config{
		Output:  zerolog.ConsoleWriter{Out: os.Stderr},
		Version: version.GetVersion(),
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeFor(err))
	}
	os.Exit(exitCode)
}

// ExitCodeFor maps a command error to the process exit status.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.Err):
		return ExitConfigError
	default:
		return ExitFailure
	}
}

// launchOptions builds the bootstrap options from the raw process arguments.
// Everything after argv[0] is handed to the application unchanged, including
// flags bootguard consumed itself.
func launchOptions(argv []string) bootstrap.Options {
	opts := bootstrap.Options{
		Config:  cfg,
		Debug:   debugMode,
		Version: version.GetVersion(),
	}
	if len(argv) > 0 {
		opts.EntryPoint = argv[0]
		opts.Args = append([]string(nil), argv[1:]...)
	}
	if exe, err := os.Executable(); err == nil {
		opts.Executable = exe
	} else {
		opts.Executable = opts.EntryPoint
	}
	return opts
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "debug mode: keep console output and log at debug level")
}

// GetConfig returns the loaded configuration or nil if not loaded.
// Must be called after rootCmd.PersistentPreRunE has executed.
func GetConfig() *config.Config {
	return cfg
}

// GetConfigLoadError returns any error encountered during config loading.
// Returns nil if configuration loaded successfully or was not attempted.
func GetConfigLoadError() error {
	return errConfigLoad
}

// IsDebug returns whether debug mode is enabled via the --debug flag.
func IsDebug() bool {
	return debugMode
}

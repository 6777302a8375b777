package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zorak1103/bootguard/internal/config"
	"github.com/zorak1103/bootguard/internal/environ"
	"github.com/zorak1103/bootguard/internal/redirect"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the environment adjustments for this platform",
	Long: `Env computes the environment plan bootguard applies before the
application starts and prints it without changing anything.

The output lists every search-path edit in order, the resulting module
search path and where standard streams would be redirected.`,
	Example: `  # Show the plan for this machine
  bootguard env

  # Show the plan a packaged build would apply
  BOOTGUARD_APP_PACKAGED=true bootguard env`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded\n\nTo get started, run: bootguard init")
		}
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to resolve executable: %w", err)
		}
		return printEnvPlan(cmd.OutOrStdout(), cfg, environ.Current(), exe, dryRunEnv{environ.Process()})
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(envCmd)
}

// dryRunEnv reads from the wrapped environment and discards writes.
type dryRunEnv struct {
	environ.Env
}

func (dryRunEnv) Setenv(string, string) error { return nil }
func (dryRunEnv) Unsetenv(string) error       { return nil }

func printEnvPlan(w io.Writer, cfg *config.Config, platform environ.Platform, exe string, env environ.Env) error {
	packaged := cfg.IsPackaged()
	exeDir := filepath.Dir(exe)

	c := environ.NewConfigurator(platform, packaged, exeDir, cfg.Env.ModulePathVar)
	c.Env = env
	plan := c.Plan()

	modules, err := environ.Apply(plan, platform, env, cfg.Env.ModulePaths)
	if err != nil {
		return fmt.Errorf("failed to evaluate environment plan: %w", err)
	}

	fmt.Fprintf(w, "Platform: %s (packaged: %v)\n", platform, packaged)
	fmt.Fprintf(w, "Executable directory: %s\n", exeDir)
	fmt.Fprintln(w)

	if len(plan) == 0 {
		fmt.Fprintln(w, "No environment changes.")
	} else {
		fmt.Fprintln(w, "Planned edits:")
		for i, e := range plan {
			fmt.Fprintf(w, "   %2d. %s\n", i+1, e)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Module search path:")
	for _, m := range modules {
		fmt.Fprintf(w, "   %s\n", m)
	}
	fmt.Fprintln(w)

	binding := redirect.Decide(redirect.Options{
		Debug:      IsDebug(),
		Packaged:   packaged,
		EntryPoint: exe,
		AppName:    cfg.App.Name,
		Platform:   platform,
		Env:        env,
		HomeDir:    os.UserHomeDir,
	})
	if binding.Redirected() {
		fmt.Fprintf(w, "Streams: redirected to %s\n", binding.Dir)
	} else {
		fmt.Fprintf(w, "Streams: inherited (%s)\n", binding.Reason())
	}
	return nil
}

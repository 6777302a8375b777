package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zorak1103/bootguard/internal/config"
	"github.com/zorak1103/bootguard/internal/telemetry"
	"github.com/zorak1103/bootguard/internal/version"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the effective configuration",
	Long: `Display the effective configuration that bootguard will use at runtime.

This shows the merged configuration from:
  1. Default values
  2. Configuration file (config.yaml)
  3. Environment variables (highest priority)

Sensitive values like the Sentry DSN and the Shoutrrr URL are masked.`,
	Example: `  # Show current configuration
  bootguard config

  # Show with custom config file
  bootguard config --config /etc/bootguard/config.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded\n\nTo get started, run: bootguard init")
		}
		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(configCmd)
}

func printConfig(w io.Writer, cfg *config.Config) {
	source := cfg.ConfigFilePath
	if source == "" {
		source = "(defaults and environment)"
	}

	fmt.Fprintln(w, "=== Bootguard Effective Configuration ===")
	fmt.Fprintf(w, "Source: %s\n", source)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Application:")
	fmt.Fprintf(w, "   Name:           %s\n", cfg.App.Name)
	fmt.Fprintf(w, "   ID:             %s\n", cfg.App.ID)
	fmt.Fprintf(w, "   Title:          %s\n", cfg.App.Title)
	fmt.Fprintf(w, "   Packaged:       %s (resolved: %v)\n", cfg.App.Packaged, cfg.IsPackaged())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "   Module Var:     %s\n", cfg.Env.ModulePathVar)
	fmt.Fprintf(w, "   Module Paths:   %s\n", strings.Join(cfg.Env.ModulePaths, ", "))
	fmt.Fprintf(w, "   GL Library:     %s\n", cfg.Env.GLLibrary)
	fmt.Fprintf(w, "   Mesh Library:   %s\n", cfg.Env.MeshLibrary)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Telemetry:")
	fmt.Fprintf(w, "   Enabled:        %v\n", cfg.Telemetry.Enabled)
	fmt.Fprintf(w, "   DSN:            %s\n", maskDSN(cfg.Telemetry.DSN))
	fmt.Fprintf(w, "   Server Name:    %s\n", cfg.Telemetry.ServerName)
	fmt.Fprintf(w, "   Environment:    %s\n", telemetry.Environment(version.GetVersion()))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Notification:")
	fmt.Fprintf(w, "   Enabled:        %v\n", cfg.Notification.Enabled)
	fmt.Fprintf(w, "   Shoutrrr URL:   %s\n", maskShoutrrrURL(cfg.Notification.ShoutrrURL))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Crash Handling:")
	fmt.Fprintf(w, "   Flush Timeout:  %s\n", cfg.Crash.FlushTimeout)
	fmt.Fprintf(w, "   Log Level:      %s\n", cfg.Log.Level)
}

// maskDSN keeps the scheme and host of a Sentry DSN and hides the key.
func maskDSN(dsn string) string {
	if dsn == "" {
		return "Not set"
	}
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return "***"
	}
	_, host, ok := strings.Cut(rest, "@")
	if !ok {
		return scheme + "://***"
	}
	if i := strings.Index(host, "/"); i >= 0 {
		host = host[:i]
	}
	return fmt.Sprintf("%s://***@%s/***", scheme, host)
}

// maskShoutrrrURL masks sensitive parts of Shoutrrr URL
func maskShoutrrrURL(url string) string {
	if url == "" {
		return "Not configured"
	}

	// Extract service type (e.g., discord://, slack://, smtp://)
	parts := strings.SplitN(url, "://", 2)
	if len(parts) != 2 {
		return "Configured (invalid format)"
	}

	return fmt.Sprintf("Configured (%s://***)", parts[0])
}

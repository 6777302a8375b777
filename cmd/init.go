package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zorak1103/bootguard/internal/templates"
)

var (
	force bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create bootguard configuration files",
	Long: `Init creates the configuration files bootguard reads at startup.

This command will create:
  - config.yaml (sample configuration file)
  - .env (environment variable template for the Sentry DSN and Shoutrrr URL)

Existing files are kept unless --force is given.`,
	Example: `  # Initialize in current directory
  bootguard init

  # Force overwrite existing files
  bootguard init --force`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeTemplates(cmd.OutOrStdout(), ".", force)
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration files")
}

func writeTemplates(w io.Writer, dir string, overwrite bool) error {
	fmt.Fprintln(w, "Initializing bootguard...")

	files := []struct {
		name    string
		content []byte
	}{
		{"config.yaml", templates.ConfigYAML},
		{".env", templates.EnvFile},
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil && !overwrite {
			fmt.Fprintf(w, "Skipping %s (already exists, use --force to overwrite)\n", f.name)
			continue
		}

		if err := os.WriteFile(path, f.content, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}

		fmt.Fprintf(w, "Created %s\n", f.name)
	}

	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "   1. Edit config.yaml to set the application identity")
	fmt.Fprintln(w, "   2. Edit .env to add the Sentry DSN and notification URL")
	fmt.Fprintln(w, "   3. Run 'bootguard env' to review the environment plan")
	return nil
}

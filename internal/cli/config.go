package cli

import (
	"fmt"

	"github.com/mindmorass/infinity-clipboard/internal/app"
	"github.com/mindmorass/infinity-clipboard/internal/errors"

	"github.com/spf13/cobra"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change infclip configuration",
	Long: `Show or change the configuration file. Every key can also be set with an
INFCLIP_<KEY> environment variable, e.g. INFCLIP_BACKEND_TYPE=sqlite.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		format := configFormat
		if format != string(FormatJSON) {
			format = string(FormatYAML)
		}
		output := NewOutputWriter(format)
		output.SetWriter(cmd.OutOrStdout())
		return output.Write(redacted(cfg))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Example: `  # Keep history in SQLite
  infclip config set backend_type sqlite

  # Poll the clipboard every second
  infclip config set capture_interval 1s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.SetValue(configPath, args[0], args[1]); err != nil {
			return errors.NewWithSuggestion(errors.ExitCodeValidation, err.Error(),
				"Run 'infclip config show' to see the keys and their current values.")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = app.DefaultConfigPath()
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// redacted hides the Dropbox app secret
func redacted(cfg *app.Config) app.Config {
	c := *cfg
	if c.DropboxAppSecret != "" {
		c.DropboxAppSecret = "(set)"
	}
	return c
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format (yaml, json)")
}

package cli

import (
	stderrors "errors"
	"fmt"

	"github.com/mindmorass/infinity-clipboard/internal/app"
	"github.com/mindmorass/infinity-clipboard/internal/errors"
	"github.com/mindmorass/infinity-clipboard/internal/host"
	"github.com/mindmorass/infinity-clipboard/internal/store"

	"github.com/spf13/cobra"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the history as JSON",
	Long: `Write the history to clipboard-data-YYYY-MM-DD.json in the download
directory and print the path.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if exportDir != "" {
			cfg.DownloadDir = exportDir
		}

		ctx, cancel := GetContext()
		defer cancel()

		return withAppConfig(ctx, cfg, func(a *app.App) error {
			path, err := a.GetStore().ExportData(ctx)
			if err != nil {
				return errors.WrapWithCode(err, errors.ExitCodeFileOperation, errors.ErrMsgExportFailed)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Replace the history with an exported file",
	Long: `Replace the whole history with the entries in a JSON file written by
'infclip export'. A file that is not a JSON array leaves the history untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed, err := ConfirmDestructive(cmd, "replace your clipboard history with "+args[0])
		if err != nil {
			return err
		}
		if !confirmed {
			return errors.CancelledError("import")
		}

		ctx, cancel := GetContext()
		defer cancel()

		opts := []app.Option{
			app.WithFilePicker(host.PathPicker{Path: args[0]}),
			app.WithAlerter(host.NewStderrAlerter(cmd.ErrOrStderr())),
		}

		return withApp(ctx, func(a *app.App) error {
			err := a.GetStore().ImportData(ctx)
			switch {
			case err == nil:
			case stderrors.Is(err, store.ErrInvalidImport):
				return errors.NewWithSuggestion(errors.ExitCodeValidation,
					"The history was not changed",
					"Import files must be a JSON array as written by 'infclip export'.")
			default:
				return errors.NewWithError(errors.ExitCodeFileOperation, "Failed to import history", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries\n", a.GetStore().Len())
			return nil
		}, opts...)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Directory to export into (default: download_dir from config)")
}

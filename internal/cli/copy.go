package cli

import (
	"fmt"

	"github.com/mindmorass/infinity-clipboard/internal/app"
	"github.com/mindmorass/infinity-clipboard/internal/clipboard"
	"github.com/mindmorass/infinity-clipboard/internal/errors"
	"github.com/mindmorass/infinity-clipboard/internal/host"

	"github.com/spf13/cobra"
)

var downloadDir string

var copyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Copy an entry back to the clipboard",
	Long: `Copy an entry back to the system clipboard. Text falls back to an OSC 52
terminal escape when no clipboard helper is available; images are copied as PNG.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := GetContext()
		defer cancel()

		return withApp(ctx, func(a *app.App) error {
			entry, ok := a.GetStore().Get(id)
			if !ok {
				return errors.EntryNotFoundError(id)
			}

			if err := a.GetCaptureEngine().CopyEntry(ctx, entry); err != nil {
				if ctxErr := contextError(ctx, "copy"); ctxErr != nil {
					return ctxErr
				}
				return errors.ClipboardError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Copied #%d to the clipboard\n", id)
			return nil
		})
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Save an image entry as a PNG file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := GetContext()
		defer cancel()

		return withAppConfig(ctx, cfg, func(a *app.App) error {
			entry, ok := a.GetStore().Get(id)
			if !ok {
				return errors.EntryNotFoundError(id)
			}
			if entry.Type != clipboard.EntryTypeImage {
				return errors.ValidationError(fmt.Sprintf("Entry %d is %s, not an image", id, entry.Type))
			}

			copier := a.GetCopier()
			if downloadDir != "" {
				c := *copier
				c.Downloader = host.NewDirDownloader(downloadDir)
				copier = &c
			}

			path, err := copier.DownloadImage(ctx, entry.Content)
			if err != nil {
				if ctxErr := contextError(ctx, "download"); ctxErr != nil {
					return ctxErr
				}
				return errors.WrapWithCode(err, errors.ExitCodeFileOperation, "Failed to save image")
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadDir, "dir", "", "Directory to save into (default: download_dir from config)")
}

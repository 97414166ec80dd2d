package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mindmorass/infinity-clipboard/internal/backend"
	"github.com/mindmorass/infinity-clipboard/internal/errors"

	"github.com/spf13/cobra"
)

var dropboxCmd = &cobra.Command{
	Use:   "dropbox",
	Short: "Manage the Dropbox backend's authorization",
}

var dropboxLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize access to your Dropbox",
	Long: `Print the Dropbox authorization URL, read the code Dropbox shows after
you approve, and store the resulting tokens in the system keychain (macOS)
or ~/.infinity-clipboard/secrets.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := dropboxBackend()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Open this URL, approve access, and paste the code shown:")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  "+b.GetAuthURL(uuid.NewString()))
		fmt.Fprintln(out)

		code, err := readLine(cmd, "Code: ")
		if err != nil {
			return err
		}
		if code == "" {
			return errors.CancelledError("dropbox login")
		}

		ctx, cancel := GetContext()
		defer cancel()

		if err := b.ExchangeCode(ctx, code); err != nil {
			return errors.NewWithError(errors.ExitCodeConfig, "Dropbox authorization failed", err)
		}

		fmt.Fprintln(out, "Dropbox authorized. Set backend_type to dropbox to use it:")
		fmt.Fprintln(out, "  infclip config set backend_type dropbox")
		return nil
	},
}

var dropboxLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored Dropbox tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := dropboxBackend()
		if err != nil {
			return err
		}
		if err := b.ClearTokens(); err != nil {
			return errors.NewWithError(errors.ExitCodeConfig, "Failed to remove Dropbox tokens", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Dropbox tokens removed")
		return nil
	},
}

func dropboxBackend() (*backend.DropboxBackend, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DropboxAppKey == "" {
		return nil, errors.NewWithSuggestion(errors.ExitCodeConfig,
			"Dropbox app key not configured",
			"Create an app at https://www.dropbox.com/developers/apps, then run:\n"+
				"  - infclip config set dropbox_app_key <key>\n"+
				"  - infclip config set dropbox_app_secret <secret>")
	}
	return backend.NewDropboxBackend(cfg.DropboxAppKey, cfg.DropboxAppSecret), nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindmorass/infinity-clipboard/internal/app"
	"github.com/mindmorass/infinity-clipboard/internal/clipboard"
	"github.com/mindmorass/infinity-clipboard/internal/logger"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Record clipboard changes until interrupted",
	Long: `Poll the system clipboard and record every new copy, printing one line
per capture. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(a *app.App) error {
			out := cmd.OutOrStdout()
			a.GetCaptureEngine().OnCapture(func(e clipboard.Entry) {
				fmt.Fprintf(out, "[%s] #%d %-6s %s\n",
					e.Timestamp.Local().Format(time.TimeOnly), e.ID, e.Type, clipboard.Preview(e, previewWidth))
			})

			fmt.Fprintf(out, "Watching the clipboard (%s backend at %s). Press Ctrl-C to stop.\n",
				a.GetBackendType(), a.GetLocation())
			return a.Watch(ctx)
		})
	},
}

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Run the menu bar app",
	Long: `Run in the menu bar / system tray: capture clipboard changes and show
recent entries for one-click copying.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("log-level") && os.Getenv("INFCLIP_LOG_LEVEL") == "" {
			logger.SetLevel(cfg.LogLevel)
		}

		ctx, cancel := GetContext()
		defer cancel()

		return withAppConfig(ctx, cfg, func(a *app.App) error {
			return a.Run()
		})
	},
}

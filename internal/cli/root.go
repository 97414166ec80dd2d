package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/mindmorass/infinity-clipboard/internal/app"
	"github.com/mindmorass/infinity-clipboard/internal/errors"
	"github.com/mindmorass/infinity-clipboard/internal/logger"
	"github.com/mindmorass/infinity-clipboard/internal/update"

	"github.com/spf13/cobra"
)

const (
	unknownValue = "unknown"
)

var (
	Version   string
	BuildTime string
	GitCommit string
)

var defaultTimeout = 30 * time.Second
var globalTimeout time.Duration
var assumeYesFlag bool
var logLevel string
var configPath string
var backendFlag string

var rootCmd = &cobra.Command{
	Use:   "infclip",
	Short: "Infinity Clipboard",
	Long: `Clipboard history manager. Records pasted text, code and images,
keeps them newest first across restarts, and copies them back on demand.
History lives in a pluggable backend (local files, SQLite, S3, Dropbox).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if globalTimeout <= 0 {
			globalTimeout = defaultTimeout
		}
		// Set log level: explicit flag takes precedence over env var
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if envLevel := os.Getenv("INFCLIP_LOG_LEVEL"); envLevel != "" {
				level = envLevel
			}
		}
		logger.SetLevel(level)
		return nil
	},
}

var versionCheckFlag bool

// updateAPIURL is the GitHub API base used by version --check
var updateAPIURL = update.DefaultAPIURL

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		bt := BuildTime
		if bt == "" {
			bt = unknownValue
		}
		gc := GitCommit
		if gc == "" {
			gc = unknownValue
		}

		fmt.Fprintf(out, "infclip version %s\n", currentVersion())
		fmt.Fprintf(out, "Built: %s\n", bt)
		fmt.Fprintf(out, "Git commit: %s\n", gc)

		if !versionCheckFlag {
			return nil
		}

		ctx, cancel := GetContext()
		defer cancel()
		return checkForUpdate(ctx, out)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitCode := errors.HandleReturn(err)
		os.Exit(int(exitCode))
	}
}

func GetContext() (context.Context, context.CancelFunc) {
	timeout := globalTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// IsAssumeYes returns true if we should skip confirmation prompts
func IsAssumeYes() bool {
	return assumeYesFlag
}

func currentVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

func checkForUpdate(ctx context.Context, out io.Writer) error {
	checker := update.NewChecker(currentVersion())
	checker.SetAPIURL(updateAPIURL)

	info, err := checker.Check(ctx)
	if err != nil {
		if ctxErr := contextError(ctx, "update check"); ctxErr != nil {
			return ctxErr
		}
		return errors.NewWithError(errors.ExitCodeGeneral, "Update check failed", err)
	}

	if !info.Available {
		fmt.Fprintln(out, "You are running the latest version.")
		return nil
	}

	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(out, "Update available: %s\n", info.LatestVersion)
	if info.ReleaseURL != "" {
		fmt.Fprintf(out, "  %s\n", info.ReleaseURL)
	}
	return nil
}

// loadConfig reads the config file and applies --backend
func loadConfig() (*app.Config, error) {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, errors.ConfigError("Failed to load configuration", err)
	}
	if backendFlag != "" {
		cfg.BackendType = backendFlag
		if err := cfg.Validate(); err != nil {
			return nil, errors.NewWithSuggestion(errors.ExitCodeValidation, err.Error(),
				"Valid backends: local, sqlite, s3, dropbox, memory.")
		}
	}
	return cfg, nil
}

// openApp opens the history described by cfg; replaced in tests
var openApp = func(ctx context.Context, cfg *app.Config, opts ...app.Option) (*app.App, error) {
	return app.New(ctx, cfg, currentVersion(), opts...)
}

// withApp loads the config, opens the history and runs fn against it
func withApp(ctx context.Context, fn func(a *app.App) error, opts ...app.Option) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return withAppConfig(ctx, cfg, fn, opts...)
}

func withAppConfig(ctx context.Context, cfg *app.Config, fn func(a *app.App) error, opts ...app.Option) error {
	a, err := openApp(ctx, cfg, opts...)
	if err != nil {
		if ctxErr := contextError(ctx, "opening history"); ctxErr != nil {
			return ctxErr
		}
		return errors.StorageError(err)
	}
	defer a.Close()

	return fn(a)
}

// contextError maps an expired or cancelled context to a CLI error
func contextError(ctx context.Context, operation string) error {
	switch {
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.TimeoutError(operation)
	case stderrors.Is(ctx.Err(), context.Canceled):
		return errors.CancelledError(operation)
	}
	return nil
}

// parseID parses an entry id argument
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, errors.NewWithSuggestion(errors.ExitCodeValidation,
			fmt.Sprintf("Invalid entry id %q", s),
			"Ids are positive integers; use 'infclip list' to see them.")
	}
	return id, nil
}

func init() {
	RegisterCommands(rootCmd)

	rootCmd.PersistentFlags().DurationVar(&globalTimeout, "timeout", defaultTimeout, "Timeout for backend and network operations (e.g., 30s, 1m)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.infinity-clipboard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Override the configured backend (local, sqlite, s3, dropbox, memory)")

	versionCmd.Flags().BoolVar(&versionCheckFlag, "check", false, "Check GitHub for a newer release")
}

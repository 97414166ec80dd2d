package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mindmorass/infinity-clipboard/internal/backend"
	"github.com/mindmorass/infinity-clipboard/internal/capture"
	"github.com/mindmorass/infinity-clipboard/internal/clipboard"
	"github.com/mindmorass/infinity-clipboard/internal/host"
	"github.com/mindmorass/infinity-clipboard/internal/logger"
	"github.com/mindmorass/infinity-clipboard/internal/store"
	"github.com/mindmorass/infinity-clipboard/internal/ui"
	"github.com/mindmorass/infinity-clipboard/internal/update"
)

// SystemClipboard is everything the app needs from the desktop clipboard
type SystemClipboard interface {
	clipboard.Reader
	clipboard.TextWriter
	clipboard.ImageWriter
}

// Option overrides one of the collaborators New would otherwise build
type Option func(*options)

type options struct {
	backend   backend.Backend
	clipboard SystemClipboard
	picker    host.FilePicker
	alerter   host.Alerter
}

// WithBackend uses b instead of the configured backend
func WithBackend(b backend.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithClipboard replaces the desktop clipboard
func WithClipboard(c SystemClipboard) Option {
	return func(o *options) { o.clipboard = c }
}

// WithFilePicker sets how imports choose their file
func WithFilePicker(p host.FilePicker) Option {
	return func(o *options) { o.picker = p }
}

// WithAlerter sets how import failures reach the user
func WithAlerter(a host.Alerter) Option {
	return func(o *options) { o.alerter = a }
}

// App is the main application
type App struct {
	config        *Config
	backend       backend.Backend
	store         *store.Store
	clipboard     SystemClipboard
	copier        *clipboard.Copier
	engine        *capture.Engine
	updateChecker *update.Checker
	version       string

	mu       sync.Mutex
	menubar  *ui.Menubar
	quitOnce sync.Once
	quitChan chan struct{}
}

// New creates a new application instance: it opens the configured backend,
// loads the history and prepares the capture engine without starting it.
func New(ctx context.Context, config *Config, version string, opts ...Option) (*App, error) {
	if config == nil {
		config = DefaultConfig()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	b := o.backend
	if b == nil {
		var err error
		b, err = backend.New(config.BackendConfig())
		if err != nil {
			return nil, err
		}
	}

	if err := b.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", b.Type(), err)
	}

	app := &App{
		config:        config,
		backend:       b,
		updateChecker: update.NewChecker(version),
		version:       version,
		quitChan:      make(chan struct{}),
	}

	system := o.clipboard
	if system == nil {
		system = clipboard.NewSystem()
	}
	app.clipboard = system

	picker := o.picker
	if picker == nil {
		picker = host.NativePicker{}
	}

	alerter := o.alerter
	if alerter == nil {
		alerter = host.LogAlerter{Notify: app.notify}
	}

	downloader := host.NewDirDownloader(config.DownloadDir)

	app.store = store.New(b,
		store.WithDownloader(downloader),
		store.WithFilePicker(picker),
		store.WithAlerter(alerter),
	)
	app.store.Load(ctx)

	app.copier = &clipboard.Copier{
		Text:       system,
		Fallback:   clipboard.NewTerminalWriter(os.Stderr),
		Image:      system,
		Fetcher:    clipboard.NewFetcher(),
		Downloader: downloader,
	}

	monitor := clipboard.NewMonitor(system, config.CaptureInterval)
	app.engine = capture.NewEngine(app.store, monitor, app.copier)

	logger.Debug().
		Str("backend", string(b.Type())).
		Str("location", b.GetLocation()).
		Int("entries", app.store.Len()).
		Msg("application initialized")

	return app, nil
}

// Run starts capturing and shows the tray menu. It blocks until Quit.
func (a *App) Run() error {
	if err := a.engine.Start(); err != nil {
		logger.Warn().Err(err).Msg("failed to start capture engine")
	}

	menubar := ui.NewMenubar(a, a.config.TrayItems, a.config.CheckUpdates)
	a.mu.Lock()
	a.menubar = menubar
	a.mu.Unlock()

	menubar.Run()

	return nil
}

// Watch captures clipboard changes until ctx is done or Quit is called
func (a *App) Watch(ctx context.Context) error {
	if err := a.engine.Start(); err != nil {
		return err
	}
	defer a.engine.Stop()

	select {
	case <-ctx.Done():
	case <-a.quitChan:
	}
	return nil
}

// Quit stops the application
func (a *App) Quit() {
	a.quitOnce.Do(func() {
		a.engine.Stop()
		if m := a.getMenubar(); m != nil {
			m.Quit()
		}
		close(a.quitChan)
	})
}

// Close releases the backend
func (a *App) Close() error {
	return a.backend.Close()
}

func (a *App) notify(message string) {
	if m := a.getMenubar(); m != nil {
		m.ShowNotice(message)
	}
}

func (a *App) getMenubar() *ui.Menubar {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.menubar
}

// GetStore returns the clipboard history
func (a *App) GetStore() *store.Store {
	return a.store
}

// GetCaptureEngine returns the capture engine
func (a *App) GetCaptureEngine() *capture.Engine {
	return a.engine
}

// GetClipboard returns the desktop clipboard
func (a *App) GetClipboard() SystemClipboard {
	return a.clipboard
}

// GetCopier returns the clipboard writer used for copies and downloads
func (a *App) GetCopier() *clipboard.Copier {
	return a.copier
}

// GetBackend returns the storage backend
func (a *App) GetBackend() backend.Backend {
	return a.backend
}

// GetConfig returns the active configuration
func (a *App) GetConfig() *Config {
	return a.config
}

// GetLocation returns where the history is stored
func (a *App) GetLocation() string {
	return a.backend.GetLocation()
}

// GetVersion returns the application version
func (a *App) GetVersion() string {
	return a.version
}

// GetUpdateChecker returns the update checker
func (a *App) GetUpdateChecker() *update.Checker {
	return a.updateChecker
}

// GetBackendType returns the current backend type
func (a *App) GetBackendType() string {
	return string(a.backend.Type())
}

package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"fyne.io/systray"
	"github.com/mindmorass/infinity-clipboard/internal/capture"
	"github.com/mindmorass/infinity-clipboard/internal/host"
	"github.com/mindmorass/infinity-clipboard/internal/logger"
	"github.com/mindmorass/infinity-clipboard/internal/store"
	"github.com/mindmorass/infinity-clipboard/internal/update"
)

// actionTimeout bounds one menu action (copy, export, import, clear)
const actionTimeout = 30 * time.Second

// labelWidth is the longest entry preview shown in the menu
const labelWidth = 48

// App interface for the main application
type App interface {
	GetStore() *store.Store
	GetCaptureEngine() *capture.Engine
	GetLocation() string
	GetVersion() string
	GetUpdateChecker() *update.Checker
	Quit()
}

// Menubar manages the system tray
type Menubar struct {
	app          App
	maxEntries   int
	checkUpdates bool

	mStatus      *systray.MenuItem
	mLastCapture *systray.MenuItem
	mNotice      *systray.MenuItem
	mEmpty       *systray.MenuItem
	mEntries     []*systray.MenuItem
	mPause       *systray.MenuItem
	mResume      *systray.MenuItem
	mUpdate      *systray.MenuItem
	mCheckUpdate *systray.MenuItem
	mVersion     *systray.MenuItem

	mu         sync.Mutex
	entryIDs   []int
	updateInfo *update.UpdateInfo
	ready      bool

	quitChan chan struct{}
}

// createClipboardIcon generates a clipboard with an infinity loop for the menubar
func createClipboardIcon() []byte {
	const size = 22
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	// Black on transparent for template icon
	black := color.RGBA{0, 0, 0, 255}

	// Clipboard body
	for x := 3; x < 19; x++ {
		for y := 5; y < 20; y++ {
			if x == 3 || x == 18 || y == 5 || y == 19 {
				img.Set(x, y, black)
			}
		}
	}

	// Clip
	for x := 8; x < 14; x++ {
		img.Set(x, 3, black)
		img.Set(x, 4, black)
		img.Set(x, 5, black)
	}
	img.Set(7, 4, black)
	img.Set(7, 5, black)
	img.Set(14, 4, black)
	img.Set(14, 5, black)

	// Two touching rings
	for _, cx := range []int{8, 13} {
		for x := cx - 3; x <= cx+3; x++ {
			for y := 9; y <= 15; y++ {
				dx, dy := x-cx, y-12
				if d := dx*dx + dy*dy; d >= 4 && d <= 9 {
					img.Set(x, y, black)
				}
			}
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// NewMenubar creates a new menubar showing up to maxEntries recent entries
func NewMenubar(app App, maxEntries int, checkUpdates bool) *Menubar {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Menubar{
		app:          app,
		maxEntries:   maxEntries,
		checkUpdates: checkUpdates,
		quitChan:     make(chan struct{}),
	}
}

// Run starts the menubar (blocking)
func (m *Menubar) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Quit signals the menubar to exit
func (m *Menubar) Quit() {
	systray.Quit()
}

// ShowNotice displays a one-line message under the status
func (m *Menubar) ShowNotice(message string) {
	m.mu.Lock()
	ready := m.ready
	m.mu.Unlock()
	if !ready {
		return
	}
	m.mNotice.SetTitle(message)
	m.mNotice.Show()
}

func (m *Menubar) onReady() {
	systray.SetIcon(createClipboardIcon())
	systray.SetTitle("")
	systray.SetTooltip("Infinity Clipboard")

	// Status items
	m.mStatus = systray.AddMenuItem("Status: Starting...", "")
	m.mStatus.Disable()

	m.mLastCapture = systray.AddMenuItem("Last capture: Never", "")
	m.mLastCapture.Disable()

	m.mNotice = systray.AddMenuItem("", "")
	m.mNotice.Disable()
	m.mNotice.Hide()

	mLocation := systray.AddMenuItem("Stored in "+m.app.GetLocation(), "")
	mLocation.Disable()

	systray.AddSeparator()

	// History slots, filled by refreshEntries
	m.mEmpty = systray.AddMenuItem("No history yet", "")
	m.mEmpty.Disable()
	m.mEntries = make([]*systray.MenuItem, m.maxEntries)
	m.entryIDs = make([]int, m.maxEntries)
	for i := range m.mEntries {
		m.mEntries[i] = systray.AddMenuItem("", "Copy to clipboard")
		m.mEntries[i].Hide()
	}

	systray.AddSeparator()

	// Capture controls
	m.mPause = systray.AddMenuItem("Pause Capture", "")
	m.mResume = systray.AddMenuItem("Resume Capture", "")
	m.mResume.Hide()

	systray.AddSeparator()

	// History actions
	mExport := systray.AddMenuItem("Export History...", "Save history as JSON in the downloads folder")
	mImport := systray.AddMenuItem("Import History...", "Replace history from a JSON file")
	mClear := systray.AddMenuItem("Clear History", "")

	systray.AddSeparator()

	// Update section
	m.mUpdate = systray.AddMenuItem("Update Available!", "A new version is available")
	m.mUpdate.Hide() // Hidden until update is found
	m.mCheckUpdate = systray.AddMenuItem("Check for Updates", "")
	m.mVersion = systray.AddMenuItem("Version: "+m.app.GetVersion(), "")
	m.mVersion.Disable()

	systray.AddSeparator()

	mQuit := systray.AddMenuItem("Quit", "")

	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()

	engine := m.app.GetCaptureEngine()
	m.updateStatus(engine.GetStatus())
	engine.OnStatusChange(m.updateStatus)

	m.refreshEntries()
	m.app.GetStore().OnChange(m.refreshEntries)

	for i, item := range m.mEntries {
		go m.entryClickLoop(i, item)
	}

	go m.updateLastCaptureLoop()

	if m.checkUpdates {
		go m.updateCheckLoop()
	}

	// Handle menu events
	go func() {
		for {
			select {
			case <-m.mPause.ClickedCh:
				engine.Pause()
				m.mPause.Hide()
				m.mResume.Show()

			case <-m.mResume.ClickedCh:
				engine.Resume()
				m.mResume.Hide()
				m.mPause.Show()

			case <-mExport.ClickedCh:
				m.exportHistory()

			case <-mImport.ClickedCh:
				m.importHistory()

			case <-mClear.ClickedCh:
				ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
				m.app.GetStore().ClearAll(ctx)
				cancel()
				m.ShowNotice("History cleared")

			case <-m.mCheckUpdate.ClickedCh:
				m.checkForUpdates()

			case <-m.mUpdate.ClickedCh:
				// Open release page in browser
				m.mu.Lock()
				info := m.updateInfo
				m.mu.Unlock()
				if info != nil && info.ReleaseURL != "" {
					openBrowser(info.ReleaseURL)
				}

			case <-mQuit.ClickedCh:
				m.app.Quit()
				return

			case <-m.quitChan:
				return
			}
		}
	}()
}

func (m *Menubar) onExit() {
	close(m.quitChan)
}

func (m *Menubar) updateStatus(status capture.Status) {
	switch status {
	case capture.StatusCapturing:
		m.mStatus.SetTitle("Status: Capturing ✓")
	case capture.StatusPaused:
		m.mStatus.SetTitle("Status: Paused ⏸")
	case capture.StatusError:
		m.mStatus.SetTitle("Status: Error ⚠")
	default:
		m.mStatus.SetTitle("Status: " + status.String())
	}
}

// refreshEntries rewrites the history slots from the store
func (m *Menubar) refreshEntries() {
	recent := m.app.GetStore().Recent(m.maxEntries)

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.mEntries {
		if i >= len(recent) {
			m.entryIDs[i] = 0
			item.Hide()
			continue
		}
		m.entryIDs[i] = recent[i].ID
		item.SetTitle(EntryLabel(recent[i], labelWidth))
		item.SetTooltip(EntryTooltip(recent[i]))
		item.Show()
	}

	if len(recent) == 0 {
		m.mEmpty.Show()
	} else {
		m.mEmpty.Hide()
	}
}

func (m *Menubar) entryClickLoop(slot int, item *systray.MenuItem) {
	for {
		select {
		case <-item.ClickedCh:
			m.copySlot(slot)
		case <-m.quitChan:
			return
		}
	}
}

func (m *Menubar) copySlot(slot int) {
	m.mu.Lock()
	id := m.entryIDs[slot]
	m.mu.Unlock()

	entry, ok := m.app.GetStore().Get(id)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	if err := m.app.GetCaptureEngine().CopyEntry(ctx, entry); err != nil {
		logger.Error().Err(err).Int("id", entry.ID).Msg("copy from tray failed")
		m.ShowNotice("Copy failed: " + err.Error())
		return
	}
	m.ShowNotice(fmt.Sprintf("Copied entry #%d", entry.ID))
}

func (m *Menubar) exportHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	path, err := m.app.GetStore().ExportData(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("export failed")
		m.ShowNotice("Export failed: " + err.Error())
		return
	}
	m.ShowNotice("Exported to " + path)
}

func (m *Menubar) importHistory() {
	// The picker is modal, so no timeout here
	err := m.app.GetStore().ImportData(context.Background())
	switch {
	case err == nil:
	case errors.Is(err, store.ErrInvalidImport):
		// already reported through the alerter
	case errors.Is(err, host.ErrUnsupported):
		m.ShowNotice("Import needs a file dialog; use `infclip import <file>`")
	default:
		logger.Error().Err(err).Msg("import failed")
		m.ShowNotice("Import failed: " + err.Error())
	}
}

func (m *Menubar) updateLastCaptureLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			last := m.app.GetCaptureEngine().GetLastCaptureTime()
			if last.IsZero() {
				m.mLastCapture.SetTitle("Last capture: Never")
			} else {
				m.mLastCapture.SetTitle(fmt.Sprintf("Last capture: %s ago", formatDuration(time.Since(last))))
			}
		case <-m.quitChan:
			return
		}
	}
}

func (m *Menubar) checkForUpdates() {
	checker := m.app.GetUpdateChecker()
	if checker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	info, err := checker.Check(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("update check failed")
		return
	}

	m.mu.Lock()
	m.updateInfo = info
	m.mu.Unlock()

	if info.Available {
		m.mUpdate.SetTitle(fmt.Sprintf("Update Available: %s", info.LatestVersion))
		m.mUpdate.Show()
		logger.Info().
			Str("current", info.CurrentVersion).
			Str("latest", info.LatestVersion).
			Msg("update available")
	} else {
		m.mUpdate.Hide()
	}
}

func (m *Menubar) updateCheckLoop() {
	// Initial delay before first check
	select {
	case <-time.After(5 * time.Second):
	case <-m.quitChan:
		return
	}
	m.checkForUpdates()

	ticker := time.NewTicker(update.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkForUpdates()
		case <-m.quitChan:
			return
		}
	}
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		logger.Warn().Str("os", runtime.GOOS).Msg("unsupported platform for opening browser")
		return
	}
	if err := cmd.Start(); err != nil {
		logger.Warn().Err(err).Msg("failed to open browser")
	}
}

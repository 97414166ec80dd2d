package capture

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mindmorass/infinity-clipboard/internal/clipboard"
	"github.com/mindmorass/infinity-clipboard/internal/logger"
)

// StatusHandler is called when capture status changes
type StatusHandler func(status Status)

// CaptureHandler is called with every entry the engine records
type CaptureHandler func(entry clipboard.Entry)

// Status represents the current capture state
type Status int

const (
	StatusIdle Status = iota
	StatusCapturing
	StatusPaused
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusCapturing:
		return "Capturing"
	case StatusPaused:
		return "Paused"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Recorder stores captured entries; *store.Store satisfies it
type Recorder interface {
	AddItem(ctx context.Context, entry clipboard.Entry) clipboard.Entry
}

// Engine feeds system clipboard changes into the history and copies
// history entries back out without recording them a second time.
type Engine struct {
	recorder Recorder
	monitor  *clipboard.Monitor
	copier   *clipboard.Copier

	status          Status
	lastError       error
	lastCaptureTime time.Time
	onStatusChange  StatusHandler
	onCapture       CaptureHandler

	paused  bool
	running bool
	mu      sync.Mutex
}

// NewEngine creates a capture engine. monitor may be nil when only
// Capture and CopyEntry are used.
func NewEngine(rec Recorder, monitor *clipboard.Monitor, copier *clipboard.Copier) *Engine {
	e := &Engine{
		recorder: rec,
		monitor:  monitor,
		copier:   copier,
		status:   StatusIdle,
	}

	if monitor != nil {
		monitor.OnChange(e.onClipboardChange)
	}

	return e
}

// OnStatusChange sets the status change handler
func (e *Engine) OnStatusChange(handler StatusHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStatusChange = handler
}

// OnCapture sets the handler called after an entry is recorded
func (e *Engine) OnCapture(handler CaptureHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onCapture = handler
}

// Start begins watching the clipboard
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.paused = false
	e.mu.Unlock()

	if e.monitor != nil {
		e.monitor.Start()
	}

	e.setStatus(StatusCapturing)
	logger.Info().Msg("clipboard capture started")
	return nil
}

// Stop stops watching the clipboard
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	if e.monitor != nil {
		e.monitor.Stop()
	}
	e.setStatus(StatusIdle)
	logger.Info().Msg("clipboard capture stopped")
}

// Pause ignores clipboard changes until Resume
func (e *Engine) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
	e.setStatus(StatusPaused)
}

// Resume resumes capturing and clears any error
func (e *Engine) Resume() {
	e.mu.Lock()
	e.paused = false
	e.lastError = nil
	running := e.running
	e.mu.Unlock()

	if running {
		e.setStatus(StatusCapturing)
	} else {
		e.setStatus(StatusIdle)
	}
}

// IsPaused returns true if capture is paused
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// IsRunning returns true if engine is running
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// GetStatus returns the current status
func (e *Engine) GetStatus() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// GetLastCaptureTime returns when an entry was last recorded
func (e *Engine) GetLastCaptureTime() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCaptureTime
}

// GetLastError returns the last error
func (e *Engine) GetLastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

func (e *Engine) setStatus(status Status) {
	e.mu.Lock()
	e.status = status
	handler := e.onStatusChange
	e.mu.Unlock()

	if handler != nil {
		handler(status)
	}
}

func (e *Engine) onClipboardChange(ev clipboard.PasteEvent) {
	e.mu.Lock()
	if e.paused || !e.running {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	if entry, ok := e.Capture(context.Background(), ev); ok {
		logger.Debug().Int("id", entry.ID).Str("type", string(entry.Type)).Msg("captured clipboard change")
	}
}

// Capture classifies a paste event and records the resulting entry. It
// reports false when the event carried nothing to record.
func (e *Engine) Capture(ctx context.Context, ev clipboard.PasteEvent) (clipboard.Entry, bool) {
	var (
		stored clipboard.Entry
		ok     bool
	)
	clipboard.HandlePaste(ev, func(entry clipboard.Entry) {
		stored = e.recorder.AddItem(ctx, entry)
		ok = true
	})
	if !ok {
		return clipboard.Entry{}, false
	}

	e.mu.Lock()
	e.lastCaptureTime = time.Now()
	handler := e.onCapture
	e.mu.Unlock()

	if handler != nil {
		handler(stored)
	}
	return stored, true
}

// CopyEntry puts an entry back on the system clipboard. The monitor is told
// the content's checksum first so the copy is not captured again.
func (e *Engine) CopyEntry(ctx context.Context, entry clipboard.Entry) error {
	if e.copier == nil {
		return clipboard.ErrNoWriter
	}

	var err error
	if entry.IsImage() {
		e.suppressImage(entry.Content)
		err = e.copier.CopyImage(ctx, entry.Content)
	} else {
		e.suppress([]byte(entry.Content))
		err = e.copier.CopyText(entry.Content)
	}

	if err != nil {
		logger.Warn().Err(err).Int("id", entry.ID).Msg("failed to copy entry to clipboard")
		e.mu.Lock()
		e.lastError = err
		e.mu.Unlock()
		e.setStatus(StatusError)
		return err
	}
	return nil
}

func (e *Engine) suppress(data []byte) {
	if e.monitor != nil {
		e.monitor.SetLastChecksum(clipboard.Checksum(data))
	}
}

// suppressImage only covers PNG data URIs, and only while the clipboard
// hands back the exact bytes written. Other formats are converted to PNG on
// the way in, and some platforms rewrite PNGs too; in both cases the copy is
// read back as a new image and recorded again.
func (e *Engine) suppressImage(src string) {
	if !strings.HasPrefix(src, "data:image/png") {
		return
	}
	data, _, err := clipboard.DecodeDataURI(src)
	if err != nil {
		return
	}
	e.suppress(data)
}

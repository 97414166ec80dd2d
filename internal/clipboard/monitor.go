package clipboard

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/mindmorass/infinity-clipboard/internal/logger"
)

// Reader reads the current clipboard contents
type Reader interface {
	ReadText() (string, error)
	ReadImage() ([]byte, error)
}

// ChangeHandler is called when clipboard content changes
type ChangeHandler func(PasteEvent)

// Monitor watches for clipboard changes using polling
type Monitor struct {
	reader       Reader
	interval     time.Duration
	lastChecksum string
	onChange     ChangeHandler
	stopChan     chan struct{}
	running      bool
	mu           sync.Mutex
}

// NewMonitor creates a new clipboard monitor
func NewMonitor(reader Reader, interval time.Duration) *Monitor {
	return &Monitor{
		reader:   reader,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// OnChange sets the handler for clipboard changes
func (m *Monitor) OnChange(handler ChangeHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = handler
}

// Start begins monitoring the clipboard. Whatever is on the clipboard when
// monitoring starts is treated as already seen.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.mu.Unlock()

	if ev, checksum := m.read(); ev != nil {
		m.SetLastChecksum(checksum)
	}

	go m.run()
}

// Stop stops the clipboard monitor
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	close(m.stopChan)
}

// IsRunning returns true if the monitor is active
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.mu.Lock()
	stop := m.stopChan
	m.mu.Unlock()

	for {
		select {
		case <-ticker.C:
			m.CheckForChanges()
		case <-stop:
			return
		}
	}
}

// CheckForChanges reads the clipboard once and notifies the handler if the
// content differs from the last seen content.
func (m *Monitor) CheckForChanges() {
	ev, checksum := m.read()
	if ev == nil {
		return
	}

	m.mu.Lock()
	if checksum == m.lastChecksum {
		m.mu.Unlock()
		return
	}
	m.lastChecksum = checksum
	handler := m.onChange
	m.mu.Unlock()

	if handler != nil {
		handler(ev)
	}
}

// read builds a paste event from the clipboard, image first
func (m *Monitor) read() (*Event, string) {
	if data, err := m.reader.ReadImage(); err != nil {
		logger.Debug().Err(err).Msg("error reading clipboard image")
	} else if len(data) > 0 {
		file := File{
			Name:     "clipboard.png",
			MimeType: "image/png",
			Data:     data,
		}
		return NewEvent("", file), Checksum(data)
	}

	text, err := m.reader.ReadText()
	if err != nil {
		logger.Debug().Err(err).Msg("error reading clipboard text")
		return nil, ""
	}
	if text == "" {
		return nil, ""
	}
	return NewEvent(text), Checksum([]byte(text))
}

// SetLastChecksum sets the last known checksum (used to prevent echo)
func (m *Monitor) SetLastChecksum(checksum string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastChecksum = checksum
}

// Checksum returns the hex SHA-256 of data
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

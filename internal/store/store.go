// Package store owns the clipboard history: the newest-first entry list and
// the id counter. Every mutation is written through to a key-value backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mindmorass/infinity-clipboard/internal/backend"
	"github.com/mindmorass/infinity-clipboard/internal/clipboard"
	"github.com/mindmorass/infinity-clipboard/internal/host"
	"github.com/mindmorass/infinity-clipboard/internal/logger"
)

const (
	// DataKey holds the JSON array of entries
	DataKey = "infinityClipboardData"

	// NextIDKey holds the decimal next-id counter
	NextIDKey = "infinityClipboardNextId"

	// ImportFailedMessage is shown when an import file cannot be parsed
	ImportFailedMessage = "Import failed: file format is invalid"

	exportDateFormat = "2006-01-02"
)

var (
	ErrInvalidImport = errors.New("import file format is invalid")
	ErrNoDownloader  = errors.New("no downloader configured")
	ErrNoFilePicker  = errors.New("no file picker configured")
)

// KV is the persistence substrate. backend.Backend satisfies it; a missing
// key must be reported as backend.ErrNotFound.
type KV interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// Store is the single source of truth for the clipboard history
type Store struct {
	mu     sync.Mutex
	kv     KV
	items  []clipboard.Entry
	nextID int

	downloader host.Downloader
	picker     host.FilePicker
	alerter    host.Alerter
	now        func() time.Time

	listenersMu sync.Mutex
	listeners   []func()
}

// Option configures a Store
type Option func(*Store)

// WithDownloader sets where ExportData writes its file
func WithDownloader(d host.Downloader) Option {
	return func(s *Store) { s.downloader = d }
}

// WithFilePicker sets how ImportData chooses its file
func WithFilePicker(p host.FilePicker) Option {
	return func(s *Store) { s.picker = p }
}

// WithAlerter sets how import failures reach the user
func WithAlerter(a host.Alerter) Option {
	return func(s *Store) { s.alerter = a }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store over kv. Call Load before use.
func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		items:  []clipboard.Entry{},
		nextID: 1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to run after every mutation
func (s *Store) OnChange(fn func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Load reads both persisted keys. A missing key leaves the default (empty
// list, counter 1). Unreadable or malformed entry data resets both.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []clipboard.Entry{}
	s.nextID = 1

	data, err := s.kv.Read(ctx, DataKey)
	switch {
	case errors.Is(err, backend.ErrNotFound):
	case err != nil:
		logger.Error().Err(err).Str("key", DataKey).Msg("failed to load clipboard history, starting empty")
		return
	default:
		var items []clipboard.Entry
		if err := json.Unmarshal(data, &items); err != nil {
			logger.Error().Err(err).Str("key", DataKey).Msg("stored clipboard history is not valid JSON, starting empty")
			return
		}
		if items != nil {
			s.items = items
		}
	}

	maxID := maxEntryID(s.items)

	raw, err := s.kv.Read(ctx, NextIDKey)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		s.nextID = maxID + 1
	case err != nil:
		logger.Warn().Err(err).Str("key", NextIDKey).Msg("failed to load id counter, recomputing")
		s.nextID = maxID + 1
	default:
		n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			logger.Warn().Err(err).Str("value", string(raw)).Msg("stored id counter is not a number, recomputing")
			n = 0
		}
		s.nextID = n
		if s.nextID <= maxID {
			s.nextID = maxID + 1
		}
	}

	logger.Debug().Int("items", len(s.items)).Int("next_id", s.nextID).Msg("clipboard history loaded")
}

// save writes both keys. Failures are logged and dropped; memory stays
// authoritative.
func (s *Store) save(ctx context.Context) {
	data, err := json.Marshal(s.items)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode clipboard history")
		return
	}

	if err := s.kv.Write(ctx, DataKey, data); err != nil {
		logger.Error().Err(err).Str("key", DataKey).Msg("failed to save clipboard history")
	}
	if err := s.kv.Write(ctx, NextIDKey, []byte(strconv.Itoa(s.nextID))); err != nil {
		logger.Error().Err(err).Str("key", NextIDKey).Msg("failed to save id counter")
	}
}

// AddItem assigns the next id to entry, puts it first and persists. The
// stored entry is returned.
func (s *Store) AddItem(ctx context.Context, entry clipboard.Entry) clipboard.Entry {
	s.mu.Lock()
	entry.ID = s.nextID
	s.nextID++
	s.items = append([]clipboard.Entry{entry}, s.items...)
	s.save(ctx)
	s.mu.Unlock()

	s.notify()
	return entry
}

// DeleteItem removes every entry with id and persists, whether or not one
// matched.
func (s *Store) DeleteItem(ctx context.Context, id int) {
	s.mu.Lock()
	kept := make([]clipboard.Entry, 0, len(s.items))
	for _, e := range s.items {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.items = kept
	s.save(ctx)
	s.mu.Unlock()

	s.notify()
}

// ClearAll empties the history and resets the counter to 1
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	s.items = []clipboard.Entry{}
	s.nextID = 1
	s.save(ctx)
	s.mu.Unlock()

	s.notify()
}

// ChangeLanguage sets the language of the first entry with id. It reports
// whether an entry matched; an unknown id changes nothing.
func (s *Store) ChangeLanguage(ctx context.Context, id int, lang clipboard.Language) bool {
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Language = lang
			found = true
			break
		}
	}
	if found {
		s.save(ctx)
	}
	s.mu.Unlock()

	if found {
		s.notify()
	}
	return found
}

// ExportData writes the history as indented JSON named
// clipboard-data-YYYY-MM-DD.json and returns where it went.
func (s *Store) ExportData(ctx context.Context) (string, error) {
	if s.downloader == nil {
		return "", ErrNoDownloader
	}

	s.mu.Lock()
	data, err := json.MarshalIndent(s.items, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}

	path, err := s.downloader.Save(ctx, ExportFileName(s.now()), data)
	if err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}

	logger.Info().Str("path", path).Msg("clipboard history exported")
	return path, nil
}

// ExportFileName returns the export file name for a given moment (UTC date)
func ExportFileName(t time.Time) string {
	return "clipboard-data-" + t.UTC().Format(exportDateFormat) + ".json"
}

// ImportData asks for a .json file and replaces the history with its
// contents. A cancelled pick does nothing. A file that is not a JSON array
// of entries raises an alert, leaves the history untouched and returns
// ErrInvalidImport.
func (s *Store) ImportData(ctx context.Context) error {
	if s.picker == nil {
		return ErrNoFilePicker
	}

	path, err := s.picker.PickFile(ctx, ".json")
	if errors.Is(err, host.ErrCancelled) {
		logger.Debug().Msg("import cancelled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("choose import file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	var items []clipboard.Entry
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		logger.Warn().Err(err).Str("path", path).Msg("import file rejected")
		s.alert(ImportFailedMessage)
		return ErrInvalidImport
	}

	s.mu.Lock()
	s.items = items
	s.nextID = maxEntryID(items) + 1
	s.save(ctx)
	s.mu.Unlock()

	logger.Info().Str("path", path).Int("items", len(items)).Msg("clipboard history imported")
	s.notify()
	return nil
}

func (s *Store) alert(msg string) {
	if s.alerter == nil {
		logger.Warn().Msg(msg)
		return
	}
	s.alerter.Alert(msg)
}

// Items returns a copy of the history, newest first
func (s *Store) Items() []clipboard.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]clipboard.Entry{}, s.items...)
}

// Recent returns up to n of the newest entries
func (s *Store) Recent(n int) []clipboard.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.items) {
		n = len(s.items)
	}
	if n < 0 {
		n = 0
	}
	return append([]clipboard.Entry{}, s.items[:n]...)
}

// Get returns the first entry with id
func (s *Store) Get(id int) (clipboard.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, true
		}
	}
	return clipboard.Entry{}, false
}

// Len returns the number of entries
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// NextID returns the id the next added entry will get
func (s *Store) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

func maxEntryID(items []clipboard.Entry) int {
	maxID := 0
	for _, e := range items {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	return maxID
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mindmorass/infinity-clipboard/internal/backend"
	"github.com/mindmorass/infinity-clipboard/internal/clipboard"
	"github.com/mindmorass/infinity-clipboard/internal/host"
)

// flakyKV wraps a memory backend and can be told to fail writes
type flakyKV struct {
	*backend.MemoryBackend
	mu        sync.Mutex
	failWrite bool
	failRead  bool
	writes    int
}

func newFlakyKV() *flakyKV {
	return &flakyKV{MemoryBackend: backend.NewMemoryBackend()}
}

func (k *flakyKV) Write(ctx context.Context, key string, data []byte) error {
	k.mu.Lock()
	k.writes++
	fail := k.failWrite
	k.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return k.MemoryBackend.Write(ctx, key, data)
}

func (k *flakyKV) Read(ctx context.Context, key string) ([]byte, error) {
	if k.failRead {
		return nil, errors.New("io error")
	}
	return k.MemoryBackend.Read(ctx, key)
}

type recordingAlerter struct {
	messages []string
}

func (a *recordingAlerter) Alert(msg string) { a.messages = append(a.messages, msg) }

type pickerFunc func(ctx context.Context, accept string) (string, error)

func (f pickerFunc) PickFile(ctx context.Context, accept string) (string, error) {
	return f(ctx, accept)
}

var ctx = context.Background()

func textEntry(content string) clipboard.Entry {
	return clipboard.Entry{Type: clipboard.EntryTypeText, Content: content, Timestamp: time.Unix(1700000000, 0).UTC()}
}

func codeEntry(content string, lang clipboard.Language) clipboard.Entry {
	return clipboard.Entry{Type: clipboard.EntryTypeCode, Content: content, Language: lang, Timestamp: time.Unix(1700000000, 0).UTC()}
}

func ids(items []clipboard.Entry) []int {
	out := make([]int, len(items))
	for i, e := range items {
		out[i] = e.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newLoaded(t *testing.T, kv KV, opts ...Option) *Store {
	t.Helper()
	s := New(kv, opts...)
	s.Load(ctx)
	return s
}

func TestLoadEmpty(t *testing.T) {
	s := newLoaded(t, backend.NewMemoryBackend())

	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if s.NextID() != 1 {
		t.Errorf("NextID() = %d, want 1", s.NextID())
	}
}

func TestAddItemAssignsIncreasingIDs(t *testing.T) {
	s := newLoaded(t, backend.NewMemoryBackend())

	var got []int
	for i := 0; i < 5; i++ {
		e := s.AddItem(ctx, textEntry("x"))
		got = append(got, e.ID)
	}

	if !equalInts(got, []int{1, 2, 3, 4, 5}) {
		t.Errorf("assigned ids = %v", got)
	}
	if !equalInts(ids(s.Items()), []int{5, 4, 3, 2, 1}) {
		t.Errorf("Items() ids = %v, want newest first", ids(s.Items()))
	}
	if s.NextID() != 6 {
		t.Errorf("NextID() = %d, want 6", s.NextID())
	}
}

func TestAddItemOverwritesCallerID(t *testing.T) {
	s := newLoaded(t, backend.NewMemoryBackend())
	e := textEntry("x")
	e.ID = 99

	if got := s.AddItem(ctx, e); got.ID != 1 {
		t.Errorf("ID = %d, want 1", got.ID)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	kv := backend.NewMemoryBackend()
	s := newLoaded(t, kv)
	s.AddItem(ctx, textEntry("a"))
	s.AddItem(ctx, codeEntry("def f(): pass", clipboard.LanguagePython))

	raw, err := kv.Read(ctx, NextIDKey)
	if err != nil || string(raw) != "3" {
		t.Errorf("stored counter = %q, %v", raw, err)
	}

	reloaded := newLoaded(t, kv)
	if !equalInts(ids(reloaded.Items()), []int{2, 1}) {
		t.Errorf("reloaded ids = %v", ids(reloaded.Items()))
	}
	if reloaded.NextID() != 3 {
		t.Errorf("reloaded NextID() = %d, want 3", reloaded.NextID())
	}
	if e, _ := reloaded.Get(2); e.Language != clipboard.LanguagePython {
		t.Errorf("reloaded language = %q", e.Language)
	}
}

func TestLoadInvalidJSONResets(t *testing.T) {
	kv := backend.NewMemoryBackend()
	kv.Write(ctx, DataKey, []byte("{not json"))
	kv.Write(ctx, NextIDKey, []byte("42"))

	s := newLoaded(t, kv)
	if s.Len() != 0 || s.NextID() != 1 {
		t.Errorf("Len() = %d, NextID() = %d, want reset to 0 and 1", s.Len(), s.NextID())
	}
}

func TestLoadReadErrorResets(t *testing.T) {
	kv := newFlakyKV()
	kv.failRead = true

	s := newLoaded(t, kv)
	if s.Len() != 0 || s.NextID() != 1 {
		t.Errorf("Len() = %d, NextID() = %d, want reset", s.Len(), s.NextID())
	}
}

func TestLoadCounter(t *testing.T) {
	items := `[{"id":7,"type":"text","content":"a","language":null,"timestamp":"2024-01-01T00:00:00Z"},` +
		`{"id":3,"type":"text","content":"b","language":null,"timestamp":"2024-01-01T00:00:00Z"}]`

	tests := []struct {
		name    string
		counter string
		want    int
	}{
		{"absent", "", 8},
		{"valid", "12", 12},
		{"behind max id", "4", 8},
		{"garbage", "abc", 8},
		{"whitespace", " 9\n", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := backend.NewMemoryBackend()
			kv.Write(ctx, DataKey, []byte(items))
			if tt.counter != "" {
				kv.Write(ctx, NextIDKey, []byte(tt.counter))
			}

			s := newLoaded(t, kv)
			if s.Len() != 2 {
				t.Fatalf("Len() = %d, want 2", s.Len())
			}
			if s.NextID() != tt.want {
				t.Errorf("NextID() = %d, want %d", s.NextID(), tt.want)
			}
		})
	}
}

func TestLoadNullDataIsEmpty(t *testing.T) {
	kv := backend.NewMemoryBackend()
	kv.Write(ctx, DataKey, []byte("null"))

	s := newLoaded(t, kv)
	if s.Items() == nil || s.Len() != 0 {
		t.Errorf("Items() = %v, want empty non-nil", s.Items())
	}
}

func TestDeleteItem(t *testing.T) {
	s := newLoaded(t, backend.NewMemoryBackend())
	for i := 0; i < 4; i++ {
		s.AddItem(ctx, textEntry("x"))
	}

	s.DeleteItem(ctx, 2)

	if !equalInts(ids(s.Items()), []int{4, 3, 1}) {
		t.Errorf("ids after delete = %v, want [4 3 1]", ids(s.Items()))
	}
	if _, ok := s.Get(2); ok {
		t.Error("deleted entry still present")
	}
	if s.NextID() != 5 {
		t.Errorf("NextID() = %d, want 5 (ids are not reused)", s.NextID())
	}
}

func TestDeleteItemUnknownIDStillPersists(t *testing.T) {
	kv := newFlakyKV()
	s := newLoaded(t, kv)
	s.AddItem(ctx, textEntry("x"))
	before := kv.writes

	s.DeleteItem(ctx, 999)

	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if kv.writes != before+2 {
		t.Errorf("writes = %d, want %d", kv.writes, before+2)
	}
}

func TestClearAllResetsCounter(t *testing.T) {
	kv := backend.NewMemoryBackend()
	s := newLoaded(t, kv)
	s.AddItem(ctx, textEntry("a"))
	s.AddItem(ctx, textEntry("b"))

	s.ClearAll(ctx)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}

	e := s.AddItem(ctx, textEntry("c"))
	if e.ID != 1 {
		t.Errorf("ID after clear = %d, want 1", e.ID)
	}

	raw, _ := kv.Read(ctx, DataKey)
	var stored []clipboard.Entry
	if err := json.Unmarshal(raw, &stored); err != nil || len(stored) != 1 {
		t.Errorf("stored history = %s, %v", raw, err)
	}
}

func TestChangeLanguage(t *testing.T) {
	kv := newFlakyKV()
	s := newLoaded(t, kv)
	s.AddItem(ctx, codeEntry("x = 1", clipboard.LanguageText))

	if !s.ChangeLanguage(ctx, 1, clipboard.LanguagePython) {
		t.Fatal("ChangeLanguage() = false for existing id")
	}
	if e, _ := s.Get(1); e.Language != clipboard.LanguagePython {
		t.Errorf("Language = %q, want python", e.Language)
	}

	before := kv.writes
	if s.ChangeLanguage(ctx, 42, clipboard.LanguageCSS) {
		t.Error("ChangeLanguage() = true for unknown id")
	}
	if kv.writes != before {
		t.Error("unknown id should not persist")
	}
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	kv := newFlakyKV()
	s := newLoaded(t, kv)
	kv.failWrite = true

	e := s.AddItem(ctx, textEntry("kept"))

	if got, ok := s.Get(e.ID); !ok || got.Content != "kept" {
		t.Errorf("entry lost after failed save: %+v", got)
	}
	if s.NextID() != 2 {
		t.Errorf("NextID() = %d, want 2", s.NextID())
	}
}

func TestOnChange(t *testing.T) {
	s := newLoaded(t, backend.NewMemoryBackend())
	calls := 0
	s.OnChange(func() { calls++ })

	s.AddItem(ctx, textEntry("a"))
	s.ChangeLanguage(ctx, 1, clipboard.LanguageCSS)
	s.ChangeLanguage(ctx, 9, clipboard.LanguageCSS)
	s.DeleteItem(ctx, 1)
	s.ClearAll(ctx)

	if calls != 4 {
		t.Errorf("listener called %d times, want 4", calls)
	}
}

func TestRecent(t *testing.T) {
	s := newLoaded(t, backend.NewMemoryBackend())
	for i := 0; i < 3; i++ {
		s.AddItem(ctx, textEntry("x"))
	}

	if got := ids(s.Recent(2)); !equalInts(got, []int{3, 2}) {
		t.Errorf("Recent(2) = %v", got)
	}
	if got := s.Recent(10); len(got) != 3 {
		t.Errorf("Recent(10) len = %d", len(got))
	}
	if got := s.Recent(-1); len(got) != 0 {
		t.Errorf("Recent(-1) len = %d", len(got))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 6, 30, 23, 30, 0, 0, time.FixedZone("X", -3*3600))

	var exported string
	picker := pickerFunc(func(ctx context.Context, accept string) (string, error) {
		if accept != ".json" {
			t.Errorf("accept = %q, want .json", accept)
		}
		return exported, nil
	})

	s := newLoaded(t, backend.NewMemoryBackend(),
		WithDownloader(host.NewDirDownloader(dir)),
		WithFilePicker(picker),
		WithClock(func() time.Time { return now }),
	)
	s.AddItem(ctx, textEntry("hello"))
	s.AddItem(ctx, codeEntry("def f(): pass", clipboard.LanguagePython))
	s.AddItem(ctx, clipboard.Entry{Type: clipboard.EntryTypeImage, Content: "data:image/png;base64,AAAA", Timestamp: now})
	s.DeleteItem(ctx, 1)

	path, err := s.ExportData(ctx)
	if err != nil {
		t.Fatalf("ExportData() error = %v", err)
	}
	exported = path

	if want := filepath.Join(dir, "clipboard-data-2024-07-01.json"); path != want {
		t.Errorf("export path = %q, want %q (UTC date)", path, want)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) < 4 || string(raw[:4]) != "[\n  " {
		t.Errorf("export is not 2-space indented: %q", raw[:min(len(raw), 20)])
	}

	before := s.Items()
	s.ClearAll(ctx)

	if err := s.ImportData(ctx); err != nil {
		t.Fatalf("ImportData() error = %v", err)
	}

	after := s.Items()
	if len(after) != len(before) {
		t.Fatalf("imported %d entries, want %d", len(after), len(before))
	}
	for i := range before {
		b, a := before[i], after[i]
		if a.ID != b.ID || a.Type != b.Type || a.Content != b.Content || a.Language != b.Language || !a.Timestamp.Equal(b.Timestamp) {
			t.Errorf("entry %d = %+v, want %+v", i, a, b)
		}
	}
	if s.NextID() != 4 {
		t.Errorf("NextID() after import = %d, want max+1 = 4", s.NextID())
	}
}

func TestExportEmptyIsArray(t *testing.T) {
	dir := t.TempDir()
	s := newLoaded(t, backend.NewMemoryBackend(), WithDownloader(host.NewDirDownloader(dir)))

	path, err := s.ExportData(ctx)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "[]" {
		t.Errorf("empty export = %q, want []", raw)
	}
}

func TestImportEmptyArrayResetsCounter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	os.WriteFile(path, []byte("[]"), 0644)

	s := newLoaded(t, backend.NewMemoryBackend(), WithFilePicker(host.PathPicker{Path: path}))
	s.AddItem(ctx, textEntry("a"))

	if err := s.ImportData(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 || s.NextID() != 1 {
		t.Errorf("Len() = %d, NextID() = %d, want 0 and 1", s.Len(), s.NextID())
	}
}

func TestImportInvalidLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "this is not json"},
		{"object", `{"id":1}`},
		{"null", "null"},
		{"wrong element type", "[1, 2, 3]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			alerter := &recordingAlerter{}
			kv := newFlakyKV()
			s := newLoaded(t, kv, WithFilePicker(host.PathPicker{Path: path}), WithAlerter(alerter))
			s.AddItem(ctx, textEntry("keep me"))
			writes := kv.writes

			err := s.ImportData(ctx)
			if !errors.Is(err, ErrInvalidImport) {
				t.Errorf("ImportData() error = %v, want %v", err, ErrInvalidImport)
			}
			if len(alerter.messages) != 1 || alerter.messages[0] != ImportFailedMessage {
				t.Errorf("alerts = %v", alerter.messages)
			}
			if s.Len() != 1 || s.NextID() != 2 {
				t.Errorf("state changed: Len() = %d, NextID() = %d", s.Len(), s.NextID())
			}
			if kv.writes != writes {
				t.Error("failed import should not persist")
			}
		})
	}
}

func TestImportCancelled(t *testing.T) {
	alerter := &recordingAlerter{}
	s := newLoaded(t, backend.NewMemoryBackend(), WithFilePicker(host.PathPicker{}), WithAlerter(alerter))
	s.AddItem(ctx, textEntry("a"))

	if err := s.ImportData(ctx); err != nil {
		t.Errorf("ImportData() error = %v, want nil for cancelled pick", err)
	}
	if s.Len() != 1 || len(alerter.messages) != 0 {
		t.Error("cancelled import changed state or alerted")
	}
}

func TestImportWithoutShapeValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loose.json")
	os.WriteFile(path, []byte(`[{"id":10,"content":"no type"},{"id":4,"type":"code","content":"x","language":"ruby"}]`), 0644)

	s := newLoaded(t, backend.NewMemoryBackend(), WithFilePicker(host.PathPicker{Path: path}))
	if err := s.ImportData(ctx); err != nil {
		t.Fatalf("ImportData() error = %v", err)
	}
	if s.Len() != 2 || s.NextID() != 11 {
		t.Errorf("Len() = %d, NextID() = %d, want 2 and 11", s.Len(), s.NextID())
	}
}

func TestMissingCapabilities(t *testing.T) {
	s := newLoaded(t, backend.NewMemoryBackend())

	if _, err := s.ExportData(ctx); !errors.Is(err, ErrNoDownloader) {
		t.Errorf("ExportData() error = %v, want %v", err, ErrNoDownloader)
	}
	if err := s.ImportData(ctx); !errors.Is(err, ErrNoFilePicker) {
		t.Errorf("ImportData() error = %v, want %v", err, ErrNoFilePicker)
	}
}

func TestConcurrentAdds(t *testing.T) {
	s := newLoaded(t, backend.NewMemoryBackend())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddItem(ctx, textEntry("x"))
		}()
	}
	wg.Wait()

	seen := make(map[int]bool)
	for _, e := range s.Items() {
		if seen[e.ID] {
			t.Fatalf("duplicate id %d", e.ID)
		}
		seen[e.ID] = true
	}
	if len(seen) != 50 || s.NextID() != 51 {
		t.Errorf("unique ids = %d, NextID() = %d", len(seen), s.NextID())
	}
}

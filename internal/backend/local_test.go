package backend

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mindmorass/infinity-clipboard/internal/storage"
)

func newLocal(t *testing.T) *LocalBackend {
	t.Helper()
	b := NewLocalBackend(t.TempDir())
	if err := b.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return b
}

func TestLocalBackend(t *testing.T) {
	exerciseBackend(t, newLocal(t))
}

func TestLocalBackendWritesRecordFiles(t *testing.T) {
	b := newLocal(t)
	if err := b.Write(context.Background(), "infinityClipboardNextId", []byte("5")); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(b.GetLocation(), DirName, "infinityClipboardNextId"+RecordExt)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("record file missing: %v", err)
	}
	rec, err := storage.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if rec.Key != "infinityClipboardNextId" || string(rec.Value) != "5" {
		t.Errorf("record = %+v", rec)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != FilePermissions {
		t.Errorf("permissions = %o, want %o", perm, FilePermissions)
	}

	if _, err := os.Stat(filepath.Join(b.GetLocation(), DirName, LockFile)); !os.IsNotExist(err) {
		t.Error("lock file should be released after write")
	}
}

func TestLocalBackendCorruptRecord(t *testing.T) {
	b := newLocal(t)
	ctx := context.Background()

	if err := b.Write(ctx, "k", []byte("value")); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(b.GetLocation(), DirName, "k"+RecordExt)
	raw, _ := os.ReadFile(path)
	raw[len(raw)-1] ^= 0xff
	if err := os.WriteFile(path, raw, FilePermissions); err != nil {
		t.Fatal(err)
	}

	if _, err := b.Read(ctx, "k"); !errors.Is(err, storage.ErrChecksumMismatch) {
		t.Errorf("Read() error = %v, want %v", err, storage.ErrChecksumMismatch)
	}
}

func TestLocalBackendNotConfigured(t *testing.T) {
	b := NewLocalBackend("")
	ctx := context.Background()

	if err := b.Init(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Init() error = %v, want %v", err, ErrNotConfigured)
	}
	if err := b.Write(ctx, "k", nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Write() error = %v, want %v", err, ErrNotConfigured)
	}
	if _, err := b.Read(ctx, "k"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Read() error = %v, want %v", err, ErrNotConfigured)
	}
}

func TestLocalBackendInitMissingLocation(t *testing.T) {
	b := NewLocalBackend(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := b.Init(context.Background()); err == nil {
		t.Error("Init() should fail for a missing location")
	}
}

func TestLocalBackendSetLocation(t *testing.T) {
	b := NewLocalBackend("")

	if err := b.SetLocation("relative/path"); err == nil {
		t.Error("SetLocation() should reject relative paths")
	}

	dir := t.TempDir()
	if err := b.SetLocation(dir + "/"); err != nil {
		t.Fatalf("SetLocation() error = %v", err)
	}
	if b.GetLocation() != filepath.Clean(dir) {
		t.Errorf("GetLocation() = %q, want %q", b.GetLocation(), filepath.Clean(dir))
	}

	if err := b.SetLocation(""); err != nil || b.GetLocation() != "" {
		t.Errorf("SetLocation(\"\") = %v, location %q", err, b.GetLocation())
	}
}

func writeLock(t *testing.T, b *LocalBackend, info LockInfo) {
	t.Helper()
	data, err := json.Marshal(info)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b.lockPath(), data, FilePermissions); err != nil {
		t.Fatal(err)
	}
}

func TestLocalBackendLockHeldByOther(t *testing.T) {
	b := newLocal(t)
	writeLock(t, b, LockInfo{
		Holder:    "other-host",
		PID:       1,
		Instance:  "someone-else",
		ExpiresAt: time.Now().Add(time.Minute),
	})
	b.lockWait = 100 * time.Millisecond

	if err := b.Write(context.Background(), "k", []byte("v")); !errors.Is(err, ErrLocked) {
		t.Errorf("Write() error = %v, want %v", err, ErrLocked)
	}
}

func TestLocalBackendWaitsForReleasedLock(t *testing.T) {
	b := newLocal(t)
	writeLock(t, b, LockInfo{
		Holder:    "other-host",
		PID:       1,
		Instance:  "someone-else",
		ExpiresAt: time.Now().Add(time.Minute),
	})

	go func() {
		time.Sleep(120 * time.Millisecond)
		os.Remove(b.lockPath())
	}()

	if err := b.Write(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Write() error = %v, want lock acquired once released", err)
	}
	got, err := b.Read(context.Background(), "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Read() = %q, %v", got, err)
	}
}

func TestLocalBackendLockWaitHonorsContext(t *testing.T) {
	b := newLocal(t)
	writeLock(t, b, LockInfo{
		Holder:    "other-host",
		PID:       1,
		Instance:  "someone-else",
		ExpiresAt: time.Now().Add(time.Minute),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Write(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Errorf("Write() error = %v, want %v", err, context.Canceled)
	}
}

func TestLocalBackendExpiredLockTakenOver(t *testing.T) {
	b := newLocal(t)
	writeLock(t, b, LockInfo{
		Holder:    "other-host",
		PID:       1,
		Instance:  "someone-else",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	if err := b.Write(context.Background(), "k", []byte("v")); err != nil {
		t.Errorf("Write() error = %v, want expired lock taken over", err)
	}
}

func TestLocalBackendCorruptLockReplaced(t *testing.T) {
	b := newLocal(t)
	if err := os.WriteFile(b.lockPath(), []byte("{not json"), FilePermissions); err != nil {
		t.Fatal(err)
	}

	if err := b.Write(context.Background(), "k", []byte("v")); err != nil {
		t.Errorf("Write() error = %v, want corrupt lock replaced", err)
	}
}

func TestLocalBackendInitCleansStaleLock(t *testing.T) {
	b := newLocal(t)
	writeLock(t, b, LockInfo{Instance: "x", ExpiresAt: time.Now().Add(-time.Second)})

	if err := b.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(b.lockPath()); !os.IsNotExist(err) {
		t.Error("stale lock should be removed by Init")
	}
}

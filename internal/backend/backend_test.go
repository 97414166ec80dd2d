package backend

import (
	"context"
	"errors"
	"testing"
)

// exerciseBackend runs the shared read/write contract against an initialized backend
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if _, err := b.Read(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read(missing) error = %v, want %v", err, ErrNotFound)
	}
	if b.Exists(ctx, "missing") {
		t.Error("Exists(missing) = true")
	}

	if err := b.Write(ctx, "infinityClipboardData", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := b.Write(ctx, "infinityClipboardNextId", []byte("2")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := b.Read(ctx, "infinityClipboardData")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != `[{"id":1}]` {
		t.Errorf("Read() = %q", got)
	}
	if !b.Exists(ctx, "infinityClipboardData") {
		t.Error("Exists() = false after Write")
	}

	if err := b.Write(ctx, "infinityClipboardNextId", []byte("3")); err != nil {
		t.Fatalf("overwrite error = %v", err)
	}
	got, err = b.Read(ctx, "infinityClipboardNextId")
	if err != nil || string(got) != "3" {
		t.Errorf("Read() after overwrite = %q, %v", got, err)
	}

	if err := b.Write(ctx, "../escape", []byte("x")); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Write(../escape) error = %v, want %v", err, ErrInvalidKey)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"infinityClipboardData", false},
		{"a.b-c_d", false},
		{"", true},
		{".", true},
		{"..", true},
		{"a/b", true},
		{`a\b`, true},
		{"a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		cfg      *Config
		wantType BackendType
		wantErr  bool
	}{
		{nil, BackendLocal, false},
		{&Config{}, BackendLocal, false},
		{&Config{Type: BackendSQLite, Location: "/tmp/x.db"}, BackendSQLite, false},
		{&Config{Type: BackendS3, S3Bucket: "b"}, BackendS3, false},
		{&Config{Type: BackendDropbox, DropboxAppKey: "k"}, BackendDropbox, false},
		{&Config{Type: BackendMemory}, BackendMemory, false},
		{&Config{Type: "ftp"}, "", true},
	}

	for _, tt := range tests {
		b, err := New(tt.cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			continue
		}
		if err == nil && b.Type() != tt.wantType {
			t.Errorf("New(%+v).Type() = %q, want %q", tt.cfg, b.Type(), tt.wantType)
		}
	}
}

func TestParseType(t *testing.T) {
	for _, bt := range Types {
		got, err := ParseType(string(bt))
		if err != nil || got != bt {
			t.Errorf("ParseType(%q) = %q, %v", bt, got, err)
		}
	}
	if _, err := ParseType("floppy"); err == nil {
		t.Error("ParseType(floppy) should fail")
	}
}

func TestMemoryBackend(t *testing.T) {
	b := NewMemoryBackend()
	if err := b.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	exerciseBackend(t, b)
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	data := []byte("abc")
	if err := b.Write(ctx, "k", data); err != nil {
		t.Fatal(err)
	}
	data[0] = 'z'

	got, _ := b.Read(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value changed through caller slice: %q", got)
	}
	got[1] = 'z'
	again, _ := b.Read(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value changed through returned slice: %q", again)
	}
}

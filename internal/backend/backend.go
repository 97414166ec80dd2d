package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// BackendType identifies the type of storage backend
type BackendType string

const (
	BackendLocal   BackendType = "local"
	BackendSQLite  BackendType = "sqlite"
	BackendS3      BackendType = "s3"
	BackendDropbox BackendType = "dropbox"
	BackendMemory  BackendType = "memory"
)

// Types lists every backend type New accepts
var Types = []BackendType{BackendLocal, BackendSQLite, BackendS3, BackendDropbox, BackendMemory}

// Common errors
var (
	ErrNotConfigured  = errors.New("backend not configured")
	ErrNotFound       = errors.New("key not found")
	ErrLocked         = errors.New("resource is locked by another process")
	ErrConflict       = errors.New("write conflict detected")
	ErrInvalidKey     = errors.New("invalid key")
	ErrSecretNotFound = errors.New("no stored credentials")
)

// Backend is a string-keyed value store. Values are opaque bytes; a key
// that was never written reads as ErrNotFound.
type Backend interface {
	// Read returns the value stored under key
	Read(ctx context.Context, key string) ([]byte, error)

	// Write replaces the value stored under key
	Write(ctx context.Context, key string, data []byte) error

	// Exists returns true if a value is stored under key
	Exists(ctx context.Context, key string) bool

	// Init initializes the backend (creates directories, validates credentials, etc.)
	Init(ctx context.Context) error

	// Close releases any resources held by the backend
	Close() error

	// Type returns the backend type
	Type() BackendType

	// GetLocation returns a human-readable location string
	GetLocation() string

	// SetLocation updates the backend location/path
	SetLocation(location string) error
}

// Config holds configuration for creating backends
type Config struct {
	Type     BackendType
	Location string // For local: directory; for sqlite: database file

	// S3-specific
	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string

	// Dropbox-specific
	DropboxAppKey    string
	DropboxAppSecret string
}

// ValidateKey rejects keys that cannot be used as a file or object name
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// recordName returns the object/file name used for key
func recordName(key string) string {
	return key + RecordExt
}

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mindmorass/infinity-clipboard/internal/logger"
	"github.com/mindmorass/infinity-clipboard/internal/storage"
)

const (
	// DirName is the hidden directory holding the records
	DirName = ".infinity-clipboard"

	// RecordExt is the file extension of a stored record
	RecordExt = ".rec"

	// LockFile is the filename for the write lock
	LockFile = "store.lock"

	// LockTimeout is how long a lock is valid
	LockTimeout = 10 * time.Second

	// LockWait is how long a write waits for another holder's lock
	LockWait = 2 * time.Second

	lockRetryInterval = 50 * time.Millisecond

	// FilePermissions for record files
	FilePermissions = 0600

	// DirPermissions for the record directory
	DirPermissions = 0700
)

// instanceID distinguishes lock holders that share a hostname and PID
// namespace, e.g. two containers.
var instanceID = uuid.NewString()

// LockInfo represents lock file contents
type LockInfo struct {
	Holder     string    `json:"holder"`
	PID        int       `json:"pid"`
	Instance   string    `json:"instance"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// LocalBackend stores one record file per key under <base>/.infinity-clipboard
type LocalBackend struct {
	basePath string
	lockWait time.Duration
}

// NewLocalBackend creates a new local filesystem backend
func NewLocalBackend(basePath string) *LocalBackend {
	return &LocalBackend{basePath: basePath, lockWait: LockWait}
}

// Type returns the backend type
func (b *LocalBackend) Type() BackendType {
	return BackendLocal
}

// GetLocation returns the current base path
func (b *LocalBackend) GetLocation() string {
	return b.basePath
}

// SetLocation updates the base path with validation
func (b *LocalBackend) SetLocation(location string) error {
	if location == "" {
		b.basePath = ""
		return nil
	}

	cleanPath := filepath.Clean(location)

	if !filepath.IsAbs(cleanPath) {
		return fmt.Errorf("path must be absolute: %s", location)
	}

	if cleanPath != location && filepath.Base(cleanPath) == ".." {
		return fmt.Errorf("invalid path: %s", location)
	}

	b.basePath = cleanPath
	return nil
}

// dataDir returns the full path to the record directory
func (b *LocalBackend) dataDir() string {
	return filepath.Join(b.basePath, DirName)
}

func (b *LocalBackend) recordPath(key string) string {
	return filepath.Join(b.dataDir(), recordName(key))
}

func (b *LocalBackend) lockPath() string {
	return filepath.Join(b.dataDir(), LockFile)
}

// Init creates the record directory if it doesn't exist
func (b *LocalBackend) Init(ctx context.Context) error {
	if b.basePath == "" {
		return ErrNotConfigured
	}

	if _, err := os.Stat(b.basePath); os.IsNotExist(err) {
		return fmt.Errorf("location does not exist: %s", b.basePath)
	}

	if err := os.MkdirAll(b.dataDir(), DirPermissions); err != nil {
		return err
	}

	b.cleanStaleLocks()

	return nil
}

// Close releases resources (no-op for local backend)
func (b *LocalBackend) Close() error {
	return nil
}

// Write stores data under key, replacing the record atomically
func (b *LocalBackend) Write(ctx context.Context, key string, data []byte) error {
	if b.basePath == "" {
		return ErrNotConfigured
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := os.MkdirAll(b.dataDir(), DirPermissions); err != nil {
		return err
	}

	if err := b.acquireLock(ctx); err != nil {
		return err
	}
	defer b.releaseLock()

	encoded, err := storage.Encode(storage.NewRecord(key, data))
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	path := b.recordPath(key)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, encoded, FilePermissions); err != nil {
		return fmt.Errorf("write temp file failed: %w", err)
	}

	// Rename is atomic on POSIX
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename failed: %w", err)
	}

	return nil
}

// Read retrieves the value stored under key
func (b *LocalBackend) Read(ctx context.Context, key string) ([]byte, error) {
	if b.basePath == "" {
		return nil, ErrNotConfigured
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.recordPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read failed: %w", err)
	}

	value, err := storage.DecodeValue(key, data)
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	return value, nil
}

// Exists returns true if a record file exists for key
func (b *LocalBackend) Exists(ctx context.Context, key string) bool {
	if b.basePath == "" || ValidateKey(key) != nil {
		return false
	}
	_, err := os.Stat(b.recordPath(key))
	return err == nil
}

// acquireLock takes the write lock, polling while another instance holds
// it. It gives up with ErrLocked after lockWait, or when ctx is done.
func (b *LocalBackend) acquireLock(ctx context.Context) error {
	deadline := time.Now().Add(b.lockWait)
	for {
		err := b.tryLock()
		if !errors.Is(err, ErrLocked) || !time.Now().Before(deadline) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// tryLock attempts to acquire the write lock once using atomic operations
func (b *LocalBackend) tryLock() error {
	lockPath := b.lockPath()
	hostname, _ := os.Hostname()

	lockInfo := LockInfo{
		Holder:     hostname,
		PID:        os.Getpid(),
		Instance:   instanceID,
		AcquiredAt: time.Now(),
		ExpiresAt:  time.Now().Add(LockTimeout),
	}

	data, err := json.Marshal(lockInfo)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, FilePermissions)
	if err == nil {
		defer f.Close()
		_, err = f.Write(data)
		return err
	}

	if !os.IsExist(err) {
		return err
	}

	existingData, readErr := os.ReadFile(lockPath)
	if readErr != nil {
		os.Remove(lockPath)
		return b.acquireLockOnce(data)
	}

	var existingLock LockInfo
	if json.Unmarshal(existingData, &existingLock) != nil {
		logger.Warn().Str("path", lockPath).Msg("removing corrupted lock file")
		os.Remove(lockPath)
		return b.acquireLockOnce(data)
	}

	if existingLock.Instance == instanceID {
		return os.WriteFile(lockPath, data, FilePermissions)
	}

	if time.Now().After(existingLock.ExpiresAt) {
		logger.Debug().Str("holder", existingLock.Holder).Int("pid", existingLock.PID).Msg("taking over expired lock")
		os.Remove(lockPath)
		return b.acquireLockOnce(data)
	}

	return ErrLocked
}

// acquireLockOnce attempts to create lock file once (helper to avoid infinite recursion)
func (b *LocalBackend) acquireLockOnce(data []byte) error {
	f, err := os.OpenFile(b.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, FilePermissions)
	if err != nil {
		if os.IsExist(err) {
			return ErrLocked
		}
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

func (b *LocalBackend) releaseLock() {
	if err := os.Remove(b.lockPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug().Err(err).Msg("release lock failed")
	}
}

// cleanStaleLocks removes expired lock files
func (b *LocalBackend) cleanStaleLocks() {
	lockPath := b.lockPath()
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return
	}

	var lockInfo LockInfo
	if json.Unmarshal(data, &lockInfo) != nil {
		return
	}

	if time.Now().After(lockInfo.ExpiresAt) {
		os.Remove(lockPath)
	}
}

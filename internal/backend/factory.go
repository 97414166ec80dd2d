package backend

import (
	"fmt"
)

// New creates a new backend based on the configuration
func New(cfg *Config) (Backend, error) {
	if cfg == nil {
		cfg = &Config{Type: BackendLocal}
	}

	switch cfg.Type {
	case BackendLocal, "":
		b := NewLocalBackend(cfg.Location)
		return b, nil

	case BackendSQLite:
		b := NewSQLiteBackend(cfg.Location)
		return b, nil

	case BackendS3:
		b := NewS3Backend(cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
		b.SetEndpoint(cfg.S3Endpoint)
		return b, nil

	case BackendDropbox:
		b := NewDropboxBackend(cfg.DropboxAppKey, cfg.DropboxAppSecret)
		return b, nil

	case BackendMemory:
		return NewMemoryBackend(), nil

	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Type)
	}
}

// ParseType returns the BackendType named by s
func ParseType(s string) (BackendType, error) {
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown backend type: %s", s)
}

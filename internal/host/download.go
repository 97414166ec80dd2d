package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FilePermissions for downloaded files
	FilePermissions = 0644

	// DirPermissions for the download directory
	DirPermissions = 0755
)

// DirDownloader writes downloads into a directory
type DirDownloader struct {
	dir string
}

// NewDirDownloader creates a downloader writing into dir. An empty dir
// means the user's Downloads folder.
func NewDirDownloader(dir string) *DirDownloader {
	if dir == "" {
		dir = DefaultDownloadDir()
	}
	return &DirDownloader{dir: dir}
}

// Dir returns the target directory
func (d *DirDownloader) Dir() string {
	return d.dir
}

// Save writes data to dir/name atomically. An existing file of the same
// name is replaced.
func (d *DirDownloader) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid file name: %q", name)
	}

	if err := os.MkdirAll(d.dir, DirPermissions); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	path := filepath.Join(d.dir, name)
	tempPath := path + ".part"
	if err := os.WriteFile(tempPath, data, FilePermissions); err != nil {
		return "", fmt.Errorf("write temp file failed: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("rename failed: %w", err)
	}

	return path, nil
}

// DefaultDownloadDir returns ~/Downloads, or the working directory if the
// home directory is unknown.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

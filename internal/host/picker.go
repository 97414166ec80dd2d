package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathPicker "picks" a path chosen up front, e.g. from a command line
// argument. An empty path behaves like a cancelled dialog.
type PathPicker struct {
	Path string
}

// PickFile implements FilePicker
func (p PathPicker) PickFile(ctx context.Context, accept string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Path == "" {
		return "", ErrCancelled
	}

	info, err := os.Stat(p.Path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", p.Path)
	}
	if accept != "" && !strings.EqualFold(filepath.Ext(p.Path), accept) {
		return "", fmt.Errorf("expected a %s file: %s", accept, p.Path)
	}
	return p.Path, nil
}

// Package host provides the desktop side of the capabilities a clipboard
// history needs from its environment: saving downloads, choosing a file to
// open, and showing the user a blocking alert.
package host

import (
	"context"
	"errors"
)

var (
	ErrCancelled   = errors.New("file selection cancelled")
	ErrUnsupported = errors.New("not supported on this platform")
)

// Downloader saves a named file for the user and returns where it went
type Downloader interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// FilePicker asks the user for a file to open. accept is a file extension
// filter such as ".json". ErrCancelled means the user dismissed the prompt.
type FilePicker interface {
	PickFile(ctx context.Context, accept string) (string, error)
}

// Alerter shows a message the user has to see
type Alerter interface {
	Alert(message string)
}

//go:build !darwin

package host

import "context"

// NativePicker has no implementation outside macOS yet
type NativePicker struct{}

// PickFile implements FilePicker
func (NativePicker) PickFile(ctx context.Context, accept string) (string, error) {
	return "", ErrUnsupported
}

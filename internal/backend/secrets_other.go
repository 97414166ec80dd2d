//go:build !darwin

package backend

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// secretsDir holds token files on platforms without a keychain
var secretsDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName, "secrets"), nil
}

func secretPath(service, account string) (string, error) {
	dir, err := secretsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, service+"-"+account+".json"), nil
}

// loadSecret reads the token file for service/account
func loadSecret(service, account string) ([]byte, error) {
	path, err := secretPath(service, account)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", ErrSecretNotFound, service, account)
	}
	return data, err
}

// saveSecret writes the token file readable only by the current user
func saveSecret(service, account string, data []byte) error {
	path, err := secretPath(service, account)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), DirPermissions); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, FilePermissions); err != nil {
		return fmt.Errorf("write token file failed: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename failed: %w", err)
	}
	return nil
}

// deleteSecret removes the token file, if any
func deleteSecret(service, account string) error {
	path, err := secretPath(service, account)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

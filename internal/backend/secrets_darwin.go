//go:build darwin

package backend

import (
	"errors"
	"fmt"

	"github.com/keybase/go-keychain"
)

const secretLabel = "Infinity Clipboard"

// loadSecret retrieves data from the login keychain
func loadSecret(service, account string) ([]byte, error) {
	data, err := keychain.GetGenericPassword(service, account, "", "")
	if err != nil {
		return nil, fmt.Errorf("keychain query failed: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrSecretNotFound, service, account)
	}
	return data, nil
}

// saveSecret replaces the keychain item for service/account
func saveSecret(service, account string, data []byte) error {
	if err := deleteSecret(service, account); err != nil {
		return err
	}

	item := keychain.NewGenericPassword(service, account, secretLabel, data, "")
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlocked)

	if err := keychain.AddItem(item); err != nil {
		return fmt.Errorf("keychain save failed: %w", err)
	}
	return nil
}

// deleteSecret removes the keychain item, if any
func deleteSecret(service, account string) error {
	err := keychain.DeleteGenericPasswordItem(service, account)
	if err != nil && !errors.Is(err, keychain.ErrorItemNotFound) {
		return fmt.Errorf("keychain delete failed: %w", err)
	}
	return nil
}

package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "mailagent"

// ErrNotFound is returned by Get when no secret is stored under the key.
var ErrNotFound = errors.New("credential not found")

// openRing is replaced in tests with an in-memory keyring.
var openRing = openSystemKeyring

func openSystemKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailagent/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailagent-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get returns the secret stored under key.
func Get(key string) (string, error) {
	ring, err := openRing()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("reading credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores value under key, replacing any previous value.
func Set(key, value string) error {
	ring, err := openRing()
	if err != nil {
		return err
	}

	if err := ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       "mailagent " + key,
		Description: "mail agent credential",
	}); err != nil {
		return fmt.Errorf("storing credential %q: %w", key, err)
	}
	return nil
}

// Delete removes the secret under key. Deleting a missing key is not an error.
func Delete(key string) error {
	ring, err := openRing()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

package credstore

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the service name credentials are filed under
const DefaultKeyringService = "btg-cli"

// KeyringStore keeps credentials in the operating system's secret store
type KeyringStore struct {
	service string
}

var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a store backed by the OS keyring
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

// Get returns the secret stored under key
func (s *KeyringStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", storageError("get", key, err)
	}

	value, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", storageError("get", key, err)
	}
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores value under key
func (s *KeyringStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return storageError("set", key, err)
	}

	if err := keyring.Set(s.service, key, value); err != nil {
		return storageError("set", key, err)
	}
	return nil
}

// Delete removes key from the keyring
func (s *KeyringStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return storageError("delete", key, err)
	}

	if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return storageError("delete", key, err)
	}
	return nil
}

// Package credstore provides durable key-value storage for the session
// credentials of the btg CLI.
// It has no business logic: callers decide what a missing or partial
// pair of tokens means.
package credstore

import (
	"context"
	"errors"
	"fmt"
)

const (
	// KeyAccessToken is the key under which the access token is stored
	KeyAccessToken = "accessToken"

	// KeyRefreshToken is the key under which the refresh token is stored
	KeyRefreshToken = "refreshToken"
)

// ErrNotFound is returned by Get when the key has no stored value
var ErrNotFound = errors.New("credential not found")

// Store is the persistence contract for token strings.
// Only per-key atomicity is guaranteed; there is no joint update of
// several keys.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// StorageError reports a failure of the underlying storage medium
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("credential store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}

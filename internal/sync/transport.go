package sync

import (
	"context"
	"errors"
)

// ErrRemoteNotFound is returned by Fetch when the remote has no such snapshot
var ErrRemoteNotFound = errors.New("remote snapshot not found")

// Transport moves serialized server containers to and from the remote.
// Implementations do not retry.
type Transport interface {
	// Fetch returns the bytes stored under name
	Fetch(ctx context.Context, name string) ([]byte, error)
	// Store replaces the bytes stored under name
	Store(ctx context.Context, name string, data []byte) error
	Close() error
}

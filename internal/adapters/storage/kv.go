// Package storage provides the key-value persistence behind the aggregate
// store: an in-memory map for tests and a SQLite file for deployments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("key not found")
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storage closed")
)

// KV is a namespace-free key-value store of opaque blobs.
type KV interface {
	// Get returns the value of key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes every pair or none of them.
	Set(ctx context.Context, values map[string][]byte) error
	// Clear deletes every key or none of them. Missing keys are ignored.
	Clear(ctx context.Context, keys ...string) error
	Close() error
}

// Open builds the KV selected by backend. path is only used by sqlite.
func Open(ctx context.Context, backend, path string) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return OpenSQLite(ctx, path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

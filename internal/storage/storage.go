package storage

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a key has no value.
	ErrNotFound = errors.New("not found")
	// ErrReadOnly is returned by writes inside a View.
	ErrReadOnly = errors.New("read-only transaction")
)

// KV is a raw key/value pair returned by Scan.
type KV struct {
	Key   []byte
	Value []byte
}

// Tx is a single atomic unit of reads and writes.
type Tx interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	// Scan returns every pair whose key starts with prefix, in ascending key order.
	Scan(prefix []byte) ([]KV, error)
}

// Store runs functions against the persisted hub state.
// Update commits the writes of fn only when fn returns nil.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Package docstore is a small key-document store: JSON documents grouped in
// collections, with get, set (optionally merging), field queries and
// optimistic transactions.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrConflict means a document changed between a transaction's read and
	// its commit. RunTransaction retries on it.
	ErrConflict = errors.New("docstore: document changed since read")

	// ErrReadAfterWrite is returned when a transaction reads a document it
	// already wrote.
	ErrReadAfterWrite = errors.New("docstore: read after write in transaction")
)

// Document is a decoded JSON object.
type Document map[string]any

// Snapshot is a document as read at a point in time. Exists is false for a
// document that has never been written; Data is then nil.
type Snapshot struct {
	Collection string
	ID         string
	Data       Document
	Version    int64
	Exists     bool
}

type setOptions struct {
	merge bool
}

// SetOption tunes Set.
type SetOption func(*setOptions)

// Merge deep-merges the written fields into the stored document instead of
// replacing it. Nested objects merge key by key; any other value, arrays
// included, replaces the stored one.
func Merge() SetOption {
	return func(o *setOptions) {
		o.merge = true
	}
}

func resolveSetOptions(opts []SetOption) setOptions {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store is the document store used by the repositories.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Snapshot, error)
	Set(ctx context.Context, collection, id string, data Document, opts ...SetOption) error
	// Query returns every document of collection whose top-level field
	// equals value, ordered by id.
	Query(ctx context.Context, collection, field string, value any) ([]*Snapshot, error)
	// RunTransaction runs fn and commits its writes atomically. If any
	// document fn read changed before commit, fn is run again.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction is the view fn gets inside RunTransaction. Writes are buffered
// until fn returns nil.
type Transaction interface {
	Get(ctx context.Context, collection, id string) (*Snapshot, error)
	Set(collection, id string, data Document, opts ...SetOption)
}

// Observer receives transaction lifecycle events.
type Observer interface {
	TxAttempt()
	TxConflict()
	TxCommit()
}

type noopObserver struct{}

func (noopObserver) TxAttempt()  {}
func (noopObserver) TxConflict() {}
func (noopObserver) TxCommit()   {}

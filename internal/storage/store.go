package storage

import (
	"context"
	"errors"
	"fmt"
)

// DefaultKey is the key the book document is cached under
const DefaultKey = "booksdata:title:info"

// ErrNotFound is returned when no document exists at a key
var ErrNotFound = errors.New("document not found")

// Kind classifies a store failure
type Kind int

const (
	KindConnection Kind = iota + 1
	KindProtocol
	KindEncode
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	case KindEncode:
		return "encode"
	case KindNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// StoreError is returned by every store operation that fails
type StoreError struct {
	Kind Kind
	Op   string
	Key  string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("store %s %s: %s: %v", e.Op, e.Key, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or 0 if err is not a StoreError
func KindOf(err error) Kind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// DocumentStore reads and writes whole JSON documents by key
type DocumentStore interface {
	// SetDocument replaces the document at key
	SetDocument(ctx context.Context, key string, doc []byte) error

	// GetDocument returns the document at key, or a KindNotFound error
	GetDocument(ctx context.Context, key string) ([]byte, error)

	Close() error
}

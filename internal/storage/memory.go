package storage

import (
	"context"
	"errors"
	"sync"
)

// MemoryStore is an in-process DocumentStore, used for dry runs and tests
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	closed bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

var errClosed = errors.New("store closed")

// SetDocument replaces the document at key
func (m *MemoryStore) SetDocument(ctx context.Context, key string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return &StoreError{Kind: KindConnection, Op: "set", Key: key, Err: errClosed}
	}
	m.docs[key] = append([]byte(nil), doc...)
	return nil
}

// GetDocument returns a copy of the document at key
func (m *MemoryStore) GetDocument(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, &StoreError{Kind: KindConnection, Op: "get", Key: key, Err: errClosed}
	}
	doc, ok := m.docs[key]
	if !ok {
		return nil, &StoreError{Kind: KindNotFound, Op: "get", Key: key, Err: ErrNotFound}
	}
	return append([]byte(nil), doc...), nil
}

// Close marks the store closed
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

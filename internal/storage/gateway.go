package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Backend names
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Options selects and configures a store backend
type Options struct {
	Backend    string
	Redis      RedisOptions
	SQLitePath string
}

// Open connects to the configured backend
func Open(ctx context.Context, opts Options) (DocumentStore, error) {
	switch opts.Backend {
	case "", BackendRedis:
		s, err := NewRedisStore(ctx, opts.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, &StoreError{Kind: KindConnection, Op: "connect", Err: fmt.Errorf("unknown backend %q", opts.Backend)}
	}
}

// Gateway writes the book document under one fixed key and verifies it by
// reading it back on the same connection
type Gateway struct {
	store  DocumentStore
	key    string
	logger *zap.Logger
}

// NewGateway wraps an open store. An empty key selects DefaultKey.
func NewGateway(store DocumentStore, key string, logger *zap.Logger) *Gateway {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{store: store, key: key, logger: logger}
}

// Key returns the key documents are stored under
func (g *Gateway) Key() string {
	return g.key
}

// Store returns the underlying connection for readers
func (g *Gateway) Store() DocumentStore {
	return g.store
}

// Save replaces the document at the gateway key, then reads it back and
// checks it parses to the same content. No retries.
func (g *Gateway) Save(ctx context.Context, doc []byte) error {
	want, err := DocumentDigest(doc)
	if err != nil {
		return &StoreError{Kind: KindEncode, Op: "set", Key: g.key, Err: err}
	}

	if err := g.store.SetDocument(ctx, g.key, doc); err != nil {
		return err
	}
	g.logger.Info("Data stored", zap.String("key", g.key), zap.Int("bytes", len(doc)))

	readback, err := g.store.GetDocument(ctx, g.key)
	if err != nil {
		return err
	}
	got, err := DocumentDigest(readback)
	if err != nil {
		return &StoreError{Kind: KindProtocol, Op: "verify", Key: g.key, Err: err}
	}
	if got != want {
		return &StoreError{Kind: KindProtocol, Op: "verify", Key: g.key, Err: fmt.Errorf("digest mismatch: wrote %s, read %s", want[:12], got[:12])}
	}

	g.logger.Debug("Read-back verified", zap.String("key", g.key), zap.String("digest", got))
	return nil
}

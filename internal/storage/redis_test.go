package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOptionsAddr(t *testing.T) {
	assert.Equal(t, "localhost:6379", RedisOptions{Host: "localhost", Port: 6379}.Addr())
	assert.Equal(t, "[::1]:6380", RedisOptions{Host: "::1", Port: 6380}.Addr())
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	// Grab a free port and release it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := NewRedisStore(ctx, RedisOptions{
		Host:        "127.0.0.1",
		Port:        port,
		Password:    "wrong",
		DialTimeout: time.Second,
	})
	assert.Nil(t, store)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindConnection, se.Kind)
	assert.Equal(t, "connect", se.Op)
}

func TestOpenUnknownBackend(t *testing.T) {
	store, err := Open(context.Background(), Options{Backend: "etcd"})
	assert.Nil(t, store)
	assert.Equal(t, KindConnection, KindOf(err))
}

func TestOpenSQLiteAndMemory(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Options{Backend: BackendSQLite, SQLitePath: t.TempDir() + "/cache.db"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	store, err = Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyRedisError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil reply", redis.Nil, KindNotFound},
		{"wrapped nil reply", fmt.Errorf("get: %w", redis.Nil), KindNotFound},
		{"eof", io.EOF, KindConnection},
		{"closed client", redis.ErrClosed, KindConnection},
		{"deadline", context.DeadlineExceeded, KindConnection},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, KindConnection},
		{"timeout", timeoutErr{}, KindConnection},
		{"noauth", errors.New("NOAUTH Authentication required."), KindConnection},
		{"wrongpass", errors.New("WRONGPASS invalid username-password pair"), KindConnection},
		{"json module missing", errors.New("ERR unknown command 'JSON.SET'"), KindProtocol},
		{"wrong type", errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"), KindProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyRedisError(tt.err))
		})
	}
}

// redisFromEnv connects to the Redis server named by BOOKCACHE_TEST_REDIS_ADDR
// (host:port, JSON module loaded) or skips the test
func redisFromEnv(t *testing.T) *RedisStore {
	addr := os.Getenv("BOOKCACHE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BOOKCACHE_TEST_REDIS_ADDR not set")
	}
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	store, err := NewRedisStore(context.Background(), RedisOptions{
		Host:     host,
		Port:     port,
		Password: os.Getenv("BOOKCACHE_TEST_REDIS_PASSWORD"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisSetAndGet(t *testing.T) {
	store := redisFromEnv(t)
	ctx := context.Background()
	key := "bookcache:test:" + t.Name()
	t.Cleanup(func() { store.client.Del(context.Background(), key) })

	doc := []byte("{\n    \"items\": [\n        {\n            \"title\": \"Café\",\n            \"ratingsCount\": 120\n        }\n    ]\n}")
	require.NoError(t, store.SetDocument(ctx, key, doc))

	got, err := store.GetDocument(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(got))

	want, err := DocumentDigest(doc)
	require.NoError(t, err)
	digest, err := DocumentDigest(got)
	require.NoError(t, err)
	assert.Equal(t, want, digest)

	replacement := []byte(`{"items":[]}`)
	require.NoError(t, store.SetDocument(ctx, key, replacement))
	got, err = store.GetDocument(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, string(replacement), string(got), "JSON.SET at the root replaces the document")
}

func TestRedisGetMissing(t *testing.T) {
	store := redisFromEnv(t)

	got, err := store.GetDocument(context.Background(), "bookcache:test:missing:"+t.Name())
	assert.Nil(t, got)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRedisGatewaySave(t *testing.T) {
	store := redisFromEnv(t)
	key := "bookcache:test:" + t.Name()
	t.Cleanup(func() { store.client.Del(context.Background(), key) })

	gateway := NewGateway(store, key, nil)
	require.NoError(t, gateway.Save(context.Background(), []byte(`{"items":[{"title":"A","averageRating":4.5}]}`)))
}

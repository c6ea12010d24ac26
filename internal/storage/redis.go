package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// rootPath addresses the whole document in JSON.SET
const rootPath = "."

// RedisOptions holds the connection parameters of a Redis server with the
// JSON module loaded
type RedisOptions struct {
	Host        string
	Port        int
	Password    string
	DB          int
	DialTimeout time.Duration
}

// Addr returns host:port
func (o RedisOptions) Addr() string {
	return net.JoinHostPort(o.Host, fmt.Sprintf("%d", o.Port))
}

// RedisStore keeps documents as RedisJSON values
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore opens a connection pool and pings the server
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr(),
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
		MaxRetries:  -1,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &StoreError{Kind: classifyRedisError(err), Op: "connect", Err: err}
	}

	return &RedisStore{client: client}, nil
}

// SetDocument replaces the document at key with JSON.SET key . doc
func (s *RedisStore) SetDocument(ctx context.Context, key string, doc []byte) error {
	if err := s.client.JSONSet(ctx, key, rootPath, string(doc)).Err(); err != nil {
		return &StoreError{Kind: classifyRedisError(err), Op: "set", Key: key, Err: err}
	}
	return nil
}

// GetDocument reads the document at key with JSON.GET key
func (s *RedisStore) GetDocument(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.JSONGet(ctx, key).Result()
	if err != nil {
		return nil, &StoreError{Kind: classifyRedisError(err), Op: "get", Key: key, Err: err}
	}
	if val == "" {
		return nil, &StoreError{Kind: KindNotFound, Op: "get", Key: key, Err: ErrNotFound}
	}
	return []byte(val), nil
}

// Close releases the connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// classifyRedisError maps a go-redis error to a store failure kind
func classifyRedisError(err error) Kind {
	if errors.Is(err, redis.Nil) {
		return KindNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindConnection
	}
	if errors.Is(err, io.EOF) || errors.Is(err, redis.ErrClosed) {
		return KindConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindConnection
	}

	msg := err.Error()
	for _, prefix := range []string{"NOAUTH", "WRONGPASS", "ERR invalid password", "ERR AUTH"} {
		if strings.HasPrefix(msg, prefix) {
			return KindConnection
		}
	}
	return KindProtocol
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps documents in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates and initializes the SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, &StoreError{Kind: KindConnection, Op: "connect", Err: err}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, &StoreError{Kind: KindConnection, Op: "migrate", Err: err}
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		digest TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SetDocument inserts or replaces the document at key
func (s *SQLiteStore) SetDocument(ctx context.Context, key string, doc []byte) error {
	digest, err := DocumentDigest(doc)
	if err != nil {
		return &StoreError{Kind: KindEncode, Op: "set", Key: key, Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (key, body, digest, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			body = excluded.body,
			digest = excluded.digest,
			updated_at = excluded.updated_at`,
		key, string(doc), digest, time.Now().UTC(),
	)
	if err != nil {
		return &StoreError{Kind: KindProtocol, Op: "set", Key: key, Err: err}
	}
	return nil
}

// GetDocument retrieves the document stored at key and checks it against
// the digest recorded when it was written
func (s *SQLiteStore) GetDocument(ctx context.Context, key string) ([]byte, error) {
	var body, digest string
	err := s.db.QueryRowContext(ctx, `SELECT body, digest FROM documents WHERE key = ?`, key).Scan(&body, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &StoreError{Kind: KindNotFound, Op: "get", Key: key, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &StoreError{Kind: KindProtocol, Op: "get", Key: key, Err: err}
	}

	got, err := DocumentDigest([]byte(body))
	if err != nil {
		return nil, &StoreError{Kind: KindProtocol, Op: "get", Key: key, Err: err}
	}
	if got != digest {
		return nil, &StoreError{Kind: KindProtocol, Op: "get", Key: key, Err: fmt.Errorf("digest mismatch: recorded %s, body %s", short(digest), short(got))}
	}
	return []byte(body), nil
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

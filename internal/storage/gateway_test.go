package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "{\n    \"items\": [\n        {\n            \"title\": \"The Art of Computer Programming\",\n            \"averageRating\": 4.5\n        }\n    ]\n}"

// fakeStore lets tests inject failures and alter what is read back
type fakeStore struct {
	*MemoryStore
	setErr   error
	getErr   error
	readback []byte
	sets     int
}

func (f *fakeStore) SetDocument(ctx context.Context, key string, doc []byte) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.SetDocument(ctx, key, doc)
}

func (f *fakeStore) GetDocument(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.readback != nil {
		return f.readback, nil
	}
	return f.MemoryStore.GetDocument(ctx, key)
}

func TestGatewayDefaults(t *testing.T) {
	g := NewGateway(NewMemoryStore(), "", nil)
	assert.Equal(t, DefaultKey, g.Key())
	assert.NotNil(t, g.Store())
}

func TestGatewaySaveAndReadBack(t *testing.T) {
	store := NewMemoryStore()
	g := NewGateway(store, "", nil)

	require.NoError(t, g.Save(context.Background(), []byte(sampleDoc)))

	got, err := store.GetDocument(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, string(got))
}

func TestGatewayAcceptsReformattedReadBack(t *testing.T) {
	// RedisJSON returns the document compacted
	store := &fakeStore{
		MemoryStore: NewMemoryStore(),
		readback:    []byte(`{"items":[{"averageRating":4.5,"title":"The Art of Computer Programming"}]}`),
	}
	g := NewGateway(store, "", nil)

	assert.NoError(t, g.Save(context.Background(), []byte(sampleDoc)))
}

func TestGatewayDetectsMismatch(t *testing.T) {
	store := &fakeStore{
		MemoryStore: NewMemoryStore(),
		readback:    []byte(`{"items":[]}`),
	}
	g := NewGateway(store, "", nil)

	err := g.Save(context.Background(), []byte(sampleDoc))
	assert.Equal(t, KindProtocol, KindOf(err))
	assert.Contains(t, err.Error(), "digest mismatch")
}

func TestGatewayRejectsInvalidDocument(t *testing.T) {
	store := &fakeStore{MemoryStore: NewMemoryStore()}
	g := NewGateway(store, "", nil)

	err := g.Save(context.Background(), []byte(`{"items": [`))
	assert.Equal(t, KindEncode, KindOf(err))
	assert.Equal(t, 0, store.sets, "nothing is written")
}

func TestGatewayWriteFailureIsNotRetried(t *testing.T) {
	store := &fakeStore{
		MemoryStore: NewMemoryStore(),
		setErr:      &StoreError{Kind: KindConnection, Op: "set", Key: DefaultKey, Err: errors.New("connection refused")},
	}
	g := NewGateway(store, "", nil)

	err := g.Save(context.Background(), []byte(sampleDoc))
	assert.Equal(t, KindConnection, KindOf(err))
	assert.Equal(t, 1, store.sets)
}

func TestGatewayReadBackFailure(t *testing.T) {
	store := &fakeStore{
		MemoryStore: NewMemoryStore(),
		getErr:      &StoreError{Kind: KindNotFound, Op: "get", Key: DefaultKey, Err: ErrNotFound},
	}
	g := NewGateway(store, "", nil)

	err := g.Save(context.Background(), []byte(sampleDoc))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestMemoryStoreClosed(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	err := store.SetDocument(context.Background(), DefaultKey, []byte(`{}`))
	assert.Equal(t, KindConnection, KindOf(err))
}

func TestDocumentDigest(t *testing.T) {
	a, err := DocumentDigest([]byte(`{"b": 1, "a": [1, 2]}`))
	require.NoError(t, err)
	b, err := DocumentDigest([]byte("{\n    \"a\": [1,2],\n    \"b\": 1\n}"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := DocumentDigest([]byte(`{"a": [1, 2], "b": 2}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = DocumentDigest([]byte(`nope`))
	assert.Error(t, err)
}

func TestStoreErrorMessage(t *testing.T) {
	err := &StoreError{Kind: KindProtocol, Op: "set", Key: "k", Err: errors.New("boom")}
	assert.Equal(t, "store set k: protocol: boom", err.Error())

	err = &StoreError{Kind: KindConnection, Op: "connect", Err: errors.New("refused")}
	assert.Equal(t, "store connect: connection: refused", err.Error())
}

package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore()

	payload := []byte("attachment payload")
	url, err := store.Put(context.Background(), "attachments/a.txt", bytes.NewReader(payload), int64(len(payload)), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "/files/attachments/a.txt", url)

	data, contentType, err := store.Get(context.Background(), "attachments/a.txt")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "text/plain", contentType)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, _, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Put(ctx, "k", bytes.NewReader([]byte("v1")), 2, "text/plain")
	require.NoError(t, err)
	_, err = store.Put(ctx, "k", bytes.NewReader([]byte("v2")), 2, "text/plain")
	require.NoError(t, err)

	data, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

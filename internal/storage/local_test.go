package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "backups/a.json", []byte(`{"a":1}`), "application/json"))
	require.NoError(t, store.Put(ctx, "backups/b.json", []byte(`{"b":2}`), "application/json"))
	require.NoError(t, store.Put(ctx, "other/c.txt", []byte("c"), "text/plain"))

	data, err := store.Get(ctx, "backups/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	objects, err := store.List(ctx, "backups/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "backups/a.json", objects[0].Key)
	assert.Equal(t, int64(7), objects[0].Size)

	require.NoError(t, store.Delete(ctx, "backups/a.json"))
	_, err = store.Get(ctx, "backups/a.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStore_KeysStayInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "../../escape.json", []byte("x"), "application/json"))
	objects, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "escape.json", objects[0].Key)

	assert.Error(t, store.Put(ctx, "", []byte("x"), ""))
}

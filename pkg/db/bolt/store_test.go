package bolt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kore-ledger/korenode/pkg/db"
	"github.com/kore-ledger/korenode/pkg/db/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) db.Manager {
		store, err := Open(filepath.Join(t.TempDir(), "korenode.bolt"))
		require.NoError(t, err)
		return store
	})
}

func TestCollectionNameValidation(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "korenode.bolt"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.CreateCollection("")
	assert.Error(t, err)

	_, err = store.CreateCollection("with\x00delimiter")
	assert.Error(t, err)
}

// Reverse iteration with a prefix that sorts after every other key in the
// bucket: the seek past the range finds nothing and has to fall back to the
// bucket's last key.
func TestReverseAtEndOfBucket(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "korenode.bolt"))
	require.NoError(t, err)
	defer store.Close()

	c, err := store.CreateCollection("event")
	require.NoError(t, err)

	require.NoError(t, c.Put("aa", []byte("A")))
	require.NoError(t, c.Put("zx", []byte("X")))
	require.NoError(t, c.Put("zy", []byte("Y")))

	it, err := c.Iter(true, "z")
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, it.Key())
	}
	assert.Equal(t, []string{"zy", "zx"}, keys)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "korenode.bolt")

	store, err := Open(path)
	require.NoError(t, err)
	c, err := store.CreateCollection("subject")
	require.NoError(t, err)
	require.NoError(t, c.Put("key", []byte("value")))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	c, err = store.CreateCollection("subject")
	require.NoError(t, err)
	got, err := c.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

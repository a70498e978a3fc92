package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kore-ledger/korenode/pkg/db"
	"github.com/kore-ledger/korenode/pkg/db/storetest"
)

func TestConformanceOnFile(t *testing.T) {
	storetest.Run(t, func(t *testing.T) db.Manager {
		store, err := Open(filepath.Join(t.TempDir(), "korenode.db"))
		require.NoError(t, err)
		return store
	})
}

func TestConformanceInMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) db.Manager {
		store, err := Open(":memory:")
		require.NoError(t, err)
		return store
	})
}

func TestCollectionNameValidation(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	for _, name := range []string{"", "1leading_digit", "no-dashes", "no spaces", "drop;table"} {
		_, err := store.CreateCollection(name)
		assert.Error(t, err, "name %q", name)
	}

	_, err = store.CreateCollection("witness_signatures")
	assert.NoError(t, err)
}

// Composite keys carry a separator-delimited suffix; iteration yields only
// the part after the rightmost separator.
func TestIterExtractsKeySuffix(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	c, err := store.CreateCollection("event")
	require.NoError(t, err)

	sep := string(rune(db.KeySeparator))
	for sn := range 3 {
		key := fmt.Sprintf("subj1%s%020d", sep, sn)
		require.NoError(t, c.Put(key, []byte{byte(sn)}))
	}

	it, err := c.Iter(true, "subj1"+sep)
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	assert.Equal(t, fmt.Sprintf("%020d", 2), it.Key())
	assert.Equal(t, []byte{2}, it.Value())
}

func TestIterSnapshotDoesNotHoldConnection(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	c, err := store.CreateCollection("subject")
	require.NoError(t, err)
	require.NoError(t, c.Put("a", []byte("1")))

	// With a single connection, a lazily-read result set would deadlock the
	// write below; eager materialization must have released it already.
	it, err := c.Iter(false, "")
	require.NoError(t, err)
	defer it.Close()

	require.NoError(t, c.Put("b", []byte("2")))

	require.True(t, it.Next())
	assert.Equal(t, "a", it.Key())
	assert.False(t, it.Next())
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "korenode.db")

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

func TestPutNilValue(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	c, err := store.CreateCollection("governance_index")
	require.NoError(t, err)

	require.NoError(t, c.Put("key", nil))
	got, err := c.Get("key")
	require.NoError(t, err)
	assert.Empty(t, got)
}

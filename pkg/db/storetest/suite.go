// Package storetest holds the conformance suite every storage backend must
// pass. Backends run it from their own test packages, so equivalent
// observable behavior across backends is enforced rather than assumed.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kore-ledger/korenode/pkg/db"
)

// Factory returns a fresh, empty Manager. The suite closes it when the
// subtest finishes.
type Factory func(t *testing.T) db.Manager

// Run exercises the full storage contract against the given backend.
func Run(t *testing.T, newManager Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, m db.Manager)
	}{
		{name: "round_trip", fn: testRoundTrip},
		{name: "overwrite_last_write_wins", fn: testOverwrite},
		{name: "delete_removes", fn: testDeleteRemoves},
		{name: "delete_absent_key_succeeds", fn: testDeleteAbsent},
		{name: "empty_collection", fn: testEmptyCollection},
		{name: "prefix_filtering", fn: testPrefixFiltering},
		{name: "reverse_order", fn: testReverseOrder},
		{name: "collection_isolation", fn: testCollectionIsolation},
		{name: "iterator_is_restartable", fn: testIteratorRestart},
		{name: "iteration_snapshot", fn: testIterationSnapshot},
		{name: "create_collection_idempotent", fn: testCreateCollectionIdempotent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newManager(t)
			defer m.Close()

			tc.fn(t, m)
		})
	}
}

func testRoundTrip(t *testing.T, m db.Manager) {
	c, err := m.CreateCollection("subject")
	require.NoError(t, err)

	value := []byte("test-value")
	require.NoError(t, c.Put("test-key", value))

	got, err := c.Get("test-key")
	require.NoError(t, err)
	assert.Equal(t, value, got)

	_, err = c.Get("absent")
	assert.ErrorIs(t, err, db.ErrEntryNotFound)
}

func testOverwrite(t *testing.T, m db.Manager) {
	c, err := m.CreateCollection("subject")
	require.NoError(t, err)

	require.NoError(t, c.Put("key", []byte("first")))
	require.NoError(t, c.Put("key", []byte("second")))

	got, err := c.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func testDeleteRemoves(t *testing.T, m db.Manager) {
	c, err := m.CreateCollection("subject")
	require.NoError(t, err)

	require.NoError(t, c.Put("key", []byte("value")))
	require.NoError(t, c.Delete("key"))

	_, err = c.Get("key")
	assert.ErrorIs(t, err, db.ErrEntryNotFound)
}

func testDeleteAbsent(t *testing.T, m db.Manager) {
	c, err := m.CreateCollection("subject")
	require.NoError(t, err)

	assert.NoError(t, c.Delete("never-written"))
}

func testEmptyCollection(t *testing.T, m db.Manager) {
	c, err := m.CreateCollection("subject")
	require.NoError(t, err)

	assert.Empty(t, collect(t, c, false, ""))
}

func testPrefixFiltering(t *testing.T, m db.Manager) {
	c := seeded(t, m)

	entries := collect(t, c, false, "")
	require.Equal(t, []db.Entry{
		{Key: "aa", Value: []byte("A")},
		{Key: "ab", Value: []byte("B")},
		{Key: "bc", Value: []byte("C")},
	}, entries)

	entries = collect(t, c, false, "a")
	require.Equal(t, []db.Entry{
		{Key: "aa", Value: []byte("A")},
		{Key: "ab", Value: []byte("B")},
	}, entries)

	assert.Empty(t, collect(t, c, false, "z"))
}

func testReverseOrder(t *testing.T, m db.Manager) {
	c := seeded(t, m)

	entries := collect(t, c, true, "")
	require.Equal(t, []db.Entry{
		{Key: "bc", Value: []byte("C")},
		{Key: "ab", Value: []byte("B")},
		{Key: "aa", Value: []byte("A")},
	}, entries)

	entries = collect(t, c, true, "a")
	require.Equal(t, []db.Entry{
		{Key: "ab", Value: []byte("B")},
		{Key: "aa", Value: []byte("A")},
	}, entries)
}

func testCollectionIsolation(t *testing.T, m db.Manager) {
	first, err := m.CreateCollection("first")
	require.NoError(t, err)
	second, err := m.CreateCollection("second")
	require.NoError(t, err)

	require.NoError(t, first.Put("x", []byte("only-in-first")))

	assert.Empty(t, collect(t, second, false, ""))
	_, err = second.Get("x")
	assert.ErrorIs(t, err, db.ErrEntryNotFound)

	entries := collect(t, first, false, "")
	require.Len(t, entries, 1)
	assert.Equal(t, "x", entries[0].Key)
}

func testIteratorRestart(t *testing.T, m db.Manager) {
	c := seeded(t, m)

	for range 2 {
		entries := collect(t, c, false, "")
		require.Len(t, entries, 3)
		assert.Equal(t, "aa", entries[0].Key)
	}
}

func testIterationSnapshot(t *testing.T, m db.Manager) {
	c := seeded(t, m)

	it, err := c.Iter(false, "")
	require.NoError(t, err)
	defer it.Close()

	// A write after Iter must not leak into the running iteration.
	require.NoError(t, c.Put("ba", []byte("late")))

	var keys []string
	for it.Next() {
		keys = append(keys, it.Key())
	}
	assert.Equal(t, []string{"aa", "ab", "bc"}, keys)

	entries := collect(t, c, false, "")
	require.Len(t, entries, 4)
}

func testCreateCollectionIdempotent(t *testing.T, m db.Manager) {
	first, err := m.CreateCollection("subject")
	require.NoError(t, err)
	require.NoError(t, first.Put("key", []byte("value")))

	again, err := m.CreateCollection("subject")
	require.NoError(t, err)

	got, err := again.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func seeded(t *testing.T, m db.Manager) db.Collection {
	t.Helper()

	c, err := m.CreateCollection("subject")
	require.NoError(t, err)

	require.NoError(t, c.Put("aa", []byte("A")))
	require.NoError(t, c.Put("ab", []byte("B")))
	require.NoError(t, c.Put("bc", []byte("C")))
	return c
}

func collect(t *testing.T, c db.Collection, reverse bool, prefix string) []db.Entry {
	t.Helper()

	it, err := c.Iter(reverse, prefix)
	require.NoError(t, err)
	defer it.Close()

	var entries []db.Entry
	for it.Next() {
		entries = append(entries, db.Entry{Key: it.Key(), Value: it.Value()})
	}
	return entries
}

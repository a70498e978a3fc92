package pebble

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpperBound(t *testing.T) {
	tests := []struct {
		name   string
		in     []byte
		expect []byte
	}{
		{name: "simple", in: []byte("abc"), expect: []byte("abd")},
		{name: "trailing_max_byte", in: []byte{'a', 0xff}, expect: []byte{'b'}},
		{name: "all_max_bytes", in: []byte{0xff, 0xff}, expect: nil},
		{name: "empty", in: []byte{}, expect: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, upperBound(tc.in))
		})
	}
}

// The reverse iterator must start at the last real key of the prefix range
// even when that key is the greatest key in the whole store.
func TestReverseAtEndOfKeyspace(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "pebble"))
	require.NoError(t, err)
	defer store.Close()

	c, err := store.CreateCollection("event")
	require.NoError(t, err)

	require.NoError(t, c.Put("aa", []byte("A")))
	require.NoError(t, c.Put("ab", []byte("B")))

	it, err := c.Iter(true, "a")
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, it.Key())
	}
	assert.Equal(t, []string{"ab", "aa"}, keys)
}

func TestIterValuesAreOwned(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "pebble"))
	require.NoError(t, err)
	defer store.Close()

	c, err := store.CreateCollection("event")
	require.NoError(t, err)
	require.NoError(t, c.Put("k1", []byte("v1")))
	require.NoError(t, c.Put("k2", []byte("v2")))

	it, err := c.Iter(false, "")
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	first := it.Value()
	require.True(t, it.Next())

	// Stepping the iterator must not invalidate previously returned values.
	assert.Equal(t, []byte("v1"), first)
	assert.Equal(t, []byte("v2"), it.Value())
}

func TestIterEmptyPrefixSeesOnlyOwnCollection(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "pebble"))
	require.NoError(t, err)
	defer store.Close()

	event, err := store.CreateCollection("event")
	require.NoError(t, err)
	subject, err := store.CreateCollection("subject")
	require.NoError(t, err)

	require.NoError(t, event.Put("e1", []byte("E")))
	require.NoError(t, subject.Put("s1", []byte("S")))

	it, err := event.Iter(false, "")
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	assert.Equal(t, "e1", it.Key())
	assert.False(t, it.Next())
}

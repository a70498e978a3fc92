package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/kore-ledger/korenode/pkg/db"
)

// Iter returns an iterator over the collection's keys starting with prefix.
// The iterator is bounded below by the qualified prefix and above by its
// exclusive successor key, so it can never step onto another collection or
// onto a key outside the prefix; the successor bound sorts after every real
// key sharing the prefix, which is what makes reverse iteration start at the
// true last entry of the range. The pebble iterator sees a consistent view
// of the store as of this call.
func (c *collection) Iter(reverse bool, prefix string) (db.Iterator, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	if c.store.closed {
		return nil, db.ErrStoreClosed
	}

	lower := c.qualify(prefix)
	iter, err := c.store.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upperBound(lower),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate prefix %q: %w", prefix, err)
	}

	return &iterator{
		iter:    iter,
		strip:   len(c.qualifier),
		reverse: reverse,
	}, nil
}

type iterator struct {
	iter    *pebble.Iterator
	strip   int // length of the collection qualifier on every physical key
	reverse bool
	started bool
}

func (it *iterator) Next() bool {
	if !it.started {
		it.started = true
		if it.reverse {
			return it.iter.Last()
		}
		return it.iter.First()
	}
	if it.reverse {
		return it.iter.Prev()
	}
	return it.iter.Next()
}

// Key returns the logical key, with the collection qualifier stripped.
func (it *iterator) Key() string {
	return string(it.iter.Key()[it.strip:])
}

func (it *iterator) Value() []byte {
	value := it.iter.Value()
	result := make([]byte, len(value))
	copy(result, value)
	return result
}

func (it *iterator) Close() error {
	return it.iter.Close()
}

// upperBound returns the smallest key greater than every key having b as a
// prefix, by incrementing the last incrementable byte. A nil result means no
// upper bound exists (all trailing 0xff).
func upperBound(b []byte) []byte {
	end := make([]byte, len(b))
	copy(end, b)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

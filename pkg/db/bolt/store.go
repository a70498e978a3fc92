package bolt

import (
	"bytes"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/kore-ledger/korenode/pkg/db"
)

// Store implements the storage contract over bbolt, an embedded B+ tree.
// Each collection maps to one bucket, so isolation is native rather than
// prefix-encoded. It exists alongside the pebble and sqlite backends mainly
// to keep the contract honest: a new backend must land without touching the
// engine side.
type Store struct {
	db *bolt.DB
}

// Open creates or opens a bbolt database file at path.
func Open(path string) (*Store, error) {
	bdb, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt store at %q: %w", path, err)
	}
	return &Store{db: bdb}, nil
}

// CreateCollection creates the collection's bucket if it does not exist yet.
func (s *Store) CreateCollection(name string) (db.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}
	if bytes.ContainsAny([]byte(name), string(db.NamespaceDelimiter)+string(db.KeySeparator)) {
		return nil, fmt.Errorf("collection name %q contains a reserved byte", name)
	}

	bucket := []byte(name)
	err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", name, err)
	}

	return &collection{db: s.db, bucket: bucket}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type collection struct {
	db     *bolt.DB
	bucket []byte
}

func (c *collection) Get(key string) ([]byte, error) {
	var value []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(c.bucket).Get([]byte(key))
		if v == nil {
			return db.ErrEntryNotFound
		}
		// bbolt buffers are only valid inside the transaction.
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err == db.ErrEntryNotFound {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (c *collection) Put(key string, value []byte) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (c *collection) Delete(key string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Iter materializes the matching entries inside one read transaction and
// iterates the owned buffer afterwards, so callers get a point-in-time
// snapshot without pinning the transaction open.
func (c *collection) Iter(reverse bool, prefix string) (db.Iterator, error) {
	p := []byte(prefix)
	var entries []db.Entry

	err := c.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket(c.bucket).Cursor()

		collect := func(k, v []byte) {
			value := make([]byte, len(v))
			copy(value, v)
			entries = append(entries, db.Entry{Key: string(k), Value: value})
		}

		if !reverse {
			for k, v := cur.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = cur.Next() {
				collect(k, v)
			}
			return nil
		}

		// Position at the last key within the prefix range: seek to the
		// smallest key past the range and step back, falling back to the
		// bucket's last key when nothing sorts after the range.
		var k, v []byte
		if ub := upperBound(p); ub == nil {
			k, v = cur.Last()
		} else if k, v = cur.Seek(ub); k == nil {
			k, v = cur.Last()
		} else {
			k, v = cur.Prev()
		}
		for ; k != nil && bytes.HasPrefix(k, p); k, v = cur.Prev() {
			collect(k, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate prefix %q: %w", prefix, err)
	}

	return db.NewSliceIterator(entries), nil
}

// upperBound returns the smallest key greater than every key having b as a
// prefix, or nil when no such key exists.
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

package pebble

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/kore-ledger/korenode/pkg/db"
)

// Store is an ordered flat-keyspace store backed by a single pebble database.
// All collections share the one physical keyspace; a collection is just a key
// qualifier prepended on write and stripped on read. The pebble handle does
// its own locking for concurrent readers and writers, so no per-collection
// critical section is added here.
type Store struct {
	db     *pebble.DB
	write  *pebble.WriteOptions
	mu     sync.RWMutex
	closed bool
}

// Option configures a Store at open time. Options are immutable afterwards.
type Option func(*Store)

// WithNoSync relaxes the default fsync-per-write durability. Ledger state
// normally wants synchronous writes; this exists for bulk loads and tests.
func WithNoSync() Option {
	return func(s *Store) {
		s.write = pebble.NoSync
	}
}

// Open creates or opens a pebble database at path. The directory is created
// if missing. Open failures are fatal to the caller: there is no node
// without storage.
func Open(path string, opts ...Option) (*Store, error) {
	pdb, err := pebble.Open(path, &pebble.Options{
		Cache: pebble.NewCache(64 << 20),
	})
	if err != nil {
		return nil, fmt.Errorf("open pebble store at %q: %w", path, err)
	}

	s := &Store{db: pdb, write: pebble.Sync}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateCollection returns a collection bound to name. For this backend the
// call has no physical side effect; the collection materializes as a key
// prefix on first write.
func (s *Store) CreateCollection(name string) (db.Collection, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	qualifier := append([]byte(name), db.NamespaceDelimiter)
	return &collection{store: s, qualifier: qualifier}, nil
}

// Close closes the underlying pebble database. Double close is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name must not be empty")
	}
	if bytes.ContainsAny([]byte(name), string(db.NamespaceDelimiter)+string(db.KeySeparator)) {
		return fmt.Errorf("collection name %q contains a reserved byte", name)
	}
	return nil
}

type collection struct {
	store     *Store
	qualifier []byte
}

func (c *collection) qualify(key string) []byte {
	return append(append([]byte{}, c.qualifier...), key...)
}

func (c *collection) Get(key string) ([]byte, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	if c.store.closed {
		return nil, db.ErrStoreClosed
	}

	value, closer, err := c.store.db.Get(c.qualify(key))
	if err == pebble.ErrNotFound {
		return nil, db.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (c *collection) Put(key string, value []byte) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if c.store.closed {
		return db.ErrStoreClosed
	}

	if err := c.store.db.Set(c.qualify(key), value, c.store.write); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (c *collection) Delete(key string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if c.store.closed {
		return db.ErrStoreClosed
	}

	if err := c.store.db.Delete(c.qualify(key), c.store.write); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

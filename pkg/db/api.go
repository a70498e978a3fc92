package db

// Collection is a named, logically isolated keyspace holding opaque values.
// The ledger engine opens one Collection per persisted entity type and never
// sees which backend is behind it. Keys order byte-lexicographically and are
// unique per (collection, key).
type Collection interface {
	// Get returns the value stored under key. It returns ErrEntryNotFound
	// when the key is absent.
	Get(key string) ([]byte, error)

	// Put stores value under key, fully replacing any previous value. The
	// write is durable before Put returns unless the store was opened with
	// relaxed durability.
	Put(key string, value []byte) error

	// Delete removes key. Deleting an absent key succeeds.
	Delete(key string) error

	// Iter returns a fresh iterator over the keys of this collection that
	// start with prefix, ascending when reverse is false and descending when
	// reverse is true. The iterator reflects a consistent snapshot taken at
	// call time. Yielded keys carry no collection-qualifying encoding.
	Iter(reverse bool, prefix string) (Iterator, error)
}

// Iterator walks key-value pairs in order. Iterators must be closed after
// use. A freshly created iterator is positioned before the first pair.
type Iterator interface {
	// Next advances to the next pair, returning false when exhausted.
	Next() bool
	// Key returns the logical key of the current pair.
	Key() string
	// Value returns the value of the current pair.
	Value() []byte
	Close() error
}

// Manager opens collections against one physical store. Collections are
// created lazily on first access and live for the lifetime of the store.
type Manager interface {
	// CreateCollection returns the collection with the given name, creating
	// its backing structure if needed. Calling it twice with the same name
	// yields collections over the same data.
	CreateCollection(name string) (Collection, error)

	// Close releases the physical store. Collections obtained from this
	// manager must not be used afterwards.
	Close() error
}

// Reserved bytes. Neither may appear in collection names or logical keys;
// collection isolation and composite-key suffix extraction depend on them.
const (
	// KeySeparator delimits the components of composite keys built by
	// callers (entity id, then a zero-padded sequence number).
	KeySeparator = '\x1f'

	// NamespaceDelimiter separates the collection qualifier from the logical
	// key in backends that share one flat keyspace.
	NamespaceDelimiter = '\x00'
)

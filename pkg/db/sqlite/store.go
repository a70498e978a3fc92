package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kore-ledger/korenode/pkg/db"
)

// Table names are interpolated into statements, so they are restricted to
// plain SQL identifiers.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store emulates the storage contract over a SQLite database, one table per
// collection with schema (id TEXT PRIMARY KEY, value BLOB NOT NULL). All
// collections share a single connection; database/sql serializes every
// operation through it, so each call is a self-contained critical section.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at path. Pass ":memory:" for an
// ephemeral store. The connection is configured with WAL journaling and
// NORMAL synchronous mode to balance write durability and throughput.
func Open(path string) (*Store, error) {
	sdb, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store at %q: %w", path, err)
	}

	// A single connection: SQLite allows one writer at a time, and an
	// in-memory database exists only as long as its one connection does.
	sdb.SetMaxOpenConns(1)
	sdb.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := sdb.Exec(pragma); err != nil {
			sdb.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if err := sdb.Ping(); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("connect to sqlite store at %q: %w", path, err)
	}

	return &Store{db: sdb}, nil
}

// CreateCollection creates the collection's table if it does not exist yet
// and returns a collection bound to it. The statement is idempotent; only
// the first call per name has a physical side effect.
func (s *Store) CreateCollection(name string) (db.Collection, error) {
	if !identifierRe.MatchString(name) {
		return nil, fmt.Errorf("collection name %q is not a valid identifier", name)
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, value BLOB NOT NULL)", name)
	if _, err := s.db.Exec(stmt); err != nil {
		return nil, fmt.Errorf("create table %s: %w", name, err)
	}

	return &collection{db: s.db, table: name}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type collection struct {
	db    *sql.DB
	table string
}

func (c *collection) Get(key string) ([]byte, error) {
	query := fmt.Sprintf("SELECT value FROM %s WHERE id = ?", c.table)

	var value []byte
	err := c.db.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (c *collection) Put(key string, value []byte) error {
	if value == nil {
		// The column is NOT NULL; a nil slice would bind as NULL.
		value = []byte{}
	}
	stmt := fmt.Sprintf("INSERT OR REPLACE INTO %s (id, value) VALUES (?, ?)", c.table)
	if _, err := c.db.Exec(stmt, key, value); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (c *collection) Delete(key string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.table)
	if _, err := c.db.Exec(stmt, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Iter scans the whole table in key order and filters by prefix in
// application code; the minimal schema has no index usable for arbitrary
// prefix ranges, and collections here stay small enough that the O(n) scan
// is the simpler correct choice. Rows are materialized eagerly, so the
// returned iterator is a point-in-time snapshot and holds no connection.
func (c *collection) Iter(reverse bool, prefix string) (db.Iterator, error) {
	order := "ASC"
	if reverse {
		order = "DESC"
	}
	query := fmt.Sprintf("SELECT id, value FROM %s ORDER BY id %s", c.table, order)

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("iterate prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var entries []db.Entry
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("iterate prefix %q: %w", prefix, err)
		}
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		entries = append(entries, db.Entry{Key: suffix(key), Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prefix %q: %w", prefix, err)
	}

	return db.NewSliceIterator(entries), nil
}

// suffix strips everything up to and including the rightmost key separator.
// Composite keys embed a sequence-number suffix after the separator and
// callers expect only that suffix back; plain keys pass through unchanged.
func suffix(key string) string {
	if i := strings.LastIndexByte(key, db.KeySeparator); i >= 0 {
		return key[i+1:]
	}
	return key
}

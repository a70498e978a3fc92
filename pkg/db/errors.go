package db

import "errors"

var (
	// ErrEntryNotFound is returned by Get when the key is absent. Backends
	// report genuine read failures as distinct, wrapped errors rather than
	// collapsing them into this sentinel.
	ErrEntryNotFound = errors.New("db: entry not found")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("db: store is closed")
)

// Package store layers typed, per-entity stores over the storage contract.
// This is the surface the ledger engine persists through: one collection per
// entity type, composite keys for sequence-ordered data, serialization kept
// up here so the storage layer stays byte-opaque.
package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kore-ledger/korenode/pkg/db"
)

// Collection names, one per persisted entity type.
const (
	CollSubject           = "subject"
	CollEvent             = "event"
	CollRequest           = "kore_request"
	CollSignature         = "signature"
	CollWitnessSignatures = "witness_signatures"
	CollGovernanceIndex   = "governance_index"
)

var (
	// ErrSerialize reports a record that could not be encoded or decoded.
	ErrSerialize = errors.New("store: serialize error")

	// ErrDigestMismatch reports a stored event whose content digest no
	// longer matches its content.
	ErrDigestMismatch = errors.New("store: event digest mismatch")
)

const keySeparator = string(rune(db.KeySeparator))

// sequenceKey builds the composite key for sequence-ordered entities:
// entity id, separator, zero-padded sequence number. The padding keeps
// numeric order and lexicographic order aligned.
func sequenceKey(id string, sn uint64) string {
	return id + keySeparator + fmt.Sprintf("%020d", sn)
}

// sequencePrefix is the prefix matching every sequence key of an entity.
func sequencePrefix(id string) string {
	return id + keySeparator
}

// parseSequence extracts the sequence number from a composite key suffix.
// Backends differ in how much of the composite key they echo back, so only
// the part after the rightmost separator is considered.
func parseSequence(key string) (uint64, error) {
	if i := strings.LastIndex(key, keySeparator); i >= 0 {
		key = key[i+len(keySeparator):]
	}
	sn, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sequence number from key %q: %w", key, err)
	}
	return sn, nil
}

// Stores bundles every typed store of a node over one storage backend.
type Stores struct {
	Subjects   *SubjectStore
	Events     *EventStore
	Requests   *RequestStore
	Signatures *SignatureStore
	Governance *GovernanceStore
}

// New opens all collections against the manager. Any failure here is fatal
// to node startup: the engine cannot run with partial storage.
func New(m db.Manager) (*Stores, error) {
	subjects, err := m.CreateCollection(CollSubject)
	if err != nil {
		return nil, fmt.Errorf("open %s collection: %w", CollSubject, err)
	}
	events, err := m.CreateCollection(CollEvent)
	if err != nil {
		return nil, fmt.Errorf("open %s collection: %w", CollEvent, err)
	}
	requests, err := m.CreateCollection(CollRequest)
	if err != nil {
		return nil, fmt.Errorf("open %s collection: %w", CollRequest, err)
	}
	signatures, err := m.CreateCollection(CollSignature)
	if err != nil {
		return nil, fmt.Errorf("open %s collection: %w", CollSignature, err)
	}
	witness, err := m.CreateCollection(CollWitnessSignatures)
	if err != nil {
		return nil, fmt.Errorf("open %s collection: %w", CollWitnessSignatures, err)
	}
	governance, err := m.CreateCollection(CollGovernanceIndex)
	if err != nil {
		return nil, fmt.Errorf("open %s collection: %w", CollGovernanceIndex, err)
	}

	return &Stores{
		Subjects:   NewSubjectStore(subjects),
		Events:     NewEventStore(events),
		Requests:   NewRequestStore(requests),
		Signatures: NewSignatureStore(signatures, witness),
		Governance: NewGovernanceStore(governance),
	}, nil
}

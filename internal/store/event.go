package store

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/kore-ledger/korenode/pkg/db"
)

// Event is one entry of a subject's event log. Digest binds the payload to
// its position in the log and is verified on every read.
type Event struct {
	SubjectID string `json:"subject_id"`
	Sn        uint64 `json:"sn"`
	Payload   []byte `json:"payload"`
	Digest    string `json:"digest"`
}

// EventStore persists events under composite keys so that a subject's log
// reads back in sequence order and its head is one reverse scan away.
type EventStore struct {
	coll db.Collection
}

func NewEventStore(coll db.Collection) *EventStore {
	return &EventStore{coll: coll}
}

// Put stores the event, computing its content digest.
func (s *EventStore) Put(event Event) error {
	event.Digest = eventDigest(event)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: event %s/%d: %v", ErrSerialize, event.SubjectID, event.Sn, err)
	}
	return s.coll.Put(sequenceKey(event.SubjectID, event.Sn), data)
}

func (s *EventStore) Get(subjectID string, sn uint64) (Event, error) {
	data, err := s.coll.Get(sequenceKey(subjectID, sn))
	if err != nil {
		return Event{}, err
	}
	return decodeEvent(data)
}

// Latest returns the newest event of a subject: the first hit of a reverse
// scan over the subject's key range. Returns db.ErrEntryNotFound when the
// subject has no events.
func (s *EventStore) Latest(subjectID string) (Event, error) {
	it, err := s.coll.Iter(true, sequencePrefix(subjectID))
	if err != nil {
		return Event{}, err
	}
	defer it.Close()

	if !it.Next() {
		return Event{}, db.ErrEntryNotFound
	}
	return decodeEvent(it.Value())
}

// Range returns the events of a subject with from <= sn <= to, ascending.
func (s *EventStore) Range(subjectID string, from, to uint64) ([]Event, error) {
	it, err := s.coll.Iter(false, sequencePrefix(subjectID))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var events []Event
	for it.Next() {
		event, err := decodeEvent(it.Value())
		if err != nil {
			return nil, err
		}
		if event.Sn < from {
			continue
		}
		if event.Sn > to {
			break
		}
		events = append(events, event)
	}
	return events, nil
}

func decodeEvent(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("%w: event: %v", ErrSerialize, err)
	}
	if event.Digest != eventDigest(event) {
		return Event{}, fmt.Errorf("%w: event %s/%d", ErrDigestMismatch, event.SubjectID, event.Sn)
	}
	return event, nil
}

// eventDigest is BLAKE2b-256 over the subject id, the sequence number and
// the payload, hex encoded.
func eventDigest(event Event) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(event.SubjectID))

	var sn [8]byte
	binary.BigEndian.PutUint64(sn[:], event.Sn)
	h.Write(sn[:])
	h.Write(event.Payload)

	return hex.EncodeToString(h.Sum(nil))
}

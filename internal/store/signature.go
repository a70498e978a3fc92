package store

import (
	"encoding/json"
	"fmt"

	"github.com/kore-ledger/korenode/pkg/db"
)

// Signature is one signer's signature over an event.
type Signature struct {
	Signer string `json:"signer"`
	Value  string `json:"value"`
}

// SignatureSet holds the signatures collected for one (subject, sn) pair.
type SignatureSet struct {
	SubjectID  string      `json:"subject_id"`
	Sn         uint64      `json:"sn"`
	Signatures []Signature `json:"signatures"`
}

// SignatureStore persists validation signatures and witness signatures in
// two collections sharing the same composite-key layout.
type SignatureStore struct {
	own     db.Collection
	witness db.Collection
}

func NewSignatureStore(own, witness db.Collection) *SignatureStore {
	return &SignatureStore{own: own, witness: witness}
}

func (s *SignatureStore) Put(set SignatureSet) error {
	return putSet(s.own, set)
}

func (s *SignatureStore) Get(subjectID string, sn uint64) (SignatureSet, error) {
	return getSet(s.own, subjectID, sn)
}

func (s *SignatureStore) PutWitness(set SignatureSet) error {
	return putSet(s.witness, set)
}

func (s *SignatureStore) GetWitness(subjectID string, sn uint64) (SignatureSet, error) {
	return getSet(s.witness, subjectID, sn)
}

// DeleteBefore drops signature sets of a subject older than sn, both own and
// witness. Superseded signatures have no value once the event is settled.
func (s *SignatureStore) DeleteBefore(subjectID string, sn uint64) error {
	for _, coll := range []db.Collection{s.own, s.witness} {
		it, err := coll.Iter(false, sequencePrefix(subjectID))
		if err != nil {
			return err
		}

		var stale []uint64
		for it.Next() {
			keySn, err := parseSequence(it.Key())
			if err != nil {
				it.Close()
				return err
			}
			if keySn >= sn {
				break
			}
			stale = append(stale, keySn)
		}
		if err := it.Close(); err != nil {
			return err
		}

		for _, keySn := range stale {
			if err := coll.Delete(sequenceKey(subjectID, keySn)); err != nil {
				return err
			}
		}
	}
	return nil
}

func putSet(coll db.Collection, set SignatureSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("%w: signatures %s/%d: %v", ErrSerialize, set.SubjectID, set.Sn, err)
	}
	return coll.Put(sequenceKey(set.SubjectID, set.Sn), data)
}

func getSet(coll db.Collection, subjectID string, sn uint64) (SignatureSet, error) {
	data, err := coll.Get(sequenceKey(subjectID, sn))
	if err != nil {
		return SignatureSet{}, err
	}
	var set SignatureSet
	if err := json.Unmarshal(data, &set); err != nil {
		return SignatureSet{}, fmt.Errorf("%w: signatures %s/%d: %v", ErrSerialize, subjectID, sn, err)
	}
	return set, nil
}

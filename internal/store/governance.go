package store

import (
	"github.com/kore-ledger/korenode/pkg/db"
)

// GovernanceStore maintains the index from a governance to the subjects
// created under it. Entries are pure index rows: the subject id lives in
// both the key (for the prefix scan) and the value (so results do not
// depend on how a backend echoes composite keys back).
type GovernanceStore struct {
	coll db.Collection
}

func NewGovernanceStore(coll db.Collection) *GovernanceStore {
	return &GovernanceStore{coll: coll}
}

func (s *GovernanceStore) Add(governanceID, subjectID string) error {
	return s.coll.Put(governanceID+keySeparator+subjectID, []byte(subjectID))
}

func (s *GovernanceStore) Remove(governanceID, subjectID string) error {
	return s.coll.Delete(governanceID + keySeparator + subjectID)
}

// Subjects returns the ids of the subjects indexed under a governance, in
// subject-id order.
func (s *GovernanceStore) Subjects(governanceID string) ([]string, error) {
	it, err := s.coll.Iter(false, sequencePrefix(governanceID))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var subjects []string
	for it.Next() {
		subjects = append(subjects, string(it.Value()))
	}
	return subjects, nil
}

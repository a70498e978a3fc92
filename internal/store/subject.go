package store

import (
	"encoding/json"
	"fmt"

	"github.com/kore-ledger/korenode/pkg/db"
)

// Subject is the persisted state of one ledger subject.
type Subject struct {
	SubjectID    string `json:"subject_id"`
	GovernanceID string `json:"governance_id"`
	Sn           uint64 `json:"sn"`
	Namespace    string `json:"namespace"`
	SchemaID     string `json:"schema_id"`
	Owner        string `json:"owner"`
}

// SubjectStore persists subjects keyed by subject id.
type SubjectStore struct {
	coll db.Collection
}

func NewSubjectStore(coll db.Collection) *SubjectStore {
	return &SubjectStore{coll: coll}
}

func (s *SubjectStore) Put(subject Subject) error {
	data, err := json.Marshal(subject)
	if err != nil {
		return fmt.Errorf("%w: subject %s: %v", ErrSerialize, subject.SubjectID, err)
	}
	return s.coll.Put(subject.SubjectID, data)
}

func (s *SubjectStore) Get(subjectID string) (Subject, error) {
	data, err := s.coll.Get(subjectID)
	if err != nil {
		return Subject{}, err
	}
	var subject Subject
	if err := json.Unmarshal(data, &subject); err != nil {
		return Subject{}, fmt.Errorf("%w: subject %s: %v", ErrSerialize, subjectID, err)
	}
	return subject, nil
}

func (s *SubjectStore) Delete(subjectID string) error {
	return s.coll.Delete(subjectID)
}

// All returns every stored subject in subject-id order.
func (s *SubjectStore) All() ([]Subject, error) {
	it, err := s.coll.Iter(false, "")
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var subjects []Subject
	for it.Next() {
		var subject Subject
		if err := json.Unmarshal(it.Value(), &subject); err != nil {
			return nil, fmt.Errorf("%w: subject %s: %v", ErrSerialize, it.Key(), err)
		}
		subjects = append(subjects, subject)
	}
	return subjects, nil
}

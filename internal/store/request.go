package store

import (
	"encoding/json"
	"fmt"

	"github.com/kore-ledger/korenode/pkg/db"
)

// RequestState tracks a ledger request through its lifetime.
type RequestState string

const (
	RequestProcessing RequestState = "processing"
	RequestFinished   RequestState = "finished"
)

// Request is the persisted state of one ledger request.
type Request struct {
	RequestID string       `json:"request_id"`
	SubjectID string       `json:"subject_id"`
	Sn        uint64       `json:"sn"`
	State     RequestState `json:"state"`
}

// RequestStore persists requests keyed by request id.
type RequestStore struct {
	coll db.Collection
}

func NewRequestStore(coll db.Collection) *RequestStore {
	return &RequestStore{coll: coll}
}

func (s *RequestStore) Put(request Request) error {
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("%w: request %s: %v", ErrSerialize, request.RequestID, err)
	}
	return s.coll.Put(request.RequestID, data)
}

func (s *RequestStore) Get(requestID string) (Request, error) {
	data, err := s.coll.Get(requestID)
	if err != nil {
		return Request{}, err
	}
	var request Request
	if err := json.Unmarshal(data, &request); err != nil {
		return Request{}, fmt.Errorf("%w: request %s: %v", ErrSerialize, requestID, err)
	}
	return request, nil
}

func (s *RequestStore) Delete(requestID string) error {
	return s.coll.Delete(requestID)
}

// Processing returns the requests still in flight, in request-id order.
func (s *RequestStore) Processing() ([]Request, error) {
	it, err := s.coll.Iter(false, "")
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var requests []Request
	for it.Next() {
		var request Request
		if err := json.Unmarshal(it.Value(), &request); err != nil {
			return nil, fmt.Errorf("%w: request %s: %v", ErrSerialize, it.Key(), err)
		}
		if request.State == RequestProcessing {
			requests = append(requests, request)
		}
	}
	return requests, nil
}

// Package ownership persists the append-only ownership audit trail.
package ownership

import (
	"context"
	"sort"
	"sync"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"

	"fowlgate/internal/transfer/models"
)

// InMemory keeps ownership records in a mutex-guarded map keyed by
// transfer id, which also enforces the one-record-per-transfer rule.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.TransferID]*models.OwnershipRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.TransferID]*models.OwnershipRecord)}
}

// Append stores a new record. Returns sentinel.ErrDuplicate if a record
// for the same transfer already exists; records are never updated.
func (s *InMemory) Append(_ context.Context, r *models.OwnershipRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.TransferID]; ok {
		return sentinel.ErrDuplicate
	}
	s.records[r.TransferID] = cloneRecord(r)
	return nil
}

func (s *InMemory) FindByTransfer(_ context.Context, transferID id.TransferID) (*models.OwnershipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.records[transferID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(stored), nil
}

// ListByFowl returns the fowl's ownership history, oldest first.
func (s *InMemory) ListByFowl(_ context.Context, fowlID id.FowlID) ([]*models.OwnershipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.OwnershipRecord
	for _, stored := range s.records {
		if stored.FowlID == fowlID {
			out = append(out, cloneRecord(stored))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TransferDate.Before(out[j].TransferDate)
	})
	return out, nil
}

func cloneRecord(r *models.OwnershipRecord) *models.OwnershipRecord {
	c := *r
	c.LegalDocuments = append([]string(nil), r.LegalDocuments...)
	return &c
}

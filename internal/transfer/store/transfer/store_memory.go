// Package transfer provides persistence for transfer requests.
package transfer

import (
	"context"
	"sort"
	"sync"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"

	"fowlgate/internal/transfer/models"
)

// InMemory implements the transfer store with a mutex-guarded map. Used by
// unit tests and single-process deployments; production uses PostgresStore.
type InMemory struct {
	mu        sync.RWMutex
	transfers map[id.TransferID]*models.TransferRequest
}

func NewInMemory() *InMemory {
	return &InMemory{transfers: make(map[id.TransferID]*models.TransferRequest)}
}

// Create persists a new transfer. Returns sentinel.ErrDuplicate when the
// fowl already has an active transfer, mirroring the partial unique index
// enforced by the Postgres store.
func (s *InMemory) Create(_ context.Context, t *models.TransferRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transfers[t.ID]; ok {
		return sentinel.ErrDuplicate
	}
	for _, existing := range s.transfers {
		if existing.FowlID == t.FowlID && existing.IsActive {
			return sentinel.ErrDuplicate
		}
	}
	stored := cloneTransfer(t)
	stored.Version = 1
	s.transfers[t.ID] = stored
	t.Version = 1
	return nil
}

func (s *InMemory) FindByID(_ context.Context, transferID id.TransferID) (*models.TransferRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.transfers[transferID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneTransfer(stored), nil
}

func (s *InMemory) FindActiveByFowl(_ context.Context, fowlID id.FowlID) (*models.TransferRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, stored := range s.transfers {
		if stored.FowlID == fowlID && stored.IsActive {
			return cloneTransfer(stored), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// ListByParty returns transfers where the user is seller or buyer, newest
// first.
func (s *InMemory) ListByParty(_ context.Context, userID id.UserID, activeOnly bool) ([]*models.TransferRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TransferRequest
	for _, stored := range s.transfers {
		if activeOnly && !stored.IsActive {
			continue
		}
		if stored.SellerID == userID || (stored.BuyerID != nil && *stored.BuyerID == userID) {
			out = append(out, cloneTransfer(stored))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InitiatedDate.After(out[j].InitiatedDate)
	})
	return out, nil
}

// Update writes the transfer back guarded by its version: the write
// succeeds only if the stored version equals t.Version, then both are
// incremented. Returns sentinel.ErrConflict when a concurrent writer won.
func (s *InMemory) Update(_ context.Context, t *models.TransferRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.transfers[t.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != t.Version {
		return sentinel.ErrConflict
	}
	updated := cloneTransfer(t)
	updated.Version = stored.Version + 1
	s.transfers[t.ID] = updated
	t.Version = updated.Version
	return nil
}

func cloneTransfer(t *models.TransferRequest) *models.TransferRequest {
	c := *t
	if t.BuyerID != nil {
		v := *t.BuyerID
		c.BuyerID = &v
	}
	if t.CompletedDate != nil {
		v := *t.CompletedDate
		c.CompletedDate = &v
	}
	if t.TransferLocationLat != nil {
		v := *t.TransferLocationLat
		c.TransferLocationLat = &v
	}
	if t.TransferLocationLng != nil {
		v := *t.TransferLocationLng
		c.TransferLocationLng = &v
	}
	if t.BuyerVerification != nil {
		v := *t.BuyerVerification
		v.VerificationPhotos = append([]string(nil), t.BuyerVerification.VerificationPhotos...)
		v.Discrepancies = append([]string(nil), t.BuyerVerification.Discrepancies...)
		c.BuyerVerification = &v
	}
	if t.HandoverConfirmation != nil {
		h := *t.HandoverConfirmation
		if h.SellerConfirmedDate != nil {
			d := *h.SellerConfirmedDate
			h.SellerConfirmedDate = &d
		}
		if h.BuyerConfirmedDate != nil {
			d := *h.BuyerConfirmedDate
			h.BuyerConfirmedDate = &d
		}
		h.SellerPhotos = append([]string(nil), h.SellerPhotos...)
		h.BuyerPhotos = append([]string(nil), h.BuyerPhotos...)
		c.HandoverConfirmation = &h
	}
	c.SellerDetails.TransferPhotos = append([]string(nil), t.SellerDetails.TransferPhotos...)
	return &c
}

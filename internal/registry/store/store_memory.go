// Package store persists the fowl registry.
package store

import (
	"context"
	"sync"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"

	"fowlgate/internal/registry/models"
)

// InMemory implements the registry store with a mutex-guarded map.
type InMemory struct {
	mu    sync.RWMutex
	fowls map[id.FowlID]*models.Fowl
}

func NewInMemory() *InMemory {
	return &InMemory{fowls: make(map[id.FowlID]*models.Fowl)}
}

func (s *InMemory) Create(_ context.Context, f *models.Fowl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fowls[f.ID]; ok {
		return sentinel.ErrDuplicate
	}
	c := *f
	s.fowls[f.ID] = &c
	return nil
}

func (s *InMemory) FindByID(_ context.Context, fowlID id.FowlID) (*models.Fowl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.fowls[fowlID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *stored
	return &c, nil
}

func (s *InMemory) SetOwner(_ context.Context, fowlID id.FowlID, ownerID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.fowls[fowlID]
	if !ok {
		return sentinel.ErrNotFound
	}
	stored.OwnerID = ownerID
	return nil
}

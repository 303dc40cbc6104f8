// Package service exposes the fowl registry to the rest of the system.
package service

import (
	"context"
	"errors"

	id "fowlgate/pkg/domain"
	dErrors "fowlgate/pkg/domain-errors"
	"fowlgate/pkg/platform/sentinel"

	"fowlgate/internal/registry/models"
)

// Store is the persistence contract for the registry.
type Store interface {
	Create(ctx context.Context, f *models.Fowl) error
	FindByID(ctx context.Context, fowlID id.FowlID) (*models.Fowl, error)
	SetOwner(ctx context.Context, fowlID id.FowlID, ownerID id.UserID) error
}

// Service wraps the store with domain error mapping. The transfer
// orchestrator consults Get for ownership checks and calls SetOwner when
// a transfer completes.
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, fowlID id.FowlID) (*models.Fowl, error) {
	f, err := s.store.FindByID(ctx, fowlID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "fowl %s not registered", fowlID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find fowl")
	}
	return f, nil
}

func (s *Service) SetOwner(ctx context.Context, fowlID id.FowlID, ownerID id.UserID) error {
	if err := s.store.SetOwner(ctx, fowlID, ownerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "fowl %s not registered", fowlID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "set fowl owner")
	}
	return nil
}

// Register adds a fowl to the registry. Used by dev seeding and tests;
// production registration flows in from the farm systems.
func (s *Service) Register(ctx context.Context, f *models.Fowl) error {
	if f.ID.IsNil() || f.OwnerID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "fowl id and owner id are required")
	}
	if err := s.store.Create(ctx, f); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return dErrors.Newf(dErrors.CodeConflict, "fowl %s already registered", f.ID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "register fowl")
	}
	return nil
}

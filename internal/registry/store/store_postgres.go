package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"

	"fowlgate/internal/registry/models"
)

// PostgresStore persists the fowl registry.
//
// Schema:
//
//	CREATE TABLE fowls (
//	    id       UUID PRIMARY KEY,
//	    owner_id UUID NOT NULL,
//	    name     TEXT NOT NULL,
//	    breed    TEXT NOT NULL DEFAULT ''
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, f *models.Fowl) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fowls (id, owner_id, name, breed) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(f.ID), uuid.UUID(f.OwnerID), f.Name, f.Breed,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("create fowl: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, fowlID id.FowlID) (*models.Fowl, error) {
	var (
		f       models.Fowl
		rowID   uuid.UUID
		ownerID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, breed FROM fowls WHERE id = $1`,
		uuid.UUID(fowlID),
	).Scan(&rowID, &ownerID, &f.Name, &f.Breed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find fowl: %w", err)
	}
	f.ID = id.FowlID(rowID)
	f.OwnerID = id.UserID(ownerID)
	return &f, nil
}

func (s *PostgresStore) SetOwner(ctx context.Context, fowlID id.FowlID, ownerID id.UserID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fowls SET owner_id = $1 WHERE id = $2`,
		uuid.UUID(ownerID), uuid.UUID(fowlID),
	)
	if err != nil {
		return fmt.Errorf("set fowl owner: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set fowl owner: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

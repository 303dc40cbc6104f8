// Package postgres provides the Postgres-backed audit outbox.
//
// Schema:
//
//	CREATE TABLE audit_outbox (
//	    seq          BIGSERIAL PRIMARY KEY,
//	    category     TEXT NOT NULL,
//	    occurred_at  TIMESTAMPTZ NOT NULL,
//	    actor_id     UUID NOT NULL,
//	    transfer_id  UUID,
//	    fowl_id      UUID,
//	    action       TEXT NOT NULL,
//	    reason       TEXT NOT NULL DEFAULT '',
//	    request_id   TEXT NOT NULL DEFAULT '',
//	    published_at TIMESTAMPTZ
//	);
//	CREATE INDEX audit_outbox_unpublished_idx ON audit_outbox (seq) WHERE published_at IS NULL;
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "fowlgate/pkg/domain"
	audit "fowlgate/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL. Pure I/O; categorization and
// fail-closed policy belong to the publishers.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_outbox (category, occurred_at, actor_id, transfer_id, fowl_id, action, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		string(event.Category),
		event.Timestamp,
		uuid.UUID(event.ActorID),
		nullableUUID(uuid.UUID(event.TransferID)),
		nullableUUID(uuid.UUID(event.FowlID)),
		event.Action,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) Unpublished(ctx context.Context, limit int) ([]audit.StoredEvent, error) {
	query := `
		SELECT seq, category, occurred_at, actor_id, transfer_id, fowl_id, action, reason, request_id
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.StoredEvent
	for rows.Next() {
		var (
			stored     audit.StoredEvent
			category   string
			actorID    uuid.UUID
			transferID uuid.NullUUID
			fowlID     uuid.NullUUID
		)
		if err := rows.Scan(
			&stored.Seq,
			&category,
			&stored.Event.Timestamp,
			&actorID,
			&transferID,
			&fowlID,
			&stored.Event.Action,
			&stored.Event.Reason,
			&stored.Event.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		stored.Event.Category = audit.EventCategory(category)
		stored.Event.ActorID = id.UserID(actorID)
		stored.Event.TransferID = id.TransferID(transferID.UUID)
		stored.Event.FowlID = id.FowlID(fowlID.UUID)
		out = append(out, stored)
	}
	return out, rows.Err()
}

func (s *Store) MarkPublished(ctx context.Context, seqs []int64, at time.Time) error {
	if len(seqs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE audit_outbox SET published_at = $1 WHERE seq = ANY($2)`,
		at, pq.Array(seqs),
	)
	if err != nil {
		return fmt.Errorf("mark audit events published: %w", err)
	}
	return nil
}

func nullableUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"

	"fowlgate/internal/notification/models"
)

// PostgresStore persists notifications.
//
// Schema:
//
//	CREATE TABLE transfer_notifications (
//	    id              UUID PRIMARY KEY,
//	    recipient_id    UUID NOT NULL,
//	    sender_id       UUID NOT NULL,
//	    transfer_id     UUID NOT NULL,
//	    asset_id        UUID NOT NULL,
//	    type            TEXT NOT NULL,
//	    title           TEXT NOT NULL,
//	    message         TEXT NOT NULL,
//	    action_required BOOLEAN NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    expires_at      TIMESTAMPTZ,
//	    read_at         TIMESTAMPTZ
//	);
//	CREATE INDEX transfer_notifications_recipient_idx
//	    ON transfer_notifications (recipient_id);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const notificationColumns = `
	id, recipient_id, sender_id, transfer_id, asset_id, type, title, message,
	action_required, created_at, expires_at, read_at
`

func (s *PostgresStore) Create(ctx context.Context, n *models.TransferNotification) error {
	query := `
		INSERT INTO transfer_notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULL)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(n.ID),
		uuid.UUID(n.RecipientID),
		uuid.UUID(n.SenderID),
		uuid.UUID(n.TransferID),
		uuid.UUID(n.FowlID),
		string(n.Type),
		n.Title,
		n.Message,
		n.ActionRequired,
		n.CreatedAt,
		n.ExpiresAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListForRecipient(ctx context.Context, recipientID id.UserID, now time.Time) ([]*models.TransferNotification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM transfer_notifications
		WHERE recipient_id = $1 AND (expires_at IS NULL OR expires_at >= $2)
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(recipientID), now)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.TransferNotification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, notificationID id.NotificationID, readAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transfer_notifications SET read_at = COALESCE(read_at, $1) WHERE id = $2`,
		readAt, uuid.UUID(notificationID),
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, notificationID id.NotificationID) (*models.TransferNotification, error) {
	query := `SELECT ` + notificationColumns + ` FROM transfer_notifications WHERE id = $1`
	return scanNotification(s.db.QueryRowContext(ctx, query, uuid.UUID(notificationID)))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.TransferNotification, error) {
	var (
		n              models.TransferNotification
		notificationID uuid.UUID
		recipientID    uuid.UUID
		senderID       uuid.UUID
		transferID     uuid.UUID
		fowlID         uuid.UUID
		notifType      string
		expiresAt      sql.NullTime
		readAt         sql.NullTime
	)
	err := row.Scan(
		&notificationID, &recipientID, &senderID, &transferID, &fowlID,
		&notifType, &n.Title, &n.Message, &n.ActionRequired, &n.CreatedAt,
		&expiresAt, &readAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}

	n.ID = id.NotificationID(notificationID)
	n.RecipientID = id.UserID(recipientID)
	n.SenderID = id.UserID(senderID)
	n.TransferID = id.TransferID(transferID)
	n.FowlID = id.FowlID(fowlID)
	n.Type = models.TransferNotificationType(notifType)
	if expiresAt.Valid {
		n.ExpiresAt = &expiresAt.Time
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	return &n, nil
}

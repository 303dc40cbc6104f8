package ownership

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"

	"fowlgate/internal/transfer/models"
)

// PostgresStore persists ownership records. The table carries only
// INSERTs; the unique constraint on transfer_request_id makes the
// record-per-transfer rule hold under concurrent completion attempts.
//
// Schema:
//
//	CREATE TABLE ownership_records (
//	    id                  UUID PRIMARY KEY,
//	    asset_id            UUID NOT NULL,
//	    previous_owner_id   UUID NOT NULL,
//	    new_owner_id        UUID NOT NULL,
//	    transfer_request_id UUID NOT NULL UNIQUE,
//	    transfer_date       TIMESTAMPTZ NOT NULL,
//	    price               NUMERIC(12,2) NOT NULL,
//	    currency            TEXT NOT NULL,
//	    location            TEXT NOT NULL DEFAULT '',
//	    verification_hash   TEXT NOT NULL,
//	    blockchain_tx_id    TEXT,
//	    is_reversible       BOOLEAN NOT NULL DEFAULT FALSE,
//	    legal_documents     JSONB
//	);
//	CREATE INDEX ownership_records_asset_idx ON ownership_records (asset_id);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const ownershipColumns = `
	id, asset_id, previous_owner_id, new_owner_id, transfer_request_id,
	transfer_date, price, currency, location, verification_hash,
	blockchain_tx_id, is_reversible, legal_documents
`

func (s *PostgresStore) Append(ctx context.Context, r *models.OwnershipRecord) error {
	docs, err := json.Marshal(r.LegalDocuments)
	if err != nil {
		return fmt.Errorf("marshal legal documents: %w", err)
	}

	query := `
		INSERT INTO ownership_records (` + ownershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID),
		uuid.UUID(r.FowlID),
		uuid.UUID(r.PreviousOwnerID),
		uuid.UUID(r.NewOwnerID),
		uuid.UUID(r.TransferID),
		r.TransferDate,
		r.Price,
		string(r.Currency),
		r.Location,
		r.VerificationHash,
		nullString(r.ExternalLedgerTxID),
		r.IsReversible,
		docs,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("append ownership record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByTransfer(ctx context.Context, transferID id.TransferID) (*models.OwnershipRecord, error) {
	query := `SELECT ` + ownershipColumns + ` FROM ownership_records WHERE transfer_request_id = $1`
	return scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(transferID)))
}

func (s *PostgresStore) ListByFowl(ctx context.Context, fowlID id.FowlID) ([]*models.OwnershipRecord, error) {
	query := `
		SELECT ` + ownershipColumns + `
		FROM ownership_records
		WHERE asset_id = $1
		ORDER BY transfer_date ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(fowlID))
	if err != nil {
		return nil, fmt.Errorf("list ownership records: %w", err)
	}
	defer rows.Close()

	var out []*models.OwnershipRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.OwnershipRecord, error) {
	var (
		r          models.OwnershipRecord
		recordID   uuid.UUID
		fowlID     uuid.UUID
		prevOwner  uuid.UUID
		newOwner   uuid.UUID
		transferID uuid.UUID
		currency   string
		ledgerTxID sql.NullString
		docs       []byte
	)
	err := row.Scan(
		&recordID, &fowlID, &prevOwner, &newOwner, &transferID,
		&r.TransferDate, &r.Price, &currency, &r.Location, &r.VerificationHash,
		&ledgerTxID, &r.IsReversible, &docs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan ownership record: %w", err)
	}

	r.ID = id.TransferID(recordID)
	r.FowlID = id.FowlID(fowlID)
	r.PreviousOwnerID = id.UserID(prevOwner)
	r.NewOwnerID = id.UserID(newOwner)
	r.TransferID = id.TransferID(transferID)
	r.Currency = id.Currency(currency)
	r.ExternalLedgerTxID = ledgerTxID.String
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &r.LegalDocuments); err != nil {
			return nil, fmt.Errorf("unmarshal legal documents: %w", err)
		}
	}
	return &r, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

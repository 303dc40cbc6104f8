package transfer

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

// PostgresStore persists transfer requests in PostgreSQL. Evidence payloads
// are stored as jsonb documents whose field names match the legacy record
// store, so a live deployment can be migrated without rewriting documents.
//
// Schema:
//
//	CREATE TABLE transfer_requests (
//	    id                    UUID PRIMARY KEY,
//	    asset_id              UUID NOT NULL,
//	    seller_id             UUID NOT NULL,
//	    buyer_id              UUID,
//	    status                TEXT NOT NULL,
//	    initiated_date        TIMESTAMPTZ NOT NULL,
//	    completed_date        TIMESTAMPTZ,
//	    agreed_price          NUMERIC(12,2) NOT NULL,
//	    currency              TEXT NOT NULL,
//	    transfer_location     TEXT NOT NULL DEFAULT '',
//	    transfer_location_lat DOUBLE PRECISION,
//	    transfer_location_lng DOUBLE PRECISION,
//	    seller_details        JSONB NOT NULL,
//	    buyer_verification    JSONB,
//	    handover_confirmation JSONB,
//	    fraud_prevention_data JSONB NOT NULL,
//	    notes                 TEXT NOT NULL DEFAULT '',
//	    is_active             BOOLEAN NOT NULL,
//	    version               BIGINT NOT NULL
//	);
//	CREATE UNIQUE INDEX transfer_requests_one_active_idx
//	    ON transfer_requests (asset_id) WHERE is_active;
//	CREATE INDEX transfer_requests_seller_idx ON transfer_requests (seller_id);
//	CREATE INDEX transfer_requests_buyer_idx ON transfer_requests (buyer_id);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const transferColumns = `
	id, asset_id, seller_id, buyer_id, status, initiated_date, completed_date,
	agreed_price, currency, transfer_location, transfer_location_lat, transfer_location_lng,
	seller_details, buyer_verification, handover_confirmation, fraud_prevention_data,
	notes, is_active, version
`

// Create inserts a new transfer. The partial unique index on
// (asset_id) WHERE is_active turns a concurrent duplicate initiate into
// sentinel.ErrDuplicate.
func (s *PostgresStore) Create(ctx context.Context, t *models.TransferRequest) error {
	sellerDetails, err := json.Marshal(t.SellerDetails)
	if err != nil {
		return fmt.Errorf("marshal seller details: %w", err)
	}
	fraud, err := json.Marshal(t.FraudPreventionData)
	if err != nil {
		return fmt.Errorf("marshal fraud prevention data: %w", err)
	}

	query := `
		INSERT INTO transfer_requests (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, $7, $8, $9, $10, $11, $12, NULL, NULL, $13, $14, $15, 1)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(t.ID),
		uuid.UUID(t.FowlID),
		uuid.UUID(t.SellerID),
		nullableUserID(t.BuyerID),
		string(t.Status),
		t.InitiatedDate,
		t.AgreedPrice,
		string(t.Currency),
		t.TransferLocation,
		t.TransferLocationLat,
		t.TransferLocationLng,
		sellerDetails,
		fraud,
		t.Notes,
		t.IsActive,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("create transfer: %w", err)
	}
	t.Version = 1
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, transferID id.TransferID) (*models.TransferRequest, error) {
	query := `SELECT ` + transferColumns + ` FROM transfer_requests WHERE id = $1`
	return scanTransfer(s.db.QueryRowContext(ctx, query, uuid.UUID(transferID)))
}

func (s *PostgresStore) FindActiveByFowl(ctx context.Context, fowlID id.FowlID) (*models.TransferRequest, error) {
	query := `SELECT ` + transferColumns + ` FROM transfer_requests WHERE asset_id = $1 AND is_active`
	return scanTransfer(s.db.QueryRowContext(ctx, query, uuid.UUID(fowlID)))
}

func (s *PostgresStore) ListByParty(ctx context.Context, userID id.UserID, activeOnly bool) ([]*models.TransferRequest, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfer_requests
		WHERE (seller_id = $1 OR buyer_id = $1) AND ($2 = FALSE OR is_active)
		ORDER BY initiated_date DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID), activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []*models.TransferRequest
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update writes the full record guarded by the version column. Zero rows
// affected means either the row is gone or a concurrent writer bumped the
// version first; the follow-up existence check disambiguates.
func (s *PostgresStore) Update(ctx context.Context, t *models.TransferRequest) error {
	buyerVerification, err := marshalNullable(t.BuyerVerification)
	if err != nil {
		return fmt.Errorf("marshal buyer verification: %w", err)
	}
	handover, err := marshalNullable(t.HandoverConfirmation)
	if err != nil {
		return fmt.Errorf("marshal handover confirmation: %w", err)
	}

	query := `
		UPDATE transfer_requests
		SET buyer_id = $1, status = $2, completed_date = $3,
		    buyer_verification = $4, handover_confirmation = $5,
		    notes = $6, is_active = $7, version = version + 1
		WHERE id = $8 AND version = $9
	`
	res, err := s.db.ExecContext(ctx, query,
		nullableUserID(t.BuyerID),
		string(t.Status),
		t.CompletedDate,
		buyerVerification,
		handover,
		t.Notes,
		t.IsActive,
		uuid.UUID(t.ID),
		t.Version,
	)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM transfer_requests WHERE id = $1)`,
			uuid.UUID(t.ID),
		).Scan(&exists); err != nil {
			return fmt.Errorf("update transfer: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	t.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*models.TransferRequest, error) {
	var (
		t                 models.TransferRequest
		transferID        uuid.UUID
		fowlID            uuid.UUID
		sellerID          uuid.UUID
		buyerID           uuid.NullUUID
		status            string
		currency          string
		completedDate     sql.NullTime
		sellerDetails     []byte
		buyerVerification []byte
		handover          []byte
		fraud             []byte
	)
	err := row.Scan(
		&transferID, &fowlID, &sellerID, &buyerID, &status,
		&t.InitiatedDate, &completedDate,
		&t.AgreedPrice, &currency, &t.TransferLocation,
		&t.TransferLocationLat, &t.TransferLocationLng,
		&sellerDetails, &buyerVerification, &handover, &fraud,
		&t.Notes, &t.IsActive, &t.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan transfer: %w", err)
	}

	t.ID = id.TransferID(transferID)
	t.FowlID = id.FowlID(fowlID)
	t.SellerID = id.UserID(sellerID)
	if buyerID.Valid {
		b := id.UserID(buyerID.UUID)
		t.BuyerID = &b
	}
	t.Status = models.TransferStatus(status)
	t.Currency = id.Currency(currency)
	if completedDate.Valid {
		t.CompletedDate = &completedDate.Time
	}
	if err := json.Unmarshal(sellerDetails, &t.SellerDetails); err != nil {
		return nil, fmt.Errorf("unmarshal seller details: %w", err)
	}
	if err := unmarshalNullable(buyerVerification, &t.BuyerVerification); err != nil {
		return nil, fmt.Errorf("unmarshal buyer verification: %w", err)
	}
	if err := unmarshalNullable(handover, &t.HandoverConfirmation); err != nil {
		return nil, fmt.Errorf("unmarshal handover confirmation: %w", err)
	}
	if err := json.Unmarshal(fraud, &t.FraudPreventionData); err != nil {
		return nil, fmt.Errorf("unmarshal fraud prevention data: %w", err)
	}
	return &t, nil
}

func nullableUserID(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}

func marshalNullable(v any) ([]byte, error) {
	switch t := v.(type) {
	case *models.BirdVerificationDetails:
		if t == nil {
			return nil, nil
		}
	case *models.HandoverConfirmation:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func unmarshalNullable[T any](raw []byte, target **T) error {
	if len(raw) == 0 {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return err
	}
	*target = v
	return nil
}

//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a testcontainers Postgres instance with the
// service schema already applied.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

// schema mirrors the DDL documented on each Postgres store.
const schema = `
CREATE TABLE IF NOT EXISTS transfer_requests (
    id                    UUID PRIMARY KEY,
    asset_id              UUID NOT NULL,
    seller_id             UUID NOT NULL,
    buyer_id              UUID,
    status                TEXT NOT NULL,
    initiated_date        TIMESTAMPTZ NOT NULL,
    completed_date        TIMESTAMPTZ,
    agreed_price          NUMERIC(12,2) NOT NULL,
    currency              TEXT NOT NULL,
    transfer_location     TEXT NOT NULL DEFAULT '',
    transfer_location_lat DOUBLE PRECISION,
    transfer_location_lng DOUBLE PRECISION,
    seller_details        JSONB NOT NULL,
    buyer_verification    JSONB,
    handover_confirmation JSONB,
    fraud_prevention_data JSONB NOT NULL,
    notes                 TEXT NOT NULL DEFAULT '',
    is_active             BOOLEAN NOT NULL,
    version               BIGINT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS transfer_requests_one_active_idx
    ON transfer_requests (asset_id) WHERE is_active;
CREATE INDEX IF NOT EXISTS transfer_requests_seller_idx ON transfer_requests (seller_id);
CREATE INDEX IF NOT EXISTS transfer_requests_buyer_idx ON transfer_requests (buyer_id);

CREATE TABLE IF NOT EXISTS ownership_records (
    id                  UUID PRIMARY KEY,
    asset_id            UUID NOT NULL,
    previous_owner_id   UUID NOT NULL,
    new_owner_id        UUID NOT NULL,
    transfer_request_id UUID NOT NULL UNIQUE,
    transfer_date       TIMESTAMPTZ NOT NULL,
    price               NUMERIC(12,2) NOT NULL,
    currency            TEXT NOT NULL,
    location            TEXT NOT NULL DEFAULT '',
    verification_hash   TEXT NOT NULL,
    blockchain_tx_id    TEXT,
    is_reversible       BOOLEAN NOT NULL DEFAULT FALSE,
    legal_documents     JSONB
);
CREATE INDEX IF NOT EXISTS ownership_records_asset_idx ON ownership_records (asset_id);

CREATE TABLE IF NOT EXISTS transfer_notifications (
    id              UUID PRIMARY KEY,
    recipient_id    UUID NOT NULL,
    sender_id       UUID NOT NULL,
    transfer_id     UUID NOT NULL,
    asset_id        UUID NOT NULL,
    type            TEXT NOT NULL,
    title           TEXT NOT NULL,
    message         TEXT NOT NULL,
    action_required BOOLEAN NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    expires_at      TIMESTAMPTZ,
    read_at         TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS transfer_notifications_recipient_idx
    ON transfer_notifications (recipient_id);

CREATE TABLE IF NOT EXISTS fowls (
    id       UUID PRIMARY KEY,
    owner_id UUID NOT NULL,
    name     TEXT NOT NULL,
    breed    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS audit_outbox (
    seq          BIGSERIAL PRIMARY KEY,
    category     TEXT NOT NULL,
    occurred_at  TIMESTAMPTZ NOT NULL,
    actor_id     UUID,
    transfer_id  UUID,
    asset_id     UUID,
    action       TEXT NOT NULL,
    reason       TEXT NOT NULL DEFAULT '',
    request_id   TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMPTZ
);
`

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("fowlgate_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Container lifetime is managed by the singleton Manager; Ryuk reaps it.

	return &PostgresContainer{
		Container: container,
		URL:       url,
		DB:        db,
	}
}

// TruncateTables empties the named tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", ")))
	return err
}

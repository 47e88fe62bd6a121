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

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// registry schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("wardbook_test"),
		tcpostgres.WithUsername("wardbook"),
		tcpostgres.WithPassword("wardbook"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
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

	if err := applySchema(ctx, db); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Note: We don't register t.Cleanup here because the container is managed
	// by the singleton Manager and shared across test suites. Ryuk handles cleanup.

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables empties the given tables. Use between tests to ensure isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}

func applySchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS households (
			id         UUID PRIMARY KEY,
			code       TEXT NOT NULL,
			address    TEXT NOT NULL,
			status     INT NOT NULL,
			owner_id   UUID,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS households_code_key ON households (lower(code))`,
		`CREATE TABLE IF NOT EXISTS residents (
			id                        UUID PRIMARY KEY,
			national_id               TEXT UNIQUE,
			full_name                 TEXT NOT NULL,
			date_of_birth             TIMESTAMPTZ NOT NULL,
			gender                    TEXT NOT NULL,
			household_id              UUID REFERENCES households (id),
			relation                  TEXT NOT NULL,
			status                    INT NOT NULL,
			moved_out_by_deactivation BOOLEAN NOT NULL DEFAULT FALSE,
			created_at                TIMESTAMPTZ NOT NULL,
			updated_at                TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS residents_household_idx ON residents (household_id)`,
		`CREATE TABLE IF NOT EXISTS fee_types (
			id          UUID PRIMARY KEY,
			name        TEXT NOT NULL,
			mandatory   BOOLEAN NOT NULL,
			unit_price  BIGINT NOT NULL,
			active_from TIMESTAMPTZ NOT NULL,
			active_to   TIMESTAMPTZ,
			active      BOOLEAN NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fee_records (
			id           UUID PRIMARY KEY,
			fee_type_id  UUID NOT NULL REFERENCES fee_types (id),
			household_id UUID NOT NULL REFERENCES households (id),
			amount       BIGINT NOT NULL,
			status       INT NOT NULL,
			method       TEXT NOT NULL,
			note         TEXT NOT NULL DEFAULT '',
			recorder_id  UUID NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS fee_records_pair_idx ON fee_records (fee_type_id, household_id)`,
		`CREATE TABLE IF NOT EXISTS change_requests (
			id              UUID PRIMARY KEY,
			change_type     INT NOT NULL,
			resident_id     UUID,
			household_id    UUID,
			payload         JSONB NOT NULL,
			note            TEXT NOT NULL DEFAULT '',
			approval_status INT NOT NULL,
			approver_id     UUID,
			resolved_at     TIMESTAMPTZ,
			created_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS change_requests_status_idx ON change_requests (approval_status)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

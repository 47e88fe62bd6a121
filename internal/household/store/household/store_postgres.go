package household

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"wardbook/internal/household/models"
	id "wardbook/pkg/domain"
	"wardbook/pkg/platform/sentinel"
	platformtx "wardbook/pkg/platform/tx"
)

// Postgres persists households in PostgreSQL. Queries join an ambient
// transaction when one is carried by the context.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

func (s *Postgres) Create(ctx context.Context, household *models.Household) error {
	q := platformtx.From(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO households (id, code, address, status, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		household.ID.String(),
		household.Code,
		household.Address,
		int(household.Status),
		ownerValue(household.OwnerID),
		household.CreatedAt,
		household.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create household: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, householdID id.HouseholdID) (*models.Household, error) {
	q := platformtx.From(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT id, code, address, status, owner_id, created_at, updated_at
		FROM households
		WHERE id = $1
	`, householdID.String())
	return scanHousehold(row)
}

func (s *Postgres) FindByCode(ctx context.Context, code string) (*models.Household, error) {
	q := platformtx.From(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT id, code, address, status, owner_id, created_at, updated_at
		FROM households
		WHERE lower(code) = lower($1)
	`, code)
	return scanHousehold(row)
}

func (s *Postgres) Update(ctx context.Context, household *models.Household) error {
	q := platformtx.From(ctx, s.db)
	result, err := q.ExecContext(ctx, `
		UPDATE households
		SET address = $2, status = $3, owner_id = $4, updated_at = $5
		WHERE id = $1
	`,
		household.ID.String(),
		household.Address,
		int(household.Status),
		ownerValue(household.OwnerID),
		household.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update household: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update household rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func ownerValue(ownerID *id.ResidentID) any {
	if ownerID == nil {
		return nil
	}
	return ownerID.String()
}

func scanHousehold(row *sql.Row) (*models.Household, error) {
	var (
		household  models.Household
		rawID      string
		rawOwnerID sql.NullString
		status     int
	)
	err := row.Scan(&rawID, &household.Code, &household.Address, &status, &rawOwnerID, &household.CreatedAt, &household.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan household: %w", err)
	}
	householdID, err := id.ParseHouseholdID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan household id: %w", err)
	}
	household.ID = householdID
	household.Status = models.HouseholdStatus(status)
	if rawOwnerID.Valid {
		ownerID, err := id.ParseResidentID(rawOwnerID.String)
		if err != nil {
			return nil, fmt.Errorf("scan household owner id: %w", err)
		}
		household.OwnerID = &ownerID
	}
	return &household, nil
}

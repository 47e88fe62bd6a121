package feetype

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wardbook/internal/ledger/models"
	id "wardbook/pkg/domain"
	"wardbook/pkg/platform/sentinel"
	platformtx "wardbook/pkg/platform/tx"
)

// Postgres persists fee types in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const feeTypeColumns = `id, name, mandatory, unit_price, active_from, active_to, active, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, feeType *models.FeeType) error {
	q := platformtx.From(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO fee_types (`+feeTypeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		feeType.ID.String(),
		feeType.Name,
		feeType.Mandatory,
		feeType.UnitPrice,
		feeType.ActiveFrom,
		feeType.ActiveTo,
		feeType.Active,
		feeType.CreatedAt,
		feeType.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create fee type: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, feeTypeID id.FeeTypeID) (*models.FeeType, error) {
	q := platformtx.From(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT `+feeTypeColumns+`
		FROM fee_types
		WHERE id = $1
	`, feeTypeID.String())
	feeType, err := scanFeeType(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return feeType, nil
}

func (s *Postgres) Update(ctx context.Context, feeType *models.FeeType) error {
	q := platformtx.From(ctx, s.db)
	result, err := q.ExecContext(ctx, `
		UPDATE fee_types
		SET name = $2, mandatory = $3, unit_price = $4, active_from = $5,
		    active_to = $6, active = $7, updated_at = $8
		WHERE id = $1
	`,
		feeType.ID.String(),
		feeType.Name,
		feeType.Mandatory,
		feeType.UnitPrice,
		feeType.ActiveFrom,
		feeType.ActiveTo,
		feeType.Active,
		feeType.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update fee type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fee type rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.FeeType, error) {
	q := platformtx.From(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+feeTypeColumns+`
		FROM fee_types
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list fee types: %w", err)
	}
	defer rows.Close()

	var feeTypes []*models.FeeType
	for rows.Next() {
		feeType, err := scanFeeType(rows.Scan)
		if err != nil {
			return nil, err
		}
		feeTypes = append(feeTypes, feeType)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fee types: %w", err)
	}
	return feeTypes, nil
}

func scanFeeType(scan func(dest ...any) error) (*models.FeeType, error) {
	var (
		feeType  models.FeeType
		rawID    string
		activeTo sql.NullTime
	)
	err := scan(
		&rawID,
		&feeType.Name,
		&feeType.Mandatory,
		&feeType.UnitPrice,
		&feeType.ActiveFrom,
		&activeTo,
		&feeType.Active,
		&feeType.CreatedAt,
		&feeType.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan fee type: %w", err)
	}
	feeTypeID, err := id.ParseFeeTypeID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan fee type id: %w", err)
	}
	feeType.ID = feeTypeID
	if activeTo.Valid {
		t := activeTo.Time
		feeType.ActiveTo = &t
	}
	return &feeType, nil
}

package feerecord

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

// Postgres persists fee records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const feeRecordColumns = `id, fee_type_id, household_id, amount, status, method, note, recorder_id, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, record *models.FeeRecord) error {
	q := platformtx.From(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO fee_records (`+feeRecordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		record.ID.String(),
		record.FeeTypeID.String(),
		record.HouseholdID.String(),
		record.Amount,
		int(record.Status),
		string(record.Method),
		record.Note,
		record.RecorderID.String(),
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create fee record: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, recordID id.FeeRecordID) (*models.FeeRecord, error) {
	q := platformtx.From(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT `+feeRecordColumns+`
		FROM fee_records
		WHERE id = $1
	`, recordID.String())
	record, err := scanFeeRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *Postgres) Update(ctx context.Context, record *models.FeeRecord) error {
	q := platformtx.From(ctx, s.db)
	result, err := q.ExecContext(ctx, `
		UPDATE fee_records
		SET amount = $2, status = $3, note = $4, updated_at = $5
		WHERE id = $1
	`,
		record.ID.String(),
		record.Amount,
		int(record.Status),
		record.Note,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update fee record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fee record rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByPair(ctx context.Context, feeTypeID id.FeeTypeID, householdID id.HouseholdID) ([]models.FeeRecord, error) {
	q := platformtx.From(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+feeRecordColumns+`
		FROM fee_records
		WHERE fee_type_id = $1 AND household_id = $2
		ORDER BY created_at
	`, feeTypeID.String(), householdID.String())
	if err != nil {
		return nil, fmt.Errorf("list fee records: %w", err)
	}
	defer rows.Close()

	var matched []models.FeeRecord
	for rows.Next() {
		record, err := scanFeeRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		matched = append(matched, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fee records: %w", err)
	}
	return matched, nil
}

func scanFeeRecord(scan func(dest ...any) error) (*models.FeeRecord, error) {
	var (
		record         models.FeeRecord
		rawID          string
		rawFeeTypeID   string
		rawHouseholdID string
		rawRecorderID  string
		status         int
		method         string
	)
	err := scan(
		&rawID,
		&rawFeeTypeID,
		&rawHouseholdID,
		&record.Amount,
		&status,
		&method,
		&record.Note,
		&rawRecorderID,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan fee record: %w", err)
	}

	recordID, err := id.ParseFeeRecordID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan fee record id: %w", err)
	}
	feeTypeID, err := id.ParseFeeTypeID(rawFeeTypeID)
	if err != nil {
		return nil, fmt.Errorf("scan fee record fee type id: %w", err)
	}
	householdID, err := id.ParseHouseholdID(rawHouseholdID)
	if err != nil {
		return nil, fmt.Errorf("scan fee record household id: %w", err)
	}
	recorderID, err := id.ParseUserID(rawRecorderID)
	if err != nil {
		return nil, fmt.Errorf("scan fee record recorder id: %w", err)
	}
	record.ID = recordID
	record.FeeTypeID = feeTypeID
	record.HouseholdID = householdID
	record.RecorderID = recorderID
	record.Status = models.PaymentStatus(status)
	record.Method = models.PaymentMethod(method)
	return &record, nil
}

package resident

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

// Postgres persists residents in PostgreSQL. Queries join an ambient
// transaction when one is carried by the context.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

const residentColumns = `id, national_id, full_name, date_of_birth, gender, household_id, relation, status, moved_out_by_deactivation, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, resident *models.Resident) error {
	q := platformtx.From(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO residents (`+residentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		resident.ID.String(),
		nullString(resident.NationalID),
		resident.FullName,
		resident.DateOfBirth,
		string(resident.Gender),
		householdValue(resident.HouseholdID),
		resident.Relation,
		int(resident.Status),
		resident.MovedOutByDeactivation,
		resident.CreatedAt,
		resident.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create resident: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, residentID id.ResidentID) (*models.Resident, error) {
	q := platformtx.From(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT `+residentColumns+`
		FROM residents
		WHERE id = $1
	`, residentID.String())
	return scanResident(row)
}

func (s *Postgres) FindByNationalID(ctx context.Context, nationalID string) (*models.Resident, error) {
	if nationalID == "" {
		return nil, sentinel.ErrNotFound
	}
	q := platformtx.From(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT `+residentColumns+`
		FROM residents
		WHERE national_id = $1
	`, nationalID)
	return scanResident(row)
}

func (s *Postgres) Update(ctx context.Context, resident *models.Resident) error {
	q := platformtx.From(ctx, s.db)
	result, err := q.ExecContext(ctx, `
		UPDATE residents
		SET national_id = $2, full_name = $3, date_of_birth = $4, gender = $5,
		    household_id = $6, relation = $7, status = $8,
		    moved_out_by_deactivation = $9, updated_at = $10
		WHERE id = $1
	`,
		resident.ID.String(),
		nullString(resident.NationalID),
		resident.FullName,
		resident.DateOfBirth,
		string(resident.Gender),
		householdValue(resident.HouseholdID),
		resident.Relation,
		int(resident.Status),
		resident.MovedOutByDeactivation,
		resident.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update resident: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update resident rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByHousehold(ctx context.Context, householdID id.HouseholdID) ([]*models.Resident, error) {
	q := platformtx.From(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+residentColumns+`
		FROM residents
		WHERE household_id = $1
		ORDER BY created_at
	`, householdID.String())
	if err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	defer rows.Close()

	var members []*models.Resident
	for rows.Next() {
		resident, err := scanResidentRow(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, resident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	return members, nil
}

func (s *Postgres) CountActiveMembers(ctx context.Context, householdID id.HouseholdID) (int, error) {
	q := platformtx.From(ctx, s.db)
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT count(*)
		FROM residents
		WHERE household_id = $1 AND status IN ($2, $3, $4)
	`,
		householdID.String(),
		int(models.ResidentStatusPermanent),
		int(models.ResidentStatusTemporaryResident),
		int(models.ResidentStatusTemporaryAbsent),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active members: %w", err)
	}
	return count, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func householdValue(householdID *id.HouseholdID) any {
	if householdID == nil {
		return nil
	}
	return householdID.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResident(row *sql.Row) (*models.Resident, error) {
	resident, err := scanResidentFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return resident, nil
}

func scanResidentRow(rows *sql.Rows) (*models.Resident, error) {
	return scanResidentFrom(rows)
}

func scanResidentFrom(scanner rowScanner) (*models.Resident, error) {
	var (
		resident       models.Resident
		rawID          string
		rawNationalID  sql.NullString
		rawGender      string
		rawHouseholdID sql.NullString
		status         int
	)
	err := scanner.Scan(
		&rawID,
		&rawNationalID,
		&resident.FullName,
		&resident.DateOfBirth,
		&rawGender,
		&rawHouseholdID,
		&resident.Relation,
		&status,
		&resident.MovedOutByDeactivation,
		&resident.CreatedAt,
		&resident.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan resident: %w", err)
	}
	residentID, err := id.ParseResidentID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan resident id: %w", err)
	}
	resident.ID = residentID
	resident.NationalID = rawNationalID.String
	resident.Gender = models.Gender(rawGender)
	resident.Status = models.ResidentStatus(status)
	if rawHouseholdID.Valid {
		householdID, err := id.ParseHouseholdID(rawHouseholdID.String)
		if err != nil {
			return nil, fmt.Errorf("scan resident household id: %w", err)
		}
		resident.HouseholdID = &householdID
	}
	return &resident, nil
}

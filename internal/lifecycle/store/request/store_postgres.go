package request

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"wardbook/internal/lifecycle/models"
	id "wardbook/pkg/domain"
	"wardbook/pkg/platform/sentinel"
	platformtx "wardbook/pkg/platform/tx"
)

// Postgres persists change requests in PostgreSQL. Queries join an ambient
// transaction when one is carried by the context. The payload union is
// stored as jsonb.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

const requestColumns = `id, change_type, resident_id, household_id, payload, note, approval_status, approver_id, resolved_at, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, request *models.ChangeRequest) error {
	payload, err := json.Marshal(request.Payload)
	if err != nil {
		return fmt.Errorf("marshal change request payload: %w", err)
	}
	q := platformtx.From(ctx, s.db)
	_, err = q.ExecContext(ctx, `
		INSERT INTO change_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		request.ID.String(),
		int(request.Type),
		residentValue(request.ResidentID),
		householdValue(request.HouseholdID),
		payload,
		request.Note,
		int(request.ApprovalStatus),
		approverValue(request.ApproverID),
		request.ResolvedAt,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create change request: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error) {
	q := platformtx.From(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM change_requests
		WHERE id = $1
	`, requestID.String())
	request, err := scanRequestFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return request, nil
}

func (s *Postgres) List(ctx context.Context, status *models.ApprovalStatus) ([]*models.ChangeRequest, error) {
	q := platformtx.From(ctx, s.db)
	query := `SELECT ` + requestColumns + ` FROM change_requests`
	var args []any
	if status != nil {
		query += ` WHERE approval_status = $1`
		args = append(args, int(*status))
	}
	query += ` ORDER BY created_at`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.ChangeRequest
	for rows.Next() {
		request, err := scanRequestFrom(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	return requests, nil
}

// MarkResolved writes the terminal state with a status-guarded UPDATE. Zero
// affected rows means either an absent id or a request that was resolved by
// a concurrent caller; a follow-up read tells the two apart.
func (s *Postgres) MarkResolved(ctx context.Context, request *models.ChangeRequest) error {
	q := platformtx.From(ctx, s.db)
	result, err := q.ExecContext(ctx, `
		UPDATE change_requests
		SET resident_id = $2, approval_status = $3, approver_id = $4,
		    resolved_at = $5, updated_at = $6
		WHERE id = $1 AND approval_status = $7
	`,
		request.ID.String(),
		residentValue(request.ResidentID),
		int(request.ApprovalStatus),
		approverValue(request.ApproverID),
		request.ResolvedAt,
		request.UpdatedAt,
		int(models.ApprovalStatusPending),
	)
	if err != nil {
		return fmt.Errorf("resolve change request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve change request rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := q.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM change_requests WHERE id = $1)
		`, request.ID.String()).Scan(&exists); err != nil {
			return fmt.Errorf("resolve change request existence check: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrAlreadyResolved
	}
	return nil
}

func residentValue(residentID *id.ResidentID) any {
	if residentID == nil {
		return nil
	}
	return residentID.String()
}

func householdValue(householdID *id.HouseholdID) any {
	if householdID == nil {
		return nil
	}
	return householdID.String()
}

func approverValue(approverID *id.UserID) any {
	if approverID == nil {
		return nil
	}
	return approverID.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequestFrom(scanner rowScanner) (*models.ChangeRequest, error) {
	var (
		request        models.ChangeRequest
		rawID          string
		changeType     int
		rawResidentID  sql.NullString
		rawHouseholdID sql.NullString
		rawPayload     []byte
		approvalStatus int
		rawApproverID  sql.NullString
		resolvedAt     sql.NullTime
	)
	err := scanner.Scan(
		&rawID,
		&changeType,
		&rawResidentID,
		&rawHouseholdID,
		&rawPayload,
		&request.Note,
		&approvalStatus,
		&rawApproverID,
		&resolvedAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan change request: %w", err)
	}
	requestID, err := id.ParseChangeRequestID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan change request id: %w", err)
	}
	request.ID = requestID
	request.Type = models.ChangeType(changeType)
	request.ApprovalStatus = models.ApprovalStatus(approvalStatus)
	if err := json.Unmarshal(rawPayload, &request.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal change request payload: %w", err)
	}
	if rawResidentID.Valid {
		residentID, err := id.ParseResidentID(rawResidentID.String)
		if err != nil {
			return nil, fmt.Errorf("scan change request resident id: %w", err)
		}
		request.ResidentID = &residentID
	}
	if rawHouseholdID.Valid {
		householdID, err := id.ParseHouseholdID(rawHouseholdID.String)
		if err != nil {
			return nil, fmt.Errorf("scan change request household id: %w", err)
		}
		request.HouseholdID = &householdID
	}
	if rawApproverID.Valid {
		approverID, err := id.ParseUserID(rawApproverID.String)
		if err != nil {
			return nil, fmt.Errorf("scan change request approver id: %w", err)
		}
		request.ApproverID = &approverID
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		request.ResolvedAt = &t
	}
	return &request, nil
}

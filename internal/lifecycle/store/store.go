// Package store defines persistence contracts for lifecycle change requests.
package store

import (
	"context"

	"wardbook/internal/lifecycle/models"
	id "wardbook/pkg/domain"
)

// ChangeRequestStore persists change requests. Implementations return
// sentinel.ErrNotFound for absent ids.
//
// MarkResolved is the approval state machine's compare-and-swap: it persists
// the request's terminal state (approval status, approver, resolved-at, and
// any back-filled resident id) only if the stored row is still pending, and
// returns sentinel.ErrAlreadyResolved otherwise. Two concurrent resolutions
// of the same request therefore cannot both succeed.
type ChangeRequestStore interface {
	Create(ctx context.Context, request *models.ChangeRequest) error
	FindByID(ctx context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error)
	List(ctx context.Context, status *models.ApprovalStatus) ([]*models.ChangeRequest, error)
	MarkResolved(ctx context.Context, request *models.ChangeRequest) error
}

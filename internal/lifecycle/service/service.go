// Package service runs the resident lifecycle: change request intake, the
// approval state machine, and the side effects an approval triggers.
//
// A request resolves exactly once. The terminal stamp and its side effects
// share one transaction; the store's status-guarded write is the
// compare-and-swap that makes the loser of a concurrent resolution fail with
// an invalid-transition error instead of overwriting.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	hhstore "wardbook/internal/household/store"
	lcmetrics "wardbook/internal/lifecycle/metrics"
	"wardbook/internal/lifecycle/models"
	"wardbook/internal/lifecycle/store"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
	"wardbook/pkg/platform/sentinel"
	"wardbook/pkg/requestcontext"
)

// Service orchestrates lifecycle change requests.
type Service struct {
	requests   store.ChangeRequestStore
	households hhstore.HouseholdStore
	residents  hhstore.ResidentStore
	tx         ApprovalTx
	logger     *slog.Logger
	metrics    *lcmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *lcmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(requests store.ChangeRequestStore, households hhstore.HouseholdStore, residents hhstore.ResidentStore, tx ApprovalTx, opts ...Option) *Service {
	s := &Service{
		requests:   requests,
		households: households,
		residents:  residents,
		tx:         tx,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequestInput describes a proposed lifecycle change.
type CreateRequestInput struct {
	Type        models.ChangeType
	ResidentID  *id.ResidentID
	HouseholdID *id.HouseholdID
	Payload     models.Payload
	Note        string
}

// CreateRequest validates the payload for its change type and persists the
// request in pending state. Referenced residents and households must exist;
// split selections are checked against the household's current membership.
// Nothing persists on a validation failure.
func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (*models.ChangeRequest, error) {
	now := requestcontext.Now(ctx)
	request, err := models.NewChangeRequest(id.NewChangeRequestID(), input.Type, input.ResidentID, input.HouseholdID, input.Payload, input.Note, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, request); err != nil {
		return nil, err
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create change request")
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestsCreated(request.Type.String())
	}
	s.logger.InfoContext(ctx, "change request created",
		"request_id", request.ID,
		"change_type", request.Type.String(),
	)
	return request, nil
}

// Get returns a change request by id.
func (s *Service) Get(ctx context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRequestErr(err)
	}
	return request, nil
}

// List returns change requests, optionally filtered to one approval status.
func (s *Service) List(ctx context.Context, status *models.ApprovalStatus) ([]*models.ChangeRequest, error) {
	requests, err := s.requests.List(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list change requests")
	}
	return requests, nil
}

// Approve transitions a pending request to approved and applies its side
// effects. Stamp and side effects commit together; if the resolver fails the
// request stays pending. Re-approving a resolved request fails with an
// invalid-transition error.
func (s *Service) Approve(ctx context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveApprove(start)
		}
	}()

	approverID := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)
	var request *models.ChangeRequest

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		request, err = s.requests.FindByID(txCtx, requestID)
		if err != nil {
			return wrapRequestErr(err)
		}
		if err := request.CanResolve(); err != nil {
			return err
		}
		if err := s.resolve(txCtx, request, now); err != nil {
			if s.metrics != nil {
				s.metrics.IncrementResolverFailures(request.Type.String())
			}
			return err
		}
		request.ApplyApproval(approverID, now)
		return s.persistResolution(txCtx, request)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestsResolved(request.Type.String(), "approved")
	}
	s.logger.InfoContext(ctx, "change request approved",
		"request_id", request.ID,
		"change_type", request.Type.String(),
		"approver_id", approverID,
		"request_context_id", requestcontext.RequestID(ctx),
	)
	return request, nil
}

// Reject transitions a pending request to rejected. No side effects run.
func (s *Service) Reject(ctx context.Context, requestID id.ChangeRequestID) (*models.ChangeRequest, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}

	approverID := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)
	var request *models.ChangeRequest

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		request, err = s.requests.FindByID(txCtx, requestID)
		if err != nil {
			return wrapRequestErr(err)
		}
		if err := request.CanResolve(); err != nil {
			return err
		}
		request.ApplyRejection(approverID, now)
		return s.persistResolution(txCtx, request)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestsResolved(request.Type.String(), "rejected")
	}
	s.logger.InfoContext(ctx, "change request rejected",
		"request_id", request.ID,
		"change_type", request.Type.String(),
		"approver_id", approverID,
	)
	return request, nil
}

func (s *Service) persistResolution(ctx context.Context, request *models.ChangeRequest) error {
	err := s.requests.MarkResolved(ctx, request)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrAlreadyResolved):
		return dErrors.New(dErrors.CodeInvalidTransition, "request was resolved by a concurrent caller")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "change request not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve change request")
	}
}

// checkReferences verifies that the ids a request points at exist, and for
// split requests that the selection is a valid strict subset.
func (s *Service) checkReferences(ctx context.Context, request *models.ChangeRequest) error {
	if request.ResidentID != nil {
		if _, err := s.residents.FindByID(ctx, *request.ResidentID); err != nil {
			return wrapResidentErr(err)
		}
	}
	if request.HouseholdID != nil {
		if _, err := s.households.FindByID(ctx, *request.HouseholdID); err != nil {
			return wrapHouseholdErr(err)
		}
	}
	switch request.Type {
	case models.ChangeTypeSplit:
		return s.checkSplitSelection(ctx, *request.HouseholdID, request.Payload.Split)
	case models.ChangeTypeOwnerChange:
		return s.checkOwnerCandidate(ctx, *request.HouseholdID, request.Payload.OwnerChange.NewOwnerID)
	}
	return nil
}

func (s *Service) checkSplitSelection(ctx context.Context, householdID id.HouseholdID, payload *models.SplitPayload) error {
	household, err := s.households.FindByID(ctx, householdID)
	if err != nil {
		return wrapHouseholdErr(err)
	}
	members, err := s.residents.ListByHousehold(ctx, householdID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list household members")
	}

	active := make(map[id.ResidentID]bool, len(members))
	for _, member := range members {
		if member.IsActiveMember() {
			active[member.ID] = true
		}
	}
	seen := make(map[id.ResidentID]bool, len(payload.MemberIDs))
	for _, memberID := range payload.MemberIDs {
		if seen[memberID] {
			return dErrors.New(dErrors.CodeValidation, "member_ids contains duplicates")
		}
		seen[memberID] = true
		if !active[memberID] {
			return dErrors.Newf(dErrors.CodeValidation, "member %s is not an active member of the household", memberID)
		}
		// The source household keeps its owner.
		if household.OwnerID != nil && *household.OwnerID == memberID {
			return dErrors.New(dErrors.CodeValidation, "the current owner cannot be moved by a split")
		}
	}
	// The entire household may never move; at least one active member stays.
	if len(payload.MemberIDs) >= len(active) {
		return dErrors.New(dErrors.CodeValidation, "a split must leave at least one active member behind")
	}
	if household.OwnerID != nil && *household.OwnerID == payload.NewOwnerID {
		return dErrors.New(dErrors.CodeValidation, "the current owner cannot be the new household's owner")
	}
	return nil
}

func (s *Service) checkOwnerCandidate(ctx context.Context, householdID id.HouseholdID, ownerID id.ResidentID) error {
	candidate, err := s.residents.FindByID(ctx, ownerID)
	if err != nil {
		return wrapResidentErr(err)
	}
	if candidate.HouseholdID == nil || *candidate.HouseholdID != householdID || !candidate.IsActiveMember() {
		return dErrors.New(dErrors.CodeValidation, "new owner must be an active member of the household")
	}
	return nil
}

func requireStaff(ctx context.Context) error {
	if requestcontext.Role(ctx) != requestcontext.RoleStaff {
		return dErrors.New(dErrors.CodeForbidden, "staff role required")
	}
	return nil
}

func wrapRequestErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "change request not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "change request store failure")
}

func wrapResidentErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "resident not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "resident store failure")
}

func wrapHouseholdErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "household not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "household store failure")
}

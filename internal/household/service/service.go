// Package service orchestrates household registration and the
// status-toggle cascade over residents.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	hhmetrics "wardbook/internal/household/metrics"
	"wardbook/internal/household/models"
	"wardbook/internal/household/store"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
	"wardbook/pkg/platform/sentinel"
	"wardbook/pkg/requestcontext"
)

// Service orchestrates household and resident registry management.
type Service struct {
	households store.HouseholdStore
	residents  store.ResidentStore
	tx         StoreTx
	logger     *slog.Logger
	metrics    *hhmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *hhmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(households store.HouseholdStore, residents store.ResidentStore, tx StoreTx, opts ...Option) *Service {
	s := &Service{
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

// OwnerInput describes the first resident registered with a household.
type OwnerInput struct {
	FullName    string
	DateOfBirth time.Time
	Gender      models.Gender
	NationalID  string
}

// RegisterInput describes a new household and its owner.
type RegisterInput struct {
	Code    string
	Address string
	Owner   OwnerInput
}

// HouseholdDetails pairs a household with its derived member count.
type HouseholdDetails struct {
	Household   *models.Household
	MemberCount int
}

// Register creates a household together with its owner resident. Both rows
// commit atomically; a duplicate code or national ID aborts the whole
// registration.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*HouseholdDetails, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	household, err := models.NewHousehold(id.NewHouseholdID(), input.Code, input.Address, now)
	if err != nil {
		return nil, err
	}
	owner, err := models.NewResident(id.NewResidentID(), household.ID, input.Owner.FullName, input.Owner.DateOfBirth, input.Owner.Gender, "owner", now)
	if err != nil {
		return nil, err
	}
	owner.NationalID = input.Owner.NationalID
	household.SetOwner(owner.ID, now)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.households.Create(txCtx, household); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "household code must be unique")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create household")
		}
		if err := s.residents.Create(txCtx, owner); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeDuplicateResident, "a resident with this national ID already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create owner resident")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementHouseholdsRegistered()
	}
	s.logger.InfoContext(ctx, "household registered",
		"household_id", household.ID,
		"code", household.Code,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &HouseholdDetails{Household: household, MemberCount: 1}, nil
}

// Get fetches a household with its derived active member count.
func (s *Service) Get(ctx context.Context, householdID id.HouseholdID) (*HouseholdDetails, error) {
	household, err := s.households.FindByID(ctx, householdID)
	if err != nil {
		return nil, wrapHouseholdErr(err)
	}
	count, err := s.residents.CountActiveMembers(ctx, householdID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count members")
	}
	return &HouseholdDetails{Household: household, MemberCount: count}, nil
}

// ListResidents returns all residents attached to the household, including
// moved-out and deceased ones. Read-only; holds no locks.
func (s *Service) ListResidents(ctx context.Context, householdID id.HouseholdID) ([]*models.Resident, error) {
	if _, err := s.households.FindByID(ctx, householdID); err != nil {
		return nil, wrapHouseholdErr(err)
	}
	members, err := s.residents.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list residents")
	}
	return members, nil
}

// ToggleStatus flips a household between active and inactive, cascading to
// members inside the same transaction.
//
// Deactivation forces every billing-active member to moved-out and marks
// them as moved out by this toggle. Reactivation restores exactly the
// members carrying that marker; residents moved out by an approved change
// request stay moved out.
func (s *Service) ToggleStatus(ctx context.Context, householdID id.HouseholdID) (*models.Household, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var (
		household *models.Household
		restored  int
		direction string
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		household, err = s.households.FindByID(txCtx, householdID)
		if err != nil {
			return wrapHouseholdErr(err)
		}

		members, err := s.residents.ListByHousehold(txCtx, householdID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list residents")
		}

		if household.IsActive() {
			direction = "deactivate"
			if err := household.CanDeactivate(); err != nil {
				return err
			}
			household.ApplyDeactivation(now)
			for _, member := range members {
				if !member.Status.CountsTowardBilling() {
					continue
				}
				member.ApplyDeactivationMoveOut(now)
				if err := s.residents.Update(txCtx, member); err != nil {
					return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cascade member status")
				}
			}
		} else {
			direction = "reactivate"
			if err := household.CanReactivate(); err != nil {
				return err
			}
			household.ApplyReactivation(now)
			for _, member := range members {
				if member.Status != models.ResidentStatusMovedOut || !member.MovedOutByDeactivation {
					continue
				}
				member.ApplyReactivation(now)
				if err := s.residents.Update(txCtx, member); err != nil {
					return dErrors.Wrap(err, dErrors.CodeInternal, "failed to restore member status")
				}
				restored++
			}
		}

		if err := s.households.Update(txCtx, household); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update household")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementStatusToggle(direction)
		if restored > 0 {
			s.metrics.AddResidentsRestored(restored)
		}
	}
	s.logger.InfoContext(ctx, "household status toggled",
		"household_id", household.ID,
		"direction", direction,
		"restored", restored,
		"request_id", requestcontext.RequestID(ctx),
	)
	return household, nil
}

func requireStaff(ctx context.Context) error {
	if requestcontext.Role(ctx) != requestcontext.RoleStaff {
		return dErrors.New(dErrors.CodeForbidden, "staff role required")
	}
	return nil
}

func wrapHouseholdErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "household not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "household store failure")
}

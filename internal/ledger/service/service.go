// Package service orchestrates the fee ledger: balance reads, payment
// recording and amendment, and fee type management.
//
// Balances are re-derived from persisted records on every read. Operations
// that read a balance and write based on it run inside a pair-serialized
// transaction so that the paid total of a mandatory fee can never exceed the
// expected amount, even under concurrent callers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	hhstore "wardbook/internal/household/store"
	ledgermetrics "wardbook/internal/ledger/metrics"
	"wardbook/internal/ledger/models"
	"wardbook/internal/ledger/store"
	"wardbook/internal/notify"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
	"wardbook/pkg/platform/sentinel"
	"wardbook/pkg/requestcontext"
)

// balanceFanout bounds concurrent balance computations in GetHouseholdBalances.
const balanceFanout = 8

// Service orchestrates ledger operations.
type Service struct {
	feeTypes   store.FeeTypeStore
	feeRecords store.FeeRecordStore
	households hhstore.HouseholdStore
	residents  hhstore.ResidentStore
	tx         LedgerTx
	notifier   notify.Notifier
	logger     *slog.Logger
	metrics    *ledgermetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// New constructs a Service.
func New(feeTypes store.FeeTypeStore, feeRecords store.FeeRecordStore, households hhstore.HouseholdStore, residents hhstore.ResidentStore, tx LedgerTx, opts ...Option) *Service {
	s := &Service{
		feeTypes:   feeTypes,
		feeRecords: feeRecords,
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

// CreateFeeTypeInput describes a new charge definition.
type CreateFeeTypeInput struct {
	Name       string
	Mandatory  bool
	UnitPrice  int64
	ActiveFrom time.Time
	ActiveTo   *time.Time
}

// CreateFeeType registers a new fee type in inactive state.
func (s *Service) CreateFeeType(ctx context.Context, input CreateFeeTypeInput) (*models.FeeType, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	feeType, err := models.NewFeeType(id.NewFeeTypeID(), input.Name, input.Mandatory, input.UnitPrice, input.ActiveFrom, input.ActiveTo, now)
	if err != nil {
		return nil, err
	}
	if err := s.feeTypes.Create(ctx, feeType); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create fee type")
	}
	return feeType, nil
}

// ActivateFeeType opens a fee type for payments. Activating a mandatory fee
// type notifies the surrounding application after the write commits; the
// notification is fire-and-forget and never affects the operation's outcome.
func (s *Service) ActivateFeeType(ctx context.Context, feeTypeID id.FeeTypeID) (*models.FeeType, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}
	feeType, err := s.feeTypes.FindByID(ctx, feeTypeID)
	if err != nil {
		return nil, wrapFeeTypeErr(err)
	}
	if err := feeType.CanActivate(); err != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "fee type is already active")
	}
	feeType.ApplyActivation(requestcontext.Now(ctx))
	if err := s.feeTypes.Update(ctx, feeType); err != nil {
		return nil, wrapFeeTypeErr(err)
	}

	if s.metrics != nil {
		s.metrics.IncrementFeeTypesActivated()
	}
	if feeType.Mandatory && s.notifier != nil {
		event := notify.Event{
			Kind:       notify.KindMandatoryFeeActivated,
			FeeTypeID:  feeType.ID.String(),
			FeeType:    feeType.Name,
			UnitPrice:  feeType.UnitPrice,
			OccurredAt: requestcontext.Now(ctx),
		}
		go func() {
			notifyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.notifier.Publish(notifyCtx, event); err != nil {
				s.logger.Warn("fee activation notification failed",
					"fee_type_id", event.FeeTypeID,
					"error", err.Error(),
				)
			}
		}()
	}
	return feeType, nil
}

// DeactivateFeeType closes a fee type for payments.
func (s *Service) DeactivateFeeType(ctx context.Context, feeTypeID id.FeeTypeID) (*models.FeeType, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}
	feeType, err := s.feeTypes.FindByID(ctx, feeTypeID)
	if err != nil {
		return nil, wrapFeeTypeErr(err)
	}
	if err := feeType.CanDeactivate(); err != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "fee type is already inactive")
	}
	feeType.ApplyDeactivation(requestcontext.Now(ctx))
	if err := s.feeTypes.Update(ctx, feeType); err != nil {
		return nil, wrapFeeTypeErr(err)
	}
	return feeType, nil
}

// GetBalance computes the settlement state of a (fee type, household) pair.
// Read-only; holds no locks.
func (s *Service) GetBalance(ctx context.Context, feeTypeID id.FeeTypeID, householdID id.HouseholdID) (*models.Balance, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveGetBalance(start)
		}
	}()

	feeType, err := s.feeTypes.FindByID(ctx, feeTypeID)
	if err != nil {
		return nil, wrapFeeTypeErr(err)
	}
	if _, err := s.households.FindByID(ctx, householdID); err != nil {
		return nil, wrapHouseholdErr(err)
	}
	balance, err := s.computeBalance(ctx, feeType, householdID)
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// HouseholdBalance pairs one fee type with the household's balance on it.
type HouseholdBalance struct {
	FeeType *models.FeeType `json:"fee_type"`
	Balance models.Balance  `json:"balance"`
}

// GetHouseholdBalances computes the household's balance on every fee type,
// fanning the per-type computations out with a bounded errgroup.
func (s *Service) GetHouseholdBalances(ctx context.Context, householdID id.HouseholdID) ([]HouseholdBalance, error) {
	if _, err := s.households.FindByID(ctx, householdID); err != nil {
		return nil, wrapHouseholdErr(err)
	}
	feeTypes, err := s.feeTypes.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list fee types")
	}

	balances := make([]HouseholdBalance, len(feeTypes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(balanceFanout)
	for i, feeType := range feeTypes {
		g.Go(func() error {
			balance, err := s.computeBalance(gctx, feeType, householdID)
			if err != nil {
				return err
			}
			balances[i] = HouseholdBalance{FeeType: feeType, Balance: *balance}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return balances, nil
}

// RecordPaymentInput describes a payment to record.
type RecordPaymentInput struct {
	FeeTypeID   id.FeeTypeID
	HouseholdID id.HouseholdID
	Amount      int64
	Method      models.PaymentMethod
	Note        string
}

// PaymentResult pairs the affected record with the recomputed balance.
type PaymentResult struct {
	Record  *models.FeeRecord `json:"record"`
	Balance models.Balance    `json:"balance"`
}

// RecordPayment applies a payment against the pair's balance. The balance
// check and the insert run as one serialized unit; the loser of a concurrent
// race observes the updated balance and fails cleanly.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error) {
	if err := requireRecorder(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveRecordPayment(start)
		}
	}()

	if input.Amount <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "payment amount must be positive")
	}
	switch input.Method {
	case models.PaymentMethodOnline, models.PaymentMethodOffline:
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "payment method must be online or offline")
	}

	now := requestcontext.Now(ctx)
	recorder := requestcontext.UserID(ctx)
	var (
		result    *PaymentResult
		mandatory bool
	)

	err := s.tx.RunInPairTx(ctx, input.FeeTypeID, input.HouseholdID, func(txCtx context.Context) error {
		feeType, err := s.feeTypes.FindByID(txCtx, input.FeeTypeID)
		if err != nil {
			return wrapFeeTypeErr(err)
		}
		mandatory = feeType.Mandatory
		if !feeType.IsAcceptingPayments(now) {
			s.rejected("inactive_fee_type")
			return dErrors.New(dErrors.CodeInactiveFeeType, "fee type is not accepting payments")
		}
		if _, err := s.households.FindByID(txCtx, input.HouseholdID); err != nil {
			return wrapHouseholdErr(err)
		}

		before, err := s.computeBalance(txCtx, feeType, input.HouseholdID)
		if err != nil {
			return err
		}

		status := models.PaymentStatusPaid
		if feeType.Mandatory {
			if before.Remaining <= 0 {
				s.rejected("already_settled")
				return dErrors.New(dErrors.CodeAlreadySettled, "mandatory fee is already settled for this household")
			}
			if input.Amount > before.Remaining {
				s.rejected("amount_exceeds_remaining")
				return dErrors.Newf(dErrors.CodeAmountExceedsRemaining, "amount %d exceeds remaining balance %d", input.Amount, before.Remaining)
			}
			if input.Amount < before.Remaining {
				status = models.PaymentStatusPartial
			}
		}

		record := &models.FeeRecord{
			ID:          id.NewFeeRecordID(),
			FeeTypeID:   input.FeeTypeID,
			HouseholdID: input.HouseholdID,
			Amount:      input.Amount,
			Status:      status,
			Method:      input.Method,
			Note:        input.Note,
			RecorderID:  recorder,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.feeRecords.Create(txCtx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create fee record")
		}

		after, err := s.computeBalance(txCtx, feeType, input.HouseholdID)
		if err != nil {
			return err
		}
		result = &PaymentResult{Record: record, Balance: *after}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		kind := "voluntary"
		if mandatory {
			kind = "mandatory"
		}
		s.metrics.IncrementPaymentsRecorded(kind)
		s.metrics.AddAmountCollected(input.Amount)
	}
	s.logger.InfoContext(ctx, "payment recorded",
		"fee_record_id", result.Record.ID,
		"fee_type_id", input.FeeTypeID,
		"household_id", input.HouseholdID,
		"amount", input.Amount,
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

// AmendPayment corrects a recorded payment. The balance is revalidated as if
// the record's old amount were first removed; an amendment that would push
// the paid total outside [0, expected] fails and leaves the record unchanged.
// An empty newNote keeps the record's existing note; notes cannot be cleared
// through an amendment.
func (s *Service) AmendPayment(ctx context.Context, recordID id.FeeRecordID, newAmount int64, newNote string) (*PaymentResult, error) {
	if err := requireRecorder(ctx); err != nil {
		return nil, err
	}
	if newAmount < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidAmend, "amended amount cannot be negative")
	}

	// Resolve the pair outside the lock, then reload inside it.
	located, err := s.feeRecords.FindByID(ctx, recordID)
	if err != nil {
		return nil, wrapRecordErr(err)
	}

	now := requestcontext.Now(ctx)
	var result *PaymentResult

	err = s.tx.RunInPairTx(ctx, located.FeeTypeID, located.HouseholdID, func(txCtx context.Context) error {
		record, err := s.feeRecords.FindByID(txCtx, recordID)
		if err != nil {
			return wrapRecordErr(err)
		}
		feeType, err := s.feeTypes.FindByID(txCtx, record.FeeTypeID)
		if err != nil {
			return wrapFeeTypeErr(err)
		}
		before, err := s.computeBalance(txCtx, feeType, record.HouseholdID)
		if err != nil {
			return err
		}

		oldContribution := record.Amount
		if feeType.Mandatory && !record.CountsTowardPaid() {
			oldContribution = 0
		}
		paidAfter := before.Paid - oldContribution + newAmount

		if feeType.Mandatory {
			if paidAfter < 0 || paidAfter > before.Expected {
				return dErrors.Newf(dErrors.CodeInvalidAmend, "amendment would move paid total to %d, outside [0, %d]", paidAfter, before.Expected)
			}
			switch {
			case newAmount == 0:
				record.Status = models.PaymentStatusUnpaid
			case paidAfter >= before.Expected:
				record.Status = models.PaymentStatusPaid
			default:
				record.Status = models.PaymentStatusPartial
			}
		} else {
			if newAmount > 0 {
				record.Status = models.PaymentStatusPaid
			} else {
				record.Status = models.PaymentStatusUnpaid
			}
		}

		record.Amount = newAmount
		if newNote != "" {
			record.Note = newNote
		}
		record.UpdatedAt = now
		if err := s.feeRecords.Update(txCtx, record); err != nil {
			return wrapRecordErr(err)
		}

		after, err := s.computeBalance(txCtx, feeType, record.HouseholdID)
		if err != nil {
			return err
		}
		result = &PaymentResult{Record: record, Balance: *after}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "payment amended",
		"fee_record_id", recordID,
		"new_amount", newAmount,
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

func (s *Service) computeBalance(ctx context.Context, feeType *models.FeeType, householdID id.HouseholdID) (*models.Balance, error) {
	activeMembers, err := s.residents.CountActiveMembers(ctx, householdID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count active members")
	}
	records, err := s.feeRecords.ListByPair(ctx, feeType.ID, householdID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list fee records")
	}
	balance := models.ComputeBalance(feeType, activeMembers, records)
	return &balance, nil
}

func (s *Service) rejected(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementPaymentsRejected(reason)
	}
}

func requireStaff(ctx context.Context) error {
	if requestcontext.Role(ctx) != requestcontext.RoleStaff {
		return dErrors.New(dErrors.CodeForbidden, "staff role required")
	}
	return nil
}

// requireRecorder enforces that payments are recorded by an authorized role,
// never by the paying household itself.
func requireRecorder(ctx context.Context) error {
	switch requestcontext.Role(ctx) {
	case requestcontext.RoleStaff, requestcontext.RoleAccountant:
		return nil
	default:
		return dErrors.New(dErrors.CodeForbidden, "staff or accountant role required")
	}
}

func wrapFeeTypeErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "fee type not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "fee type store failure")
}

func wrapHouseholdErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "household not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "household store failure")
}

func wrapRecordErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "fee record not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "fee record store failure")
}

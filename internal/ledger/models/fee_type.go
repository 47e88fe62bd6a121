package models

import (
	"strings"
	"time"

	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
)

// FeeType defines a charge levied on households: either mandatory
// (per-capita, bounded by unit price times active members) or voluntary
// (a contribution with no upper bound).
//
// Invariants:
//   - Mandatory fee types carry a unit price > 0
//   - Voluntary fee types carry no unit price
//   - Payments are only accepted while the fee type is active and inside
//     its activity window
type FeeType struct {
	ID         id.FeeTypeID `json:"id"`
	Name       string       `json:"name"`
	Mandatory  bool         `json:"mandatory"`
	UnitPrice  int64        `json:"unit_price,omitempty"`
	ActiveFrom time.Time    `json:"active_from"`
	ActiveTo   *time.Time   `json:"active_to,omitempty"`
	Active     bool         `json:"active"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// IsAcceptingPayments reports whether a payment at the given time is inside
// the fee type's activity window.
func (f *FeeType) IsAcceptingPayments(at time.Time) bool {
	if !f.Active {
		return false
	}
	if at.Before(f.ActiveFrom) {
		return false
	}
	if f.ActiveTo != nil && at.After(*f.ActiveTo) {
		return false
	}
	return true
}

// CanActivate checks if the fee type can transition to active.
func (f *FeeType) CanActivate() error {
	if f.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "fee type is already active")
	}
	return nil
}

// ApplyActivation transitions the fee type to active.
// Call CanActivate first to validate the transition.
func (f *FeeType) ApplyActivation(now time.Time) {
	f.Active = true
	f.UpdatedAt = now
}

// CanDeactivate checks if the fee type can transition to inactive.
func (f *FeeType) CanDeactivate() error {
	if !f.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "fee type is already inactive")
	}
	return nil
}

// ApplyDeactivation transitions the fee type to inactive.
// Call CanDeactivate first to validate the transition.
func (f *FeeType) ApplyDeactivation(now time.Time) {
	f.Active = false
	f.UpdatedAt = now
}

func NewFeeType(feeTypeID id.FeeTypeID, name string, mandatory bool, unitPrice int64, activeFrom time.Time, activeTo *time.Time, now time.Time) (*FeeType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "fee type name is required")
	}
	if mandatory && unitPrice <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "mandatory fee type requires a positive unit price")
	}
	if !mandatory && unitPrice != 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "voluntary fee type cannot carry a unit price")
	}
	if activeFrom.IsZero() {
		activeFrom = now
	}
	if activeTo != nil && activeTo.Before(activeFrom) {
		return nil, dErrors.New(dErrors.CodeValidation, "fee type activity window ends before it starts")
	}
	return &FeeType{
		ID:         feeTypeID,
		Name:       name,
		Mandatory:  mandatory,
		UnitPrice:  unitPrice,
		ActiveFrom: activeFrom,
		ActiveTo:   activeTo,
		Active:     false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

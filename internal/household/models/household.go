package models

import (
	"strings"
	"time"

	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
)

// HouseholdStatus is the administrative state of a residence unit.
type HouseholdStatus int

const (
	HouseholdStatusInactive HouseholdStatus = 0
	HouseholdStatusActive   HouseholdStatus = 1
)

func (s HouseholdStatus) String() string {
	switch s {
	case HouseholdStatusInactive:
		return "inactive"
	case HouseholdStatusActive:
		return "active"
	default:
		return "unknown"
	}
}

// Household is the aggregate root for an administrative residence unit.
//
// Invariants:
//   - Code is non-empty and unique across households (enforced by the store)
//   - OwnerID, once set, references a resident of this household
//   - Member count is always derived from resident rows, never stored
//
// Deactivation cascades to members (see service.ToggleStatus): every active
// member is forced to moved-out with the by-deactivation flag set, so a later
// reactivation restores exactly those residents and no others.
type Household struct {
	ID        id.HouseholdID  `json:"id"`
	Code      string          `json:"code"`
	Address   string          `json:"address"`
	Status    HouseholdStatus `json:"status"`
	OwnerID   *id.ResidentID  `json:"owner_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (h *Household) IsActive() bool {
	return h.Status == HouseholdStatusActive
}

// CanDeactivate checks if the household can transition to inactive status.
func (h *Household) CanDeactivate() error {
	if h.Status != HouseholdStatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "household is already inactive")
	}
	return nil
}

// ApplyDeactivation transitions the household to inactive status.
// Call CanDeactivate first to validate the transition.
func (h *Household) ApplyDeactivation(now time.Time) {
	h.Status = HouseholdStatusInactive
	h.UpdatedAt = now
}

// CanReactivate checks if the household can transition to active status.
func (h *Household) CanReactivate() error {
	if h.Status != HouseholdStatusInactive {
		return dErrors.New(dErrors.CodeInvariantViolation, "household is already active")
	}
	return nil
}

// ApplyReactivation transitions the household to active status.
// Call CanReactivate first to validate the transition.
func (h *Household) ApplyReactivation(now time.Time) {
	h.Status = HouseholdStatusActive
	h.UpdatedAt = now
}

// SetOwner points the household at a new owning resident.
func (h *Household) SetOwner(ownerID id.ResidentID, now time.Time) {
	h.OwnerID = &ownerID
	h.UpdatedAt = now
}

func NewHousehold(householdID id.HouseholdID, code, address string, now time.Time) (*Household, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "household code is required")
	}
	if len(code) > 32 {
		return nil, dErrors.New(dErrors.CodeValidation, "household code must be 32 characters or less")
	}
	if strings.TrimSpace(address) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "household address is required")
	}
	return &Household{
		ID:        householdID,
		Code:      code,
		Address:   address,
		Status:    HouseholdStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

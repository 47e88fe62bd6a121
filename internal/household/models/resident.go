package models

import (
	"strings"
	"time"

	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
)

// ResidentStatus is the residency-lifecycle state of a tracked individual.
type ResidentStatus int

const (
	ResidentStatusPermanent         ResidentStatus = 0
	ResidentStatusTemporaryResident ResidentStatus = 1
	ResidentStatusTemporaryAbsent   ResidentStatus = 2
	ResidentStatusMovedOut          ResidentStatus = 3
	ResidentStatusDeceased          ResidentStatus = 4
)

func (s ResidentStatus) String() string {
	switch s {
	case ResidentStatusPermanent:
		return "permanent"
	case ResidentStatusTemporaryResident:
		return "temporary_resident"
	case ResidentStatusTemporaryAbsent:
		return "temporary_absent"
	case ResidentStatusMovedOut:
		return "moved_out"
	case ResidentStatusDeceased:
		return "deceased"
	default:
		return "unknown"
	}
}

// CountsTowardBilling reports whether a resident in this status is an active
// member for per-capita fee computation.
func (s ResidentStatus) CountsTowardBilling() bool {
	switch s {
	case ResidentStatusPermanent, ResidentStatusTemporaryResident, ResidentStatusTemporaryAbsent:
		return true
	default:
		return false
	}
}

// Gender of a resident as recorded in the registry.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Resident is a tracked individual with a residency-status lifecycle.
//
// The engine is the sole writer of Status and HouseholdID. HouseholdID is
// cleared by approved move-out; death flips Status only and leaves household
// membership intact. Residents are never hard-deleted here.
//
// MovedOutByDeactivation distinguishes residents mass-moved-out by a
// household deactivation from those moved out by an approved request, so
// reactivating the household restores only the former.
type Resident struct {
	ID                     id.ResidentID   `json:"id"`
	NationalID             string          `json:"national_id,omitempty"`
	FullName               string          `json:"full_name"`
	DateOfBirth            time.Time       `json:"date_of_birth"`
	Gender                 Gender          `json:"gender"`
	HouseholdID            *id.HouseholdID `json:"household_id,omitempty"`
	Relation               string          `json:"relation"`
	Status                 ResidentStatus  `json:"status"`
	MovedOutByDeactivation bool            `json:"-"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// IsActiveMember reports whether the resident counts toward the household's
// active member count.
func (r *Resident) IsActiveMember() bool {
	return r.HouseholdID != nil && r.Status.CountsTowardBilling()
}

// ApplyStatus flips the residency status without touching household
// membership. Used for temporary residence, temporary absence, and death.
func (r *Resident) ApplyStatus(status ResidentStatus, now time.Time) {
	r.Status = status
	r.UpdatedAt = now
}

// ApplyMoveOut detaches the resident from their household. An approved
// move-out always clears the by-deactivation marker: the resident left for
// their own reasons and must not be restored by a household reactivation.
func (r *Resident) ApplyMoveOut(now time.Time) {
	r.Status = ResidentStatusMovedOut
	r.HouseholdID = nil
	r.MovedOutByDeactivation = false
	r.UpdatedAt = now
}

// ApplyDeactivationMoveOut marks the resident moved-out as a consequence of
// household deactivation. Membership is retained so reactivation knows whom
// to restore.
func (r *Resident) ApplyDeactivationMoveOut(now time.Time) {
	r.Status = ResidentStatusMovedOut
	r.MovedOutByDeactivation = true
	r.UpdatedAt = now
}

// ApplyReactivation restores a resident that was moved out by a household
// deactivation. No-op guard belongs to the caller.
func (r *Resident) ApplyReactivation(now time.Time) {
	r.Status = ResidentStatusPermanent
	r.MovedOutByDeactivation = false
	r.UpdatedAt = now
}

// MoveToHousehold reassigns the resident to another household (split flow).
func (r *Resident) MoveToHousehold(householdID id.HouseholdID, relation string, now time.Time) {
	r.HouseholdID = &householdID
	r.Relation = relation
	r.UpdatedAt = now
}

func NewResident(residentID id.ResidentID, householdID id.HouseholdID, fullName string, dateOfBirth time.Time, gender Gender, relation string, now time.Time) (*Resident, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "resident full name is required")
	}
	if dateOfBirth.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "resident date of birth is required")
	}
	if relation == "" {
		relation = "member"
	}
	return &Resident{
		ID:          residentID,
		FullName:    fullName,
		DateOfBirth: dateOfBirth,
		Gender:      gender,
		HouseholdID: &householdID,
		Relation:    relation,
		Status:      ResidentStatusPermanent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

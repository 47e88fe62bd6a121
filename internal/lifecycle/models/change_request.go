package models

import (
	"time"

	hhmodels "wardbook/internal/household/models"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
)

// ChangeType identifies the kind of lifecycle mutation a request proposes.
type ChangeType int

const (
	ChangeTypeBirth              ChangeType = 0
	ChangeTypeTemporaryResidence ChangeType = 1
	ChangeTypeTemporaryAbsence   ChangeType = 2
	ChangeTypeMoveIn             ChangeType = 3
	ChangeTypeMoveOut            ChangeType = 4
	ChangeTypeSplit              ChangeType = 5
	ChangeTypeOwnerChange        ChangeType = 6
	ChangeTypeDeath              ChangeType = 7
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeBirth:
		return "birth"
	case ChangeTypeTemporaryResidence:
		return "temporary_residence"
	case ChangeTypeTemporaryAbsence:
		return "temporary_absence"
	case ChangeTypeMoveIn:
		return "move_in"
	case ChangeTypeMoveOut:
		return "move_out"
	case ChangeTypeSplit:
		return "split"
	case ChangeTypeOwnerChange:
		return "owner_change"
	case ChangeTypeDeath:
		return "death"
	default:
		return "unknown"
	}
}

// ParseChangeType maps a wire name to a change type.
func ParseChangeType(raw string) (ChangeType, error) {
	for t := ChangeTypeBirth; t <= ChangeTypeDeath; t++ {
		if t.String() == raw {
			return t, nil
		}
	}
	return 0, dErrors.Newf(dErrors.CodeValidation, "unknown change type %q", raw)
}

// Valid reports whether t names a known change type.
func (t ChangeType) Valid() bool {
	return t >= ChangeTypeBirth && t <= ChangeTypeDeath
}

// CreatesResident reports whether approval of this change type creates a new
// resident rather than mutating an existing one.
func (t ChangeType) CreatesResident() bool {
	return t == ChangeTypeBirth || t == ChangeTypeMoveIn
}

// ApprovalStatus is the request's position in the approval state machine.
// pending is initial; approved and rejected are terminal and immutable.
type ApprovalStatus int

const (
	ApprovalStatusPending  ApprovalStatus = 0
	ApprovalStatusApproved ApprovalStatus = 1
	ApprovalStatusRejected ApprovalStatus = 2
)

func (s ApprovalStatus) String() string {
	switch s {
	case ApprovalStatusPending:
		return "pending"
	case ApprovalStatusApproved:
		return "approved"
	case ApprovalStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// BirthPayload describes the child to create under the target household.
type BirthPayload struct {
	FullName    string          `json:"full_name"`
	DateOfBirth time.Time       `json:"date_of_birth"`
	Gender      hhmodels.Gender `json:"gender,omitempty"`
	Relation    string          `json:"relation,omitempty"`
}

// MoveInPayload describes a person moving into the target household.
type MoveInPayload struct {
	FullName    string          `json:"full_name"`
	DateOfBirth time.Time       `json:"date_of_birth"`
	Gender      hhmodels.Gender `json:"gender,omitempty"`
	Relation    string          `json:"relation,omitempty"`
	NationalID  string          `json:"national_id,omitempty"`
	FromAddress string          `json:"from_address,omitempty"`
}

// TemporaryResidencePayload registers a temporary stay at another address.
type TemporaryResidencePayload struct {
	ToAddress string     `json:"to_address"`
	FromDate  time.Time  `json:"from_date"`
	ToDate    *time.Time `json:"to_date,omitempty"`
}

// TemporaryAbsencePayload registers an absence from the household.
type TemporaryAbsencePayload struct {
	Destination string     `json:"destination"`
	FromDate    time.Time  `json:"from_date"`
	ToDate      *time.Time `json:"to_date,omitempty"`
}

// MoveOutPayload describes a permanent departure.
type MoveOutPayload struct {
	ToAddress string    `json:"to_address"`
	FromDate  time.Time `json:"from_date"`
}

// DeathPayload records a resident's death.
type DeathPayload struct {
	DateOfDeath time.Time `json:"date_of_death"`
}

// SplitPayload moves a strict subset of a household's members into a new
// household, with one of the moved members as its owner.
type SplitPayload struct {
	MemberIDs  []id.ResidentID `json:"member_ids"`
	NewOwnerID id.ResidentID   `json:"new_owner_id"`
	NewCode    string          `json:"new_code"`
	NewAddress string          `json:"new_address"`
}

// OwnerChangePayload transfers household ownership to an existing member.
type OwnerChangePayload struct {
	NewOwnerID id.ResidentID `json:"new_owner_id"`
}

// Payload is the tagged union of per-type request data. Exactly one variant
// is set, matching the request's change type. The free-text note lives on the
// request itself, never inside a variant.
type Payload struct {
	Birth              *BirthPayload              `json:"birth,omitempty"`
	MoveIn             *MoveInPayload             `json:"move_in,omitempty"`
	TemporaryResidence *TemporaryResidencePayload `json:"temporary_residence,omitempty"`
	TemporaryAbsence   *TemporaryAbsencePayload   `json:"temporary_absence,omitempty"`
	MoveOut            *MoveOutPayload            `json:"move_out,omitempty"`
	Split              *SplitPayload              `json:"split,omitempty"`
	OwnerChange        *OwnerChangePayload        `json:"owner_change,omitempty"`
	Death              *DeathPayload              `json:"death,omitempty"`
}

// ChangeRequest is a proposed lifecycle mutation awaiting approval.
//
// ResidentID is nil for birth and move-in requests until approval creates
// the resident and back-fills it. HouseholdID is the target household for
// types that operate on one.
type ChangeRequest struct {
	ID             id.ChangeRequestID `json:"id"`
	Type           ChangeType         `json:"type"`
	ResidentID     *id.ResidentID     `json:"resident_id,omitempty"`
	HouseholdID    *id.HouseholdID    `json:"household_id,omitempty"`
	Payload        Payload            `json:"payload"`
	Note           string             `json:"note,omitempty"`
	ApprovalStatus ApprovalStatus     `json:"approval_status"`
	ApproverID     *id.UserID         `json:"approver_id,omitempty"`
	ResolvedAt     *time.Time         `json:"resolved_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// IsResolved reports whether the request has reached a terminal state.
func (r *ChangeRequest) IsResolved() bool {
	return r.ApprovalStatus != ApprovalStatusPending
}

// CanResolve guards both terminal transitions. A request resolves exactly
// once; a second attempt fails rather than silently overwriting.
func (r *ChangeRequest) CanResolve() error {
	if r.IsResolved() {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "request is already %s", r.ApprovalStatus)
	}
	return nil
}

// ApplyApproval stamps the terminal approved state.
func (r *ChangeRequest) ApplyApproval(approverID id.UserID, now time.Time) {
	r.ApprovalStatus = ApprovalStatusApproved
	r.ApproverID = &approverID
	r.ResolvedAt = &now
	r.UpdatedAt = now
}

// ApplyRejection stamps the terminal rejected state.
func (r *ChangeRequest) ApplyRejection(approverID id.UserID, now time.Time) {
	r.ApprovalStatus = ApprovalStatusRejected
	r.ApproverID = &approverID
	r.ResolvedAt = &now
	r.UpdatedAt = now
}

// LinkResident back-fills the resident created by an approved birth or
// move-in onto the request.
func (r *ChangeRequest) LinkResident(residentID id.ResidentID, now time.Time) {
	r.ResidentID = &residentID
	r.UpdatedAt = now
}

// NewChangeRequest validates the payload for its change type and returns a
// pending request. Validation errors name the field at fault; nothing is
// persisted by this constructor.
func NewChangeRequest(requestID id.ChangeRequestID, changeType ChangeType, residentID *id.ResidentID, householdID *id.HouseholdID, payload Payload, note string, now time.Time) (*ChangeRequest, error) {
	if !changeType.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown change type")
	}
	if err := validatePayload(changeType, residentID, householdID, payload); err != nil {
		return nil, err
	}
	return &ChangeRequest{
		ID:             requestID,
		Type:           changeType,
		ResidentID:     residentID,
		HouseholdID:    householdID,
		Payload:        payload,
		Note:           note,
		ApprovalStatus: ApprovalStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func validatePayload(changeType ChangeType, residentID *id.ResidentID, householdID *id.HouseholdID, payload Payload) error {
	requireResident := func() error {
		if residentID == nil || residentID.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "resident_id is required")
		}
		return nil
	}
	requireHousehold := func() error {
		if householdID == nil || householdID.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "household_id is required")
		}
		return nil
	}

	switch changeType {
	case ChangeTypeBirth:
		if residentID != nil {
			return dErrors.New(dErrors.CodeValidation, "resident_id must be absent for a birth request")
		}
		if err := requireHousehold(); err != nil {
			return err
		}
		p := payload.Birth
		if p == nil {
			return dErrors.New(dErrors.CodeValidation, "birth payload is required")
		}
		if p.FullName == "" {
			return dErrors.New(dErrors.CodeValidation, "full_name is required")
		}
		if p.DateOfBirth.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "date_of_birth is required")
		}
	case ChangeTypeMoveIn:
		if residentID != nil {
			return dErrors.New(dErrors.CodeValidation, "resident_id must be absent for a move-in request")
		}
		if err := requireHousehold(); err != nil {
			return err
		}
		p := payload.MoveIn
		if p == nil {
			return dErrors.New(dErrors.CodeValidation, "move_in payload is required")
		}
		if p.FullName == "" {
			return dErrors.New(dErrors.CodeValidation, "full_name is required")
		}
		if p.DateOfBirth.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "date_of_birth is required")
		}
	case ChangeTypeTemporaryResidence:
		if err := requireResident(); err != nil {
			return err
		}
		p := payload.TemporaryResidence
		if p == nil {
			return dErrors.New(dErrors.CodeValidation, "temporary_residence payload is required")
		}
		if p.ToAddress == "" {
			return dErrors.New(dErrors.CodeValidation, "to_address is required")
		}
		if p.FromDate.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "from_date is required")
		}
	case ChangeTypeTemporaryAbsence:
		if err := requireResident(); err != nil {
			return err
		}
		p := payload.TemporaryAbsence
		if p == nil {
			return dErrors.New(dErrors.CodeValidation, "temporary_absence payload is required")
		}
		if p.Destination == "" {
			return dErrors.New(dErrors.CodeValidation, "destination is required")
		}
		if p.FromDate.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "from_date is required")
		}
	case ChangeTypeMoveOut:
		if err := requireResident(); err != nil {
			return err
		}
		p := payload.MoveOut
		if p == nil {
			return dErrors.New(dErrors.CodeValidation, "move_out payload is required")
		}
		if p.ToAddress == "" {
			return dErrors.New(dErrors.CodeValidation, "to_address is required")
		}
		if p.FromDate.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "from_date is required")
		}
	case ChangeTypeDeath:
		if err := requireResident(); err != nil {
			return err
		}
		p := payload.Death
		if p == nil {
			return dErrors.New(dErrors.CodeValidation, "death payload is required")
		}
		if p.DateOfDeath.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "date_of_death is required")
		}
	case ChangeTypeSplit:
		if err := requireHousehold(); err != nil {
			return err
		}
		p := payload.Split
		if p == nil {
			return dErrors.New(dErrors.CodeValidation, "split payload is required")
		}
		if len(p.MemberIDs) == 0 {
			return dErrors.New(dErrors.CodeValidation, "member_ids must select at least one member")
		}
		if p.NewOwnerID.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "new_owner_id is required")
		}
		if !containsResident(p.MemberIDs, p.NewOwnerID) {
			return dErrors.New(dErrors.CodeValidation, "new_owner_id must be one of the selected members")
		}
		if p.NewCode == "" {
			return dErrors.New(dErrors.CodeValidation, "new_code is required")
		}
		if p.NewAddress == "" {
			return dErrors.New(dErrors.CodeValidation, "new_address is required")
		}
	case ChangeTypeOwnerChange:
		if err := requireHousehold(); err != nil {
			return err
		}
		p := payload.OwnerChange
		if p == nil {
			return dErrors.New(dErrors.CodeValidation, "owner_change payload is required")
		}
		if p.NewOwnerID.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "new_owner_id is required")
		}
	}
	return nil
}

func containsResident(ids []id.ResidentID, want id.ResidentID) bool {
	for _, rid := range ids {
		if rid == want {
			return true
		}
	}
	return false
}

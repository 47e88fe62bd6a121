// Package domain defines typed identifiers shared across modules.
//
// Each entity gets its own UUID-backed type so household, resident, and fee
// identifiers cannot be mixed up at compile time. Parse helpers enforce the
// invariant that IDs crossing a trust boundary are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "wardbook/pkg/domain-errors"
)

type (
	// HouseholdID identifies an administrative residence unit.
	HouseholdID uuid.UUID
	// ResidentID identifies a tracked individual.
	ResidentID uuid.UUID
	// ChangeRequestID identifies a proposed lifecycle mutation.
	ChangeRequestID uuid.UUID
	// FeeTypeID identifies a charge definition.
	FeeTypeID uuid.UUID
	// FeeRecordID identifies a single payment transaction.
	FeeRecordID uuid.UUID
	// UserID identifies an acting staff or household account.
	UserID uuid.UUID
)

func (id HouseholdID) String() string     { return uuid.UUID(id).String() }
func (id ResidentID) String() string      { return uuid.UUID(id).String() }
func (id ChangeRequestID) String() string { return uuid.UUID(id).String() }
func (id FeeTypeID) String() string       { return uuid.UUID(id).String() }
func (id FeeRecordID) String() string     { return uuid.UUID(id).String() }
func (id UserID) String() string          { return uuid.UUID(id).String() }

func (id HouseholdID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ResidentID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ChangeRequestID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id FeeTypeID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id FeeRecordID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool          { return uuid.UUID(id) == uuid.Nil }

// IDs embedded in JSON payloads round-trip as canonical UUID strings.

func (id HouseholdID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ResidentID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id ChangeRequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id FeeTypeID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id FeeRecordID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)          { return []byte(id.String()), nil }

func (id *HouseholdID) UnmarshalText(text []byte) error {
	parsed, err := ParseHouseholdID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ResidentID) UnmarshalText(text []byte) error {
	parsed, err := ParseResidentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ChangeRequestID) UnmarshalText(text []byte) error {
	parsed, err := ParseChangeRequestID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *FeeTypeID) UnmarshalText(text []byte) error {
	parsed, err := ParseFeeTypeID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *FeeRecordID) UnmarshalText(text []byte) error {
	parsed, err := ParseFeeRecordID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewHouseholdID generates a fresh household identifier.
func NewHouseholdID() HouseholdID { return HouseholdID(uuid.New()) }

// NewResidentID generates a fresh resident identifier.
func NewResidentID() ResidentID { return ResidentID(uuid.New()) }

// NewChangeRequestID generates a fresh change request identifier.
func NewChangeRequestID() ChangeRequestID { return ChangeRequestID(uuid.New()) }

// NewFeeTypeID generates a fresh fee type identifier.
func NewFeeTypeID() FeeTypeID { return FeeTypeID(uuid.New()) }

// NewFeeRecordID generates a fresh fee record identifier.
func NewFeeRecordID() FeeRecordID { return FeeRecordID(uuid.New()) }

// NewUserID generates a fresh user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

func parseUUID(raw, label string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be the nil UUID")
	}
	return parsed, nil
}

// ParseHouseholdID parses and validates a household ID from its string form.
func ParseHouseholdID(raw string) (HouseholdID, error) {
	parsed, err := parseUUID(raw, "household id")
	return HouseholdID(parsed), err
}

// ParseResidentID parses and validates a resident ID from its string form.
func ParseResidentID(raw string) (ResidentID, error) {
	parsed, err := parseUUID(raw, "resident id")
	return ResidentID(parsed), err
}

// ParseChangeRequestID parses and validates a change request ID from its string form.
func ParseChangeRequestID(raw string) (ChangeRequestID, error) {
	parsed, err := parseUUID(raw, "change request id")
	return ChangeRequestID(parsed), err
}

// ParseFeeTypeID parses and validates a fee type ID from its string form.
func ParseFeeTypeID(raw string) (FeeTypeID, error) {
	parsed, err := parseUUID(raw, "fee type id")
	return FeeTypeID(parsed), err
}

// ParseFeeRecordID parses and validates a fee record ID from its string form.
func ParseFeeRecordID(raw string) (FeeRecordID, error) {
	parsed, err := parseUUID(raw, "fee record id")
	return FeeRecordID(parsed), err
}

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

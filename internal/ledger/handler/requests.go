package handler

import (
	"strings"
	"time"

	"wardbook/internal/ledger/models"
	"wardbook/internal/ledger/service"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
)

// CreateFeeTypeRequest is the HTTP request body for POST /fee-types.
type CreateFeeTypeRequest struct {
	Name       string `json:"name"`
	Mandatory  bool   `json:"mandatory"`
	UnitPrice  int64  `json:"unit_price"`
	ActiveFrom string `json:"active_from"`
	ActiveTo   string `json:"active_to,omitempty"`

	parsedActiveFrom time.Time
	parsedActiveTo   *time.Time
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateFeeTypeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	from, err := parseDate(r.ActiveFrom, "active_from")
	if err != nil {
		return err
	}
	r.parsedActiveFrom = from
	if r.ActiveTo != "" {
		to, err := parseDate(r.ActiveTo, "active_to")
		if err != nil {
			return err
		}
		r.parsedActiveTo = &to
	}
	return nil
}

// ToInput converts the validated request to a service input.
func (r *CreateFeeTypeRequest) ToInput() service.CreateFeeTypeInput {
	return service.CreateFeeTypeInput{
		Name:       r.Name,
		Mandatory:  r.Mandatory,
		UnitPrice:  r.UnitPrice,
		ActiveFrom: r.parsedActiveFrom,
		ActiveTo:   r.parsedActiveTo,
	}
}

// RecordPaymentRequest is the HTTP request body for POST /payments.
type RecordPaymentRequest struct {
	FeeTypeID   string `json:"fee_type_id"`
	HouseholdID string `json:"household_id"`
	Amount      int64  `json:"amount"`
	Method      string `json:"method"`
	Note        string `json:"note,omitempty"`

	parsedFeeTypeID   id.FeeTypeID
	parsedHouseholdID id.HouseholdID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RecordPaymentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	feeTypeID, err := id.ParseFeeTypeID(r.FeeTypeID)
	if err != nil {
		return err
	}
	r.parsedFeeTypeID = feeTypeID
	householdID, err := id.ParseHouseholdID(r.HouseholdID)
	if err != nil {
		return err
	}
	r.parsedHouseholdID = householdID
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	switch models.PaymentMethod(r.Method) {
	case models.PaymentMethodOnline, models.PaymentMethodOffline:
	default:
		return dErrors.New(dErrors.CodeValidation, "method must be online or offline")
	}
	return nil
}

// ToInput converts the validated request to a service input.
func (r *RecordPaymentRequest) ToInput() service.RecordPaymentInput {
	return service.RecordPaymentInput{
		FeeTypeID:   r.parsedFeeTypeID,
		HouseholdID: r.parsedHouseholdID,
		Amount:      r.Amount,
		Method:      models.PaymentMethod(r.Method),
		Note:        strings.TrimSpace(r.Note),
	}
}

// AmendPaymentRequest is the HTTP request body for PATCH /payments/{recordID}.
type AmendPaymentRequest struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note,omitempty"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *AmendPaymentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Amount < 0 {
		return dErrors.New(dErrors.CodeInvalidAmend, "amount cannot be negative")
	}
	return nil
}

func parseDate(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, dErrors.Newf(dErrors.CodeValidation, "%s is required", field)
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeValidation, "%s must be a YYYY-MM-DD date", field)
	}
	return parsed, nil
}

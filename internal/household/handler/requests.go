package handler

import (
	"strings"
	"time"

	"wardbook/internal/household/models"
	"wardbook/internal/household/service"
	dErrors "wardbook/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /households.
type RegisterRequest struct {
	Code    string       `json:"code"`
	Address string       `json:"address"`
	Owner   OwnerRequest `json:"owner"`
}

// OwnerRequest is the owner portion of a registration request.
type OwnerRequest struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender,omitempty"`
	NationalID  string `json:"national_id,omitempty"`

	parsedDateOfBirth time.Time
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Code = strings.TrimSpace(r.Code)
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	r.Address = strings.TrimSpace(r.Address)
	if r.Address == "" {
		return dErrors.New(dErrors.CodeValidation, "address is required")
	}
	r.Owner.FullName = strings.TrimSpace(r.Owner.FullName)
	if r.Owner.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "owner.full_name is required")
	}
	dob, err := parseDate(r.Owner.DateOfBirth, "owner.date_of_birth")
	if err != nil {
		return err
	}
	r.Owner.parsedDateOfBirth = dob
	return nil
}

// ToInput converts the validated request to a service input.
func (r *RegisterRequest) ToInput() service.RegisterInput {
	return service.RegisterInput{
		Code:    r.Code,
		Address: r.Address,
		Owner: service.OwnerInput{
			FullName:    r.Owner.FullName,
			DateOfBirth: r.Owner.parsedDateOfBirth,
			Gender:      models.Gender(r.Owner.Gender),
			NationalID:  strings.TrimSpace(r.Owner.NationalID),
		},
	}
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

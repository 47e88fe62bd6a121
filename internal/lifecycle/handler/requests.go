package handler

import (
	"strings"

	"wardbook/internal/lifecycle/models"
	"wardbook/internal/lifecycle/service"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
)

// CreateRequest is the HTTP request body for POST /change-requests. The
// payload variant must match the named change type; dates inside the payload
// are RFC 3339 timestamps.
type CreateRequest struct {
	Type        string         `json:"type"`
	ResidentID  string         `json:"resident_id,omitempty"`
	HouseholdID string         `json:"household_id,omitempty"`
	Payload     models.Payload `json:"payload"`
	Note        string         `json:"note,omitempty"`

	parsedType        models.ChangeType
	parsedResidentID  *id.ResidentID
	parsedHouseholdID *id.HouseholdID
}

// Validate validates and parses the request. Payload-level validation by
// change type happens in the service; this only parses identifiers.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	changeType, err := models.ParseChangeType(strings.TrimSpace(r.Type))
	if err != nil {
		return err
	}
	r.parsedType = changeType

	if r.ResidentID != "" {
		residentID, err := id.ParseResidentID(r.ResidentID)
		if err != nil {
			return err
		}
		r.parsedResidentID = &residentID
	}
	if r.HouseholdID != "" {
		householdID, err := id.ParseHouseholdID(r.HouseholdID)
		if err != nil {
			return err
		}
		r.parsedHouseholdID = &householdID
	}
	return nil
}

// ToInput converts the validated request to a service input.
func (r *CreateRequest) ToInput() service.CreateRequestInput {
	return service.CreateRequestInput{
		Type:        r.parsedType,
		ResidentID:  r.parsedResidentID,
		HouseholdID: r.parsedHouseholdID,
		Payload:     r.Payload,
		Note:        strings.TrimSpace(r.Note),
	}
}

func parseStatusFilter(raw string) (*models.ApprovalStatus, error) {
	if raw == "" {
		return nil, nil
	}
	var status models.ApprovalStatus
	switch raw {
	case "pending":
		status = models.ApprovalStatusPending
	case "approved":
		status = models.ApprovalStatusApproved
	case "rejected":
		status = models.ApprovalStatusRejected
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown approval status %q", raw)
	}
	return &status, nil
}

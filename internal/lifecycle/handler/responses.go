package handler

import (
	"time"

	"wardbook/internal/lifecycle/models"
)

// ChangeRequestResponse is the HTTP representation of a change request.
type ChangeRequestResponse struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	ResidentID     string         `json:"resident_id,omitempty"`
	HouseholdID    string         `json:"household_id,omitempty"`
	Payload        models.Payload `json:"payload"`
	Note           string         `json:"note,omitempty"`
	ApprovalStatus string         `json:"approval_status"`
	ApproverID     string         `json:"approver_id,omitempty"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// FromChangeRequest converts a change request to an HTTP response.
func FromChangeRequest(request *models.ChangeRequest) *ChangeRequestResponse {
	resp := &ChangeRequestResponse{
		ID:             request.ID.String(),
		Type:           request.Type.String(),
		Payload:        request.Payload,
		Note:           request.Note,
		ApprovalStatus: request.ApprovalStatus.String(),
		ResolvedAt:     request.ResolvedAt,
		CreatedAt:      request.CreatedAt,
		UpdatedAt:      request.UpdatedAt,
	}
	if request.ResidentID != nil {
		resp.ResidentID = request.ResidentID.String()
	}
	if request.HouseholdID != nil {
		resp.HouseholdID = request.HouseholdID.String()
	}
	if request.ApproverID != nil {
		resp.ApproverID = request.ApproverID.String()
	}
	return resp
}

// FromChangeRequests converts a change request list to HTTP responses.
func FromChangeRequests(requests []*models.ChangeRequest) []*ChangeRequestResponse {
	out := make([]*ChangeRequestResponse, 0, len(requests))
	for _, request := range requests {
		out = append(out, FromChangeRequest(request))
	}
	return out
}

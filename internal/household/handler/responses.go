package handler

import (
	"time"

	"wardbook/internal/household/models"
	"wardbook/internal/household/service"
)

// HouseholdResponse is the HTTP representation of a household.
type HouseholdResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Address     string    `json:"address"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"owner_id,omitempty"`
	MemberCount *int      `json:"member_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromHousehold converts a household to an HTTP response.
func FromHousehold(household *models.Household) *HouseholdResponse {
	resp := &HouseholdResponse{
		ID:        household.ID.String(),
		Code:      household.Code,
		Address:   household.Address,
		Status:    household.Status.String(),
		CreatedAt: household.CreatedAt,
		UpdatedAt: household.UpdatedAt,
	}
	if household.OwnerID != nil {
		resp.OwnerID = household.OwnerID.String()
	}
	return resp
}

// FromDetails converts a household with its derived member count.
func FromDetails(details *service.HouseholdDetails) *HouseholdResponse {
	resp := FromHousehold(details.Household)
	count := details.MemberCount
	resp.MemberCount = &count
	return resp
}

// ResidentResponse is the HTTP representation of a resident.
type ResidentResponse struct {
	ID          string    `json:"id"`
	NationalID  string    `json:"national_id,omitempty"`
	FullName    string    `json:"full_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      string    `json:"gender,omitempty"`
	HouseholdID string    `json:"household_id,omitempty"`
	Relation    string    `json:"relation"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromResident converts a resident to an HTTP response.
func FromResident(resident *models.Resident) *ResidentResponse {
	resp := &ResidentResponse{
		ID:          resident.ID.String(),
		NationalID:  resident.NationalID,
		FullName:    resident.FullName,
		DateOfBirth: resident.DateOfBirth,
		Gender:      string(resident.Gender),
		Relation:    resident.Relation,
		Status:      resident.Status.String(),
		CreatedAt:   resident.CreatedAt,
		UpdatedAt:   resident.UpdatedAt,
	}
	if resident.HouseholdID != nil {
		resp.HouseholdID = resident.HouseholdID.String()
	}
	return resp
}

// FromResidents converts a resident list to HTTP responses.
func FromResidents(residents []*models.Resident) []*ResidentResponse {
	out := make([]*ResidentResponse, 0, len(residents))
	for _, resident := range residents {
		out = append(out, FromResident(resident))
	}
	return out
}

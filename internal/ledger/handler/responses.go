package handler

import (
	"time"

	"wardbook/internal/ledger/models"
	"wardbook/internal/ledger/service"
)

// FeeTypeResponse is the HTTP representation of a fee type.
type FeeTypeResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Mandatory  bool       `json:"mandatory"`
	UnitPrice  int64      `json:"unit_price"`
	ActiveFrom time.Time  `json:"active_from"`
	ActiveTo   *time.Time `json:"active_to,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// FromFeeType converts a fee type to an HTTP response.
func FromFeeType(feeType *models.FeeType) *FeeTypeResponse {
	return &FeeTypeResponse{
		ID:         feeType.ID.String(),
		Name:       feeType.Name,
		Mandatory:  feeType.Mandatory,
		UnitPrice:  feeType.UnitPrice,
		ActiveFrom: feeType.ActiveFrom,
		ActiveTo:   feeType.ActiveTo,
		Active:     feeType.Active,
		CreatedAt:  feeType.CreatedAt,
		UpdatedAt:  feeType.UpdatedAt,
	}
}

// BalanceResponse is the HTTP representation of a balance.
type BalanceResponse struct {
	Expected  int64  `json:"expected"`
	Paid      int64  `json:"paid"`
	Remaining int64  `json:"remaining"`
	Status    string `json:"status"`
}

// FromBalance converts a balance to an HTTP response.
func FromBalance(balance *models.Balance) *BalanceResponse {
	return &BalanceResponse{
		Expected:  balance.Expected,
		Paid:      balance.Paid,
		Remaining: balance.Remaining,
		Status:    balance.Status.String(),
	}
}

// FeeRecordResponse is the HTTP representation of a fee record.
type FeeRecordResponse struct {
	ID          string    `json:"id"`
	FeeTypeID   string    `json:"fee_type_id"`
	HouseholdID string    `json:"household_id"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	Method      string    `json:"method"`
	Note        string    `json:"note,omitempty"`
	RecorderID  string    `json:"recorder_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromFeeRecord converts a fee record to an HTTP response.
func FromFeeRecord(record *models.FeeRecord) *FeeRecordResponse {
	return &FeeRecordResponse{
		ID:          record.ID.String(),
		FeeTypeID:   record.FeeTypeID.String(),
		HouseholdID: record.HouseholdID.String(),
		Amount:      record.Amount,
		Status:      record.Status.String(),
		Method:      string(record.Method),
		Note:        record.Note,
		RecorderID:  record.RecorderID.String(),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

// PaymentResponse pairs the affected record with the recomputed balance.
type PaymentResponse struct {
	Record  *FeeRecordResponse `json:"record"`
	Balance *BalanceResponse   `json:"balance"`
}

// FromPaymentResult converts a payment result to an HTTP response.
func FromPaymentResult(result *service.PaymentResult) *PaymentResponse {
	return &PaymentResponse{
		Record:  FromFeeRecord(result.Record),
		Balance: FromBalance(&result.Balance),
	}
}

// HouseholdBalanceResponse is one fee type's balance for a household.
type HouseholdBalanceResponse struct {
	FeeType *FeeTypeResponse `json:"fee_type"`
	Balance *BalanceResponse `json:"balance"`
}

// FromHouseholdBalances converts the per-type balances of one household.
func FromHouseholdBalances(balances []service.HouseholdBalance) []*HouseholdBalanceResponse {
	out := make([]*HouseholdBalanceResponse, 0, len(balances))
	for _, hb := range balances {
		balance := hb.Balance
		out = append(out, &HouseholdBalanceResponse{
			FeeType: FromFeeType(hb.FeeType),
			Balance: FromBalance(&balance),
		})
	}
	return out
}

package models

import (
	"time"

	id "wardbook/pkg/domain"
)

// PaymentStatus tracks how much of the expected amount has been covered.
// It applies both to individual fee records and to the derived balance.
type PaymentStatus int

const (
	PaymentStatusUnpaid  PaymentStatus = 0
	PaymentStatusPartial PaymentStatus = 1
	PaymentStatusPaid    PaymentStatus = 2
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusUnpaid:
		return "unpaid"
	case PaymentStatusPartial:
		return "partial"
	case PaymentStatusPaid:
		return "paid"
	default:
		return "unknown"
	}
}

// PaymentMethod records how a payment reached the ledger.
type PaymentMethod string

const (
	PaymentMethodOnline  PaymentMethod = "online"
	PaymentMethodOffline PaymentMethod = "offline"
)

// FeeRecord is one payment transaction against a (fee type, household) pair.
// Records are the source of truth for paid-to-date; balances are always
// re-derived from them.
type FeeRecord struct {
	ID          id.FeeRecordID `json:"id"`
	FeeTypeID   id.FeeTypeID   `json:"fee_type_id"`
	HouseholdID id.HouseholdID `json:"household_id"`
	Amount      int64          `json:"amount"`
	Status      PaymentStatus  `json:"status"`
	Method      PaymentMethod  `json:"method"`
	Note        string         `json:"note,omitempty"`
	RecorderID  id.UserID      `json:"recorder_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CountsTowardPaid reports whether the record contributes to the paid total
// of a mandatory fee. Placeholder unpaid records contribute nothing.
func (r *FeeRecord) CountsTowardPaid() bool {
	return r.Status == PaymentStatusPartial || r.Status == PaymentStatusPaid
}

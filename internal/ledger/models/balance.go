package models

// Balance is the derived settlement state of a (fee type, household) pair.
// Expected and Remaining are zero for voluntary fee types; Paid is the only
// meaningful figure there.
type Balance struct {
	Expected  int64         `json:"expected"`
	Paid      int64         `json:"paid"`
	Remaining int64         `json:"remaining"`
	Status    PaymentStatus `json:"status"`
}

// ComputeBalance derives the balance purely from persisted records. It never
// trusts a cached total: active member count and record sums are recomputed
// on every call.
//
// Mandatory: expected = unit price x active members; paid sums records in
// partial/paid status; remaining is clamped at zero. Voluntary: expected and
// remaining are zero, paid sums every record, and status only answers "has
// anything been given".
func ComputeBalance(feeType *FeeType, activeMembers int, records []FeeRecord) Balance {
	if !feeType.Mandatory {
		var paid int64
		for _, record := range records {
			paid += record.Amount
		}
		status := PaymentStatusUnpaid
		if paid > 0 {
			status = PaymentStatusPaid
		}
		return Balance{Paid: paid, Status: status}
	}

	expected := feeType.UnitPrice * int64(activeMembers)
	var paid int64
	for _, record := range records {
		if record.CountsTowardPaid() {
			paid += record.Amount
		}
	}
	remaining := expected - paid
	if remaining < 0 {
		remaining = 0
	}

	var status PaymentStatus
	switch {
	case paid <= 0:
		status = PaymentStatusUnpaid
	case remaining <= 0:
		status = PaymentStatusPaid
	default:
		status = PaymentStatusPartial
	}
	return Balance{Expected: expected, Paid: paid, Remaining: remaining, Status: status}
}

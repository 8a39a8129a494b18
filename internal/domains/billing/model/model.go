package model

import (
	"slices"

	"innkeeper/shared/model"
)

const (
	TableName  = "payments"
	EntityName = "payment"

	FieldID        = "id"
	FieldBookingID = "booking_id"
	FieldAmount    = "amount"
	FieldMethod    = "method"
	FieldType      = "type"
	FieldNote      = "note"
)

const (
	TypePayment = "payment"
	TypeRefund  = "refund"
)

const (
	MethodCash   = "Cash"
	MethodCard   = "Card"
	MethodUPI    = "UPI"
	MethodOnline = "Online"
)

var Methods = []string{MethodCash, MethodCard, MethodUPI, MethodOnline}

func IsValidMethod(method string) bool {
	return slices.Contains(Methods, method)
}

// Payment is one append-only ledger entry against a booking. Entries are
// never updated or deleted; corrections are new entries.
type Payment struct {
	ID        string  `db:"id"`
	BookingID string  `db:"booking_id"`
	Amount    float64 `db:"amount"`
	Method    string  `db:"method"`
	Type      string  `db:"type"`
	Note      string  `db:"note"`
	model.Metadata
}

// LedgerTotals are the paid and refunded sums for one booking.
type LedgerTotals struct {
	BookingID string  `db:"booking_id"`
	Paid      float64 `db:"paid"`
	Refunded  float64 `db:"refunded"`
}

// Balance is the amount still owed against a charge, floored at zero so an
// over-refund never shows as negative debt.
func (t LedgerTotals) Balance(charge float64) float64 {
	balance := charge - t.Paid + t.Refunded
	if balance < 0 {
		return 0
	}

	return balance
}

package dto

import (
	"github.com/google/uuid"

	"innkeeper/internal/domains/billing/model"
	gDto "innkeeper/shared/dto"
	gModel "innkeeper/shared/model"
	"innkeeper/shared/timezone"
)

type RecordPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required,oneof=Cash Card UPI Online"`
	Note   string  `json:"note"   validate:"omitempty,max=500"`
}

func (r *RecordPaymentRequest) ToModel(actor, bookingID, entryType string) model.Payment {
	return model.Payment{
		ID:        uuid.NewString(),
		BookingID: bookingID,
		Amount:    r.Amount,
		Method:    r.Method,
		Type:      entryType,
		Note:      r.Note,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  actor,
			ModifiedBy: actor,
		},
	}
}

type OverridePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

type PaymentResponse struct {
	ID        string  `json:"id"`
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Type      string  `json:"type"`
	Note      string  `json:"note,omitempty"`
	gDto.Metadata
}

func (r *PaymentResponse) FromModel(mod model.Payment) {
	r.ID = mod.ID
	r.BookingID = mod.BookingID
	r.Amount = mod.Amount
	r.Method = mod.Method
	r.Type = mod.Type
	r.Note = mod.Note
	r.Metadata.FromModel(mod.Metadata)
}

type LedgerResponse struct {
	BookingID string            `json:"booking_id"`
	Entries   []PaymentResponse `json:"entries"`
	Paid      float64           `json:"paid"`
	Refunded  float64           `json:"refunded"`
}

func (r *LedgerResponse) FromModels(bookingID string, models []model.Payment) {
	r.BookingID = bookingID
	r.Entries = make([]PaymentResponse, len(models))

	for i, mod := range models {
		r.Entries[i].FromModel(mod)

		switch mod.Type {
		case model.TypeRefund:
			r.Refunded += mod.Amount
		default:
			r.Paid += mod.Amount
		}
	}
}

// BillingRow is one line of the billing table: the charge for a booking next
// to its ledger sums and the ledger-derived status.
type BillingRow struct {
	BookingID     string  `json:"booking_id"`
	BookingNumber string  `json:"booking_number"`
	GuestName     string  `json:"guest_name"`
	RoomNumber    string  `json:"room_number"`
	CheckInDate   string  `json:"check_in_date"`
	CheckOutDate  string  `json:"check_out_date"`
	BookingStatus string  `json:"booking_status"`
	Charge        float64 `json:"charge"`
	Paid          float64 `json:"paid"`
	Refunded      float64 `json:"refunded"`
	Remaining     float64 `json:"remaining"`
	PaymentStatus string  `json:"payment_status"`
}

type GetBillingRowsResponse struct {
	Rows      []BillingRow `json:"rows"`
	TotalPage int          `json:"total_page"`
	TotalData int          `json:"total_data"`
}

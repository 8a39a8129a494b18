// Package invoice derives an invoice document from a booking, its ledger
// entries and the hotel settings. It performs no I/O; callers fetch the
// inputs and render or serve the result.
package invoice

import (
	bookingModel "innkeeper/internal/domains/booking/model"
	"innkeeper/internal/domains/billing/model"
	settingsModel "innkeeper/internal/domains/settings/model"
)

const DefaultTaxPercent = 10

type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

type Document struct {
	InvoiceNumber string     `json:"invoice_number"`
	BookingNumber string     `json:"booking_number"`
	HotelName     string     `json:"hotel_name"`
	Currency      string     `json:"currency"`
	GuestName     string     `json:"guest_name"`
	GuestEmail    string     `json:"guest_email"`
	RoomNumber    string     `json:"room_number"`
	RoomType      string     `json:"room_type"`
	CheckInDate   string     `json:"check_in_date"`
	CheckOutDate  string     `json:"check_out_date"`
	Nights        int        `json:"nights"`
	Items         []LineItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	TaxPercent    float64    `json:"tax_percent"`
	Tax           float64    `json:"tax"`
	GrandTotal    float64    `json:"grand_total"`
	Paid          float64    `json:"paid"`
	Refunded      float64    `json:"refunded"`
	Balance       float64    `json:"balance"`
	PaymentStatus string     `json:"payment_status"`
}

// DeriveStatus is the canonical ledger-derived payment status: the stored
// booking field is a display cache and never feeds back into billing math.
// Any payment on the ledger keeps the booking out of Pending even when a
// refund later returns the whole amount.
func DeriveStatus(charge, paid, refunded float64) string {
	net := paid - refunded

	switch {
	case net >= charge && paid > 0:
		return bookingModel.PaymentStatusPaid
	case paid > 0:
		return bookingModel.PaymentStatusPartiallyPaid
	default:
		return bookingModel.PaymentStatusPending
	}
}

// Assemble builds the invoice document: one room-nights line, one line per
// ancillary service, tax on the subtotal, and the ledger-derived balance.
func Assemble(booking bookingModel.Booking, totals model.LedgerTotals, settings settingsModel.Settings) Document {
	nights := booking.Nights()

	rate := booking.RoomRate
	if nights > 0 && booking.TotalAmount > 0 {
		rate = booking.TotalAmount / float64(nights)
	}

	items := []LineItem{
		{
			Description: "Room " + booking.RoomNumber + " (" + booking.RoomType + ")",
			Quantity:    nights,
			UnitPrice:   rate,
			Amount:      booking.TotalAmount,
		},
	}

	for _, service := range booking.AdditionalServices {
		qty := service.Quantity
		if qty < 1 {
			qty = 1
		}

		items = append(items, LineItem{
			Description: service.Service,
			Quantity:    qty,
			UnitPrice:   service.Price,
			Amount:      service.Total(),
		})
	}

	subtotal := booking.Charge()

	taxPercent := settings.TaxPercent
	if taxPercent < 0 {
		taxPercent = DefaultTaxPercent
	}

	tax := subtotal * taxPercent / 100
	grandTotal := subtotal + tax

	balance := grandTotal - totals.Paid + totals.Refunded
	if balance < 0 {
		balance = 0
	}

	return Document{
		InvoiceNumber: "INV-" + booking.BookingNumber,
		BookingNumber: booking.BookingNumber,
		HotelName:     settings.HotelName,
		Currency:      settings.Currency,
		GuestName:     booking.GuestName,
		GuestEmail:    booking.GuestEmail,
		RoomNumber:    booking.RoomNumber,
		RoomType:      booking.RoomType,
		CheckInDate:   booking.CheckInDate.Format("2006-01-02"),
		CheckOutDate:  booking.CheckOutDate.Format("2006-01-02"),
		Nights:        nights,
		Items:         items,
		Subtotal:      subtotal,
		TaxPercent:    taxPercent,
		Tax:           tax,
		GrandTotal:    grandTotal,
		Paid:          totals.Paid,
		Refunded:      totals.Refunded,
		Balance:       balance,
		PaymentStatus: DeriveStatus(grandTotal, totals.Paid, totals.Refunded),
	}
}

package invoice_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innkeeper/internal/domains/billing/invoice"
	"innkeeper/internal/domains/billing/model"
	bookingModel "innkeeper/internal/domains/booking/model"
	settingsModel "innkeeper/internal/domains/settings/model"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		charge   float64
		paid     float64
		refunded float64
		want     string
	}{
		{name: "nothing paid", charge: 300, paid: 0, refunded: 0, want: bookingModel.PaymentStatusPending},
		{name: "partially paid", charge: 300, paid: 100, refunded: 0, want: bookingModel.PaymentStatusPartiallyPaid},
		{name: "fully paid", charge: 300, paid: 300, refunded: 0, want: bookingModel.PaymentStatusPaid},
		{name: "overpaid", charge: 300, paid: 400, refunded: 0, want: bookingModel.PaymentStatusPaid},
		{name: "refund drops below charge", charge: 300, paid: 300, refunded: 100, want: bookingModel.PaymentStatusPartiallyPaid},
		{name: "fully refunded stays partially paid", charge: 300, paid: 300, refunded: 300, want: bookingModel.PaymentStatusPartiallyPaid},
		{name: "over-refunded stays partially paid", charge: 300, paid: 100, refunded: 200, want: bookingModel.PaymentStatusPartiallyPaid},
		{name: "half paid half refunded", charge: 200, paid: 100, refunded: 100, want: bookingModel.PaymentStatusPartiallyPaid},
		{name: "refund with no payment", charge: 300, paid: 0, refunded: 50, want: bookingModel.PaymentStatusPending},
		{name: "zero charge with payment", charge: 0, paid: 50, refunded: 0, want: bookingModel.PaymentStatusPaid},
		{name: "zero charge untouched", charge: 0, paid: 0, refunded: 0, want: bookingModel.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, invoice.DeriveStatus(tt.charge, tt.paid, tt.refunded))
		})
	}
}

func stayedBooking() bookingModel.Booking {
	return bookingModel.Booking{
		ID:            "booking-id-123",
		BookingNumber: "BK000042",
		GuestName:     "Asha Rao",
		GuestEmail:    "asha@example.com",
		RoomNumber:    "101",
		RoomType:      "Deluxe",
		RoomRate:      150,
		CheckInDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOutDate:  time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
		TotalAmount:   450,
	}
}

func hotelSettings() settingsModel.Settings {
	return settingsModel.Settings{
		HotelName:  "Seaside Inn",
		Currency:   "USD",
		TaxPercent: 10,
	}
}

func TestAssemble(t *testing.T) {
	t.Run("room line plus service lines", func(t *testing.T) {
		booking := stayedBooking()
		booking.AdditionalServices = bookingModel.ServiceItems{
			{Service: "Breakfast", Price: 25, Quantity: 2},
			{Service: "Airport pickup", Price: 40, Quantity: 1},
		}

		doc := invoice.Assemble(booking, model.LedgerTotals{}, hotelSettings())

		assert.Equal(t, "INV-BK000042", doc.InvoiceNumber)
		assert.Equal(t, "Seaside Inn", doc.HotelName)
		assert.Equal(t, "USD", doc.Currency)
		assert.Equal(t, 3, doc.Nights)

		require.Len(t, doc.Items, 3)
		assert.Equal(t, "Room 101 (Deluxe)", doc.Items[0].Description)
		assert.Equal(t, 3, doc.Items[0].Quantity)
		assert.InDelta(t, 150, doc.Items[0].UnitPrice, 0.001)
		assert.InDelta(t, 450, doc.Items[0].Amount, 0.001)
		assert.Equal(t, "Breakfast", doc.Items[1].Description)
		assert.InDelta(t, 50, doc.Items[1].Amount, 0.001)
		assert.Equal(t, "Airport pickup", doc.Items[2].Description)

		assert.InDelta(t, 540, doc.Subtotal, 0.001)
		assert.InDelta(t, 54, doc.Tax, 0.001)
		assert.InDelta(t, 594, doc.GrandTotal, 0.001)
		assert.InDelta(t, 594, doc.Balance, 0.001)
		assert.Equal(t, bookingModel.PaymentStatusPending, doc.PaymentStatus)
	})

	t.Run("unit price derives from the stored total", func(t *testing.T) {
		// The stored total wins over the current room rate so a later rate
		// change never alters an issued invoice.
		booking := stayedBooking()
		booking.RoomRate = 999

		doc := invoice.Assemble(booking, model.LedgerTotals{}, hotelSettings())

		assert.InDelta(t, 150, doc.Items[0].UnitPrice, 0.001)
	})

	t.Run("negative tax percent falls back to the default", func(t *testing.T) {
		settings := hotelSettings()
		settings.TaxPercent = -1

		doc := invoice.Assemble(stayedBooking(), model.LedgerTotals{}, settings)

		assert.InDelta(t, invoice.DefaultTaxPercent, doc.TaxPercent, 0.001)
	})

	t.Run("zero tax percent is honored", func(t *testing.T) {
		settings := hotelSettings()
		settings.TaxPercent = 0

		doc := invoice.Assemble(stayedBooking(), model.LedgerTotals{}, settings)

		assert.InDelta(t, 0, doc.Tax, 0.001)
		assert.InDelta(t, doc.Subtotal, doc.GrandTotal, 0.001)
	})

	t.Run("balance floors at zero on over-payment", func(t *testing.T) {
		doc := invoice.Assemble(stayedBooking(), model.LedgerTotals{Paid: 1000}, hotelSettings())

		assert.InDelta(t, 0, doc.Balance, 0.001)
		assert.Equal(t, bookingModel.PaymentStatusPaid, doc.PaymentStatus)
	})

	t.Run("refund restores the balance", func(t *testing.T) {
		doc := invoice.Assemble(stayedBooking(), model.LedgerTotals{Paid: 495, Refunded: 100}, hotelSettings())

		// Grand total 495, paid 495, refunded 100.
		assert.InDelta(t, 100, doc.Balance, 0.001)
		assert.Equal(t, bookingModel.PaymentStatusPartiallyPaid, doc.PaymentStatus)
	})
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"innkeeper/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID                 = "id"
	FieldBookingNumber      = "booking_number"
	FieldGuestID            = "guest_id"
	FieldRoomID             = "room_id"
	FieldCheckInDate        = "check_in_date"
	FieldCheckOutDate       = "check_out_date"
	FieldNumberOfGuests     = "number_of_guests"
	FieldTotalAmount        = "total_amount"
	FieldStatus             = "status"
	FieldPaymentStatus      = "payment_status"
	FieldSpecialRequests    = "special_requests"
	FieldNotes              = "notes"
	FieldAdditionalServices = "additional_services"

	NumberSequence = "booking_number_seq"
)

const (
	StatusPending    = "Pending"
	StatusConfirmed  = "Confirmed"
	StatusCheckedIn  = "Checked In"
	StatusCheckedOut = "Checked Out"
	StatusCancelled  = "Cancelled"
	StatusNoShow     = "No Show"
)

const (
	PaymentStatusPending       = "Pending"
	PaymentStatusPaid          = "Paid"
	PaymentStatusPartiallyPaid = "Partially Paid"
	PaymentStatusRefunded      = "Refunded"
)

// ActiveStatuses are the statuses that still occupy calendar availability.
var ActiveStatuses = []string{StatusPending, StatusConfirmed, StatusCheckedIn}

var Statuses = []string{
	StatusPending,
	StatusConfirmed,
	StatusCheckedIn,
	StatusCheckedOut,
	StatusCancelled,
	StatusNoShow,
}

var PaymentStatuses = []string{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusPartiallyPaid,
	PaymentStatusRefunded,
}

func IsActiveStatus(status string) bool {
	return slices.Contains(ActiveStatuses, status)
}

func IsValidPaymentStatus(status string) bool {
	return slices.Contains(PaymentStatuses, status)
}

// Nights is the chargeable night count for a stay: the calendar-day
// difference between check-in and check-out, never less than one. Counting
// calendar days keeps the count stable across daylight saving transitions,
// where wall-clock hour arithmetic drifts.
func Nights(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)

	nights := int(out.Sub(in) / (24 * time.Hour))
	if nights < 1 {
		nights = 1
	}

	return nights
}

// Overlaps applies the half-open interval test: [aIn, aOut) and [bIn, bOut)
// overlap iff aIn < bOut and bIn < aOut. A checkout and a check-in on the
// same day do not collide.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}

// ServiceItem is one ancillary charge attached to a booking, billed on top
// of the room-night total.
type ServiceItem struct {
	Service  string  `json:"service"  validate:"required,max=100"`
	Price    float64 `json:"price"    validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

func (s ServiceItem) Total() float64 {
	qty := s.Quantity
	if qty < 1 {
		qty = 1
	}

	return s.Price * float64(qty)
}

// ServiceItems is stored as a JSONB array on the booking row.
type ServiceItems []ServiceItem

func (s ServiceItems) Value() (driver.Value, error) {
	if s == nil {
		s = ServiceItems{}
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal additional services: %w", err)
	}

	return raw, nil
}

func (s *ServiceItems) Scan(src any) error {
	if src == nil {
		*s = ServiceItems{}

		return nil
	}

	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unexpected additional services column type %T", src)
	}

	if err := json.Unmarshal(raw, s); err != nil {
		return fmt.Errorf("failed to unmarshal additional services: %w", err)
	}

	return nil
}

func (s ServiceItems) Total() (total float64) {
	for _, item := range s {
		total += item.Total()
	}

	return total
}

type Booking struct {
	ID                 string       `db:"id"`
	BookingNumber      string       `db:"booking_number"`
	GuestID            string       `db:"guest_id"`
	RoomID             string       `db:"room_id"`
	CheckInDate        time.Time    `db:"check_in_date"`
	CheckOutDate       time.Time    `db:"check_out_date"`
	NumberOfGuests     int          `db:"number_of_guests"`
	TotalAmount        float64      `db:"total_amount"`
	Status             string       `db:"status"`
	PaymentStatus      string       `db:"payment_status"`
	SpecialRequests    string       `db:"special_requests"`
	Notes              string       `db:"notes"`
	AdditionalServices ServiceItems `db:"additional_services"`
	model.Metadata

	// Resolved detail from the joined guest and room rows; select-only.
	GuestName  string  `db:"guest_name"  table:"users" column:"name"`
	GuestEmail string  `db:"guest_email" table:"users" column:"email"`
	RoomNumber string  `db:"room_number" table:"rooms" column:"room_number"`
	RoomType   string  `db:"room_type"   table:"rooms" column:"room_type"`
	RoomRate   float64 `db:"room_rate"   table:"rooms" column:"price_per_night"`
}

// GetJoinQuery resolves guest and room detail in a single select.
func (Booking) GetJoinQuery() string {
	return "JOIN users ON users.id = bookings.guest_id JOIN rooms ON rooms.id = bookings.room_id"
}

// Nights is the chargeable night count for this booking.
func (b Booking) Nights() int {
	return Nights(b.CheckInDate, b.CheckOutDate)
}

// Charge is the full amount owed: room nights at the rate captured at
// creation time plus every ancillary service.
func (b Booking) Charge() float64 {
	return b.TotalAmount + b.AdditionalServices.Total()
}

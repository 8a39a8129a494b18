package dto

import (
	"time"

	"github.com/google/uuid"

	"innkeeper/internal/domains/booking/model"
	"innkeeper/shared"
	gDto "innkeeper/shared/dto"
	gModel "innkeeper/shared/model"
	"innkeeper/shared/timezone"
)

type CreateBookingRequest struct {
	// GuestID is set by staff booking on behalf of a guest; the guest
	// self-service path books for the authenticated actor.
	GuestID            string              `json:"guest_id"            validate:"omitempty,uuid"`
	RoomID             string              `json:"room_id"             validate:"required,uuid"`
	CheckInDate        string              `json:"check_in_date"       validate:"required"`
	CheckOutDate       string              `json:"check_out_date"      validate:"required"`
	NumberOfGuests     int                 `json:"number_of_guests"    validate:"required,gte=1"`
	SpecialRequests    string              `json:"special_requests"    validate:"omitempty,max=500"`
	AdditionalServices []model.ServiceItem `json:"additional_services" validate:"omitempty,dive"`
}

func (c *CreateBookingRequest) ParseDates() (checkIn, checkOut time.Time, err error) {
	checkIn, err = timezone.Parse("2006-01-02", c.CheckInDate)
	if err != nil {
		return checkIn, checkOut, err
	}

	checkOut, err = timezone.Parse("2006-01-02", c.CheckOutDate)

	return checkIn, checkOut, err
}

// ToModel captures the price at creation time: nights x the room's current
// nightly rate. Later rate changes never alter a stored booking total.
func (c *CreateBookingRequest) ToModel(actor, guestID, bookingNumber, status string, checkIn, checkOut time.Time, rate float64) model.Booking {
	nights := model.Nights(checkIn, checkOut)

	return model.Booking{
		ID:                 uuid.NewString(),
		BookingNumber:      bookingNumber,
		GuestID:            guestID,
		RoomID:             c.RoomID,
		CheckInDate:        checkIn,
		CheckOutDate:       checkOut,
		NumberOfGuests:     c.NumberOfGuests,
		TotalAmount:        float64(nights) * rate,
		Status:             status,
		PaymentStatus:      model.PaymentStatusPending,
		SpecialRequests:    c.SpecialRequests,
		AdditionalServices: model.ServiceItems(c.AdditionalServices),
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  actor,
			ModifiedBy: actor,
		},
	}
}

type UpdateBookingRequest struct {
	NumberOfGuests     int                 `db:"number_of_guests" json:"number_of_guests" validate:"omitempty,gte=1"`
	SpecialRequests    string              `db:"special_requests" json:"special_requests" validate:"omitempty,max=500"`
	Notes              string              `db:"notes"            json:"notes"            validate:"omitempty,max=1000"`
	AdditionalServices []model.ServiceItem `json:"additional_services"                    validate:"omitempty,dive"`
}

// TransitionRequest carries the optional note attached to a check-in,
// check-out, cancellation or no-show.
type TransitionRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=1000"`
}

type BookingResponse struct {
	ID                 string              `json:"id"`
	BookingNumber      string              `json:"booking_number"`
	GuestID            string              `json:"guest_id"`
	GuestName          string              `json:"guest_name"`
	GuestEmail         string              `json:"guest_email"`
	RoomID             string              `json:"room_id"`
	RoomNumber         string              `json:"room_number"`
	RoomType           string              `json:"room_type"`
	CheckInDate        string              `json:"check_in_date"`
	CheckOutDate       string              `json:"check_out_date"`
	Nights             int                 `json:"nights"`
	NumberOfGuests     int                 `json:"number_of_guests"`
	TotalAmount        float64             `json:"total_amount"`
	Status             string              `json:"status"`
	PaymentStatus      string              `json:"payment_status"`
	SpecialRequests    string              `json:"special_requests,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	AdditionalServices []model.ServiceItem `json:"additional_services"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(mod model.Booking) {
	r.ID = mod.ID
	r.BookingNumber = mod.BookingNumber
	r.GuestID = mod.GuestID
	r.GuestName = mod.GuestName
	r.GuestEmail = mod.GuestEmail
	r.RoomID = mod.RoomID
	r.RoomNumber = mod.RoomNumber
	r.RoomType = mod.RoomType
	r.CheckInDate = mod.CheckInDate.Format("2006-01-02")
	r.CheckOutDate = mod.CheckOutDate.Format("2006-01-02")
	r.Nights = mod.Nights()
	r.NumberOfGuests = mod.NumberOfGuests
	r.TotalAmount = mod.TotalAmount
	r.Status = mod.Status
	r.PaymentStatus = mod.PaymentStatus
	r.SpecialRequests = mod.SpecialRequests
	r.Notes = mod.Notes
	r.AdditionalServices = mod.AdditionalServices
	r.Metadata.FromModel(mod.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

type BookingStatistics struct {
	TotalBookings       int     `db:"total_bookings"        json:"total_bookings"`
	PendingBookings     int     `db:"pending_bookings"      json:"pending_bookings"`
	ConfirmedBookings   int     `db:"confirmed_bookings"    json:"confirmed_bookings"`
	CheckedInBookings   int     `db:"checked_in_bookings"   json:"checked_in_bookings"`
	CheckedOutBookings  int     `db:"checked_out_bookings"  json:"checked_out_bookings"`
	CancelledBookings   int     `db:"cancelled_bookings"    json:"cancelled_bookings"`
	NoShowBookings      int     `db:"no_show_bookings"      json:"no_show_bookings"`
	TotalRevenue        float64 `db:"total_revenue"         json:"total_revenue"`
	AverageBookingValue float64 `db:"average_booking_value" json:"average_booking_value"`
}

type DailyBookingStatistics struct {
	Day     string  `db:"day"     json:"day"`
	Count   int     `db:"count"   json:"count"`
	Revenue float64 `db:"revenue" json:"revenue"`
}

type BookingStatisticsResponse struct {
	Overall BookingStatistics        `json:"overall"`
	Daily   []DailyBookingStatistics `json:"daily"`
}

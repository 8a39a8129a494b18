package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innkeeper/internal/domains/booking/model"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestNights(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     int
	}{
		{name: "two full nights", checkIn: day(10), checkOut: day(12), want: 2},
		{name: "single night", checkIn: day(10), checkOut: day(11), want: 1},
		{name: "sub-24h stay still bills one night", checkIn: day(10), checkOut: day(10).Add(6 * time.Hour), want: 1},
		{name: "late checkout does not add a night", checkIn: day(10), checkOut: day(11).Add(6 * time.Hour), want: 1},
		{name: "same instant bills one night", checkIn: day(10), checkOut: day(10), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.Nights(tt.checkIn, tt.checkOut))
		})
	}

	t.Run("daylight saving fall-back does not add a night", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)

		// The 2026-11-01 fall-back makes this stay 49 wall-clock hours; the
		// guest still occupies the room for two nights.
		checkIn := time.Date(2026, 10, 31, 0, 0, 0, 0, loc)
		checkOut := time.Date(2026, 11, 2, 0, 0, 0, 0, loc)

		assert.Equal(t, 2, model.Nights(checkIn, checkOut))
	})

	t.Run("daylight saving spring-forward does not drop a night", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)

		checkIn := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)
		checkOut := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)

		assert.Equal(t, 2, model.Nights(checkIn, checkOut))
	})
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		aIn  time.Time
		aOut time.Time
		bIn  time.Time
		bOut time.Time
		want bool
	}{
		{name: "disjoint ranges", aIn: day(1), aOut: day(3), bIn: day(5), bOut: day(7), want: false},
		{name: "checkout meets check-in", aIn: day(1), aOut: day(5), bIn: day(5), bOut: day(8), want: false},
		{name: "check-in meets checkout", aIn: day(5), aOut: day(8), bIn: day(1), bOut: day(5), want: false},
		{name: "one-day intrusion", aIn: day(1), aOut: day(5), bIn: day(4), bOut: day(8), want: true},
		{name: "contained stay", aIn: day(1), aOut: day(10), bIn: day(3), bOut: day(5), want: true},
		{name: "identical ranges", aIn: day(1), aOut: day(5), bIn: day(1), bOut: day(5), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.Overlaps(tt.aIn, tt.aOut, tt.bIn, tt.bOut))
			assert.Equal(t, tt.want, model.Overlaps(tt.bIn, tt.bOut, tt.aIn, tt.aOut))
		})
	}
}

func TestServiceItemTotal(t *testing.T) {
	assert.InDelta(t, 50, model.ServiceItem{Service: "Breakfast", Price: 25, Quantity: 2}.Total(), 0.001)
	assert.InDelta(t, 25, model.ServiceItem{Service: "Breakfast", Price: 25}.Total(), 0.001)
}

func TestBookingCharge(t *testing.T) {
	booking := model.Booking{
		TotalAmount: 450,
		AdditionalServices: model.ServiceItems{
			{Service: "Breakfast", Price: 25, Quantity: 2},
			{Service: "Spa", Price: 80, Quantity: 1},
		},
	}

	assert.InDelta(t, 580, booking.Charge(), 0.001)
}

func TestIsActiveStatus(t *testing.T) {
	assert.True(t, model.IsActiveStatus(model.StatusPending))
	assert.True(t, model.IsActiveStatus(model.StatusConfirmed))
	assert.True(t, model.IsActiveStatus(model.StatusCheckedIn))
	assert.False(t, model.IsActiveStatus(model.StatusCheckedOut))
	assert.False(t, model.IsActiveStatus(model.StatusCancelled))
	assert.False(t, model.IsActiveStatus(model.StatusNoShow))
}

func TestServiceItemsScan(t *testing.T) {
	t.Run("null column yields empty slice", func(t *testing.T) {
		var items model.ServiceItems

		assert.NoError(t, items.Scan(nil))
		assert.Empty(t, items)
		assert.NotNil(t, items)
	})

	t.Run("jsonb payload", func(t *testing.T) {
		var items model.ServiceItems

		raw := []byte(`[{"service":"Breakfast","price":25,"quantity":2}]`)

		assert.NoError(t, items.Scan(raw))
		assert.Len(t, items, 1)
		assert.Equal(t, "Breakfast", items[0].Service)
	})

	t.Run("unexpected column type", func(t *testing.T) {
		var items model.ServiceItems

		assert.Error(t, items.Scan(42))
	})
}

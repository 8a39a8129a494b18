package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"innkeeper/config"
	"innkeeper/infras/otel/mocks"
	billingMocks "innkeeper/internal/domains/billing/repository/mocks"
	"innkeeper/internal/domains/booking/model"
	"innkeeper/internal/domains/booking/model/dto"
	bookingMocks "innkeeper/internal/domains/booking/repository/mocks"
	"innkeeper/internal/domains/booking/service"
	roomModel "innkeeper/internal/domains/room/model"
	roomMocks "innkeeper/internal/domains/room/repository/mocks"
	"innkeeper/shared/constant"
	lockMocks "innkeeper/shared/lock/mocks"
	gModel "innkeeper/shared/model"
	"innkeeper/shared/timezone"
)

// fakeCache is an in-memory stand-in for the redis cache so tests stay
// deterministic even though invalidation runs on detached goroutines.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}}
}

func (c *fakeCache) Save(_ context.Context, key string, value any, _ int) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = raw

	return nil
}

func (c *fakeCache) Get(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.store[key]
	if !ok {
		return errors.New("cache miss")
	}

	return json.Unmarshal(raw, value)
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.store, key)

	return nil
}

func (c *fakeCache) Clear(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.store {
		if strings.HasPrefix(key, prefix) {
			delete(c.store, key)
		}
	}

	return nil
}

type bookingFixture struct {
	repo        *bookingMocks.MockBooking
	roomRepo    *roomMocks.MockRoom
	paymentRepo *billingMocks.MockPayment
	locker      *lockMocks.MockLocker
	svc         service.Booking
}

func newBookingFixture(t *testing.T) bookingFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.App.Booking.NumberPrefix = "BK"
	cfg.Cache.TTL = 60

	repo := bookingMocks.NewMockBooking(ctrl)
	roomRepo := roomMocks.NewMockRoom(ctrl)
	paymentRepo := billingMocks.NewMockPayment(ctrl)
	locker := lockMocks.NewMockLocker(ctrl)

	return bookingFixture{
		repo:        repo,
		roomRepo:    roomRepo,
		paymentRepo: paymentRepo,
		locker:      locker,
		svc:         service.New(repo, roomRepo, paymentRepo, locker, cfg, newFakeCache(), mocks.NewOtel()),
	}
}

func validRoom() roomModel.Room {
	return roomModel.Room{
		ID:            "room-id-123",
		RoomNumber:    "101",
		RoomType:      "Deluxe",
		PricePerNight: 150,
		Capacity:      2,
		Status:        roomModel.StatusAvailable,
		Active:        true,
	}
}

func validBooking(status string) model.Booking {
	return model.Booking{
		ID:             "booking-id-123",
		BookingNumber:  "BK000042",
		GuestID:        "guest-id-123",
		RoomID:         "room-id-123",
		CheckInDate:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOutDate:   time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		NumberOfGuests: 2,
		TotalAmount:    300,
		Status:         status,
		PaymentStatus:  model.PaymentStatusPending,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  "staff-id-123",
			ModifiedBy: "staff-id-123",
		},
	}
}

func createRequest() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		RoomID:         "room-id-123",
		CheckInDate:    "2026-03-10",
		CheckOutDate:   "2026-03-12",
		NumberOfGuests: 2,
	}
}

func TestBookingService_Create(t *testing.T) {
	t.Run("invalid date format", func(t *testing.T) {
		f := newBookingFixture(t)

		req := createRequest()
		req.CheckInDate = "10-03-2026"

		_, err := f.svc.Create(context.Background(), "actor-id", req, false)
		assert.ErrorContains(t, err, "invalid date format")
	})

	t.Run("check-out must be after check-in", func(t *testing.T) {
		f := newBookingFixture(t)

		req := createRequest()
		req.CheckOutDate = req.CheckInDate

		_, err := f.svc.Create(context.Background(), "actor-id", req, false)
		assert.ErrorContains(t, err, "check-out date must be after check-in date")
	})

	t.Run("staff booking requires guest_id", func(t *testing.T) {
		f := newBookingFixture(t)

		_, err := f.svc.Create(context.Background(), "staff-id", createRequest(), true)
		assert.ErrorContains(t, err, "guest_id is required")
	})

	t.Run("room not found", func(t *testing.T) {
		f := newBookingFixture(t)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(roomModel.Room{}, nil)

		_, err := f.svc.Create(context.Background(), "actor-id", createRequest(), false)
		assert.ErrorContains(t, err, "room not found")
	})

	t.Run("inactive room is not bookable", func(t *testing.T) {
		f := newBookingFixture(t)

		room := validRoom()
		room.Active = false

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(room, nil)

		_, err := f.svc.Create(context.Background(), "actor-id", createRequest(), false)
		assert.ErrorContains(t, err, "room not found")
	})

	t.Run("party larger than room capacity", func(t *testing.T) {
		f := newBookingFixture(t)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(validRoom(), nil)

		req := createRequest()
		req.NumberOfGuests = 5

		_, err := f.svc.Create(context.Background(), "actor-id", req, false)
		assert.ErrorContains(t, err, "holds at most 2 guests")
	})

	t.Run("overlapping booking rejected", func(t *testing.T) {
		f := newBookingFixture(t)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(validRoom(), nil)

		f.locker.EXPECT().
			Acquire(gomock.Any(), gomock.Any()).
			Return(func() {}, nil)

		f.repo.EXPECT().
			FindOverlapping(gomock.Any(), "room-id-123", gomock.Any(), gomock.Any()).
			Return([]model.Booking{validBooking(model.StatusConfirmed)}, nil)

		_, err := f.svc.Create(context.Background(), "actor-id", createRequest(), false)
		assert.ErrorContains(t, err, "already booked for the selected dates")
	})

	t.Run("lock acquire failure", func(t *testing.T) {
		f := newBookingFixture(t)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(validRoom(), nil)

		f.locker.EXPECT().
			Acquire(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("lock held"))

		_, err := f.svc.Create(context.Background(), "actor-id", createRequest(), false)
		assert.ErrorContains(t, err, "failed to acquire room lock")
	})

	t.Run("staff booking enters at confirmed", func(t *testing.T) {
		f := newBookingFixture(t)

		released := false

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(validRoom(), nil)

		f.locker.EXPECT().
			Acquire(gomock.Any(), "lock:room:room-id-123").
			Return(func() { released = true }, nil)

		f.repo.EXPECT().
			FindOverlapping(gomock.Any(), "room-id-123", gomock.Any(), gomock.Any()).
			Return(nil, nil)

		f.repo.EXPECT().
			NextBookingNumber(gomock.Any()).
			Return(int64(42), nil)

		f.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, booking model.Booking) error {
				assert.Equal(t, "BK000042", booking.BookingNumber)
				assert.Equal(t, model.StatusConfirmed, booking.Status)
				assert.Equal(t, "guest-id-123", booking.GuestID)
				assert.Equal(t, "staff-id-123", booking.CreatedBy)
				assert.Equal(t, model.PaymentStatusPending, booking.PaymentStatus)
				assert.InDelta(t, 300, booking.TotalAmount, 0.001)

				return nil
			})

		req := createRequest()
		req.GuestID = "guest-id-123"

		res, err := f.svc.Create(context.Background(), "staff-id-123", req, true)

		require.NoError(t, err)
		assert.True(t, released)
		assert.Equal(t, "BK000042", res.BookingNumber)
		assert.Equal(t, model.StatusConfirmed, res.Status)
		assert.Equal(t, 2, res.Nights)
		assert.Equal(t, "101", res.RoomNumber)
		assert.InDelta(t, 300, res.TotalAmount, 0.001)
	})

	t.Run("guest booking enters at pending for the actor", func(t *testing.T) {
		f := newBookingFixture(t)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(validRoom(), nil)

		f.locker.EXPECT().
			Acquire(gomock.Any(), gomock.Any()).
			Return(func() {}, nil)

		f.repo.EXPECT().
			FindOverlapping(gomock.Any(), "room-id-123", gomock.Any(), gomock.Any()).
			Return(nil, nil)

		f.repo.EXPECT().
			NextBookingNumber(gomock.Any()).
			Return(int64(7), nil)

		f.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, booking model.Booking) error {
				assert.Equal(t, "BK000007", booking.BookingNumber)
				assert.Equal(t, model.StatusPending, booking.Status)
				assert.Equal(t, "guest-actor-id", booking.GuestID)

				return nil
			})

		res, err := f.svc.Create(context.Background(), "guest-actor-id", createRequest(), false)

		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, res.Status)
	})
}

func TestBookingService_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newBookingFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(validBooking(model.StatusConfirmed), nil)

		res, err := f.svc.Get(context.Background(), "booking-id-123")

		require.NoError(t, err)
		assert.Equal(t, "booking-id-123", res.ID)
		assert.Equal(t, "BK000042", res.BookingNumber)
	})

	t.Run("not found", func(t *testing.T) {
		f := newBookingFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Booking{}, nil)

		_, err := f.svc.Get(context.Background(), "missing-id")
		assert.ErrorContains(t, err, "booking not found")
	})
}

func TestBookingService_Update(t *testing.T) {
	t.Run("booking not found", func(t *testing.T) {
		f := newBookingFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Booking{}, nil)

		err := f.svc.Update(context.Background(), "actor-id", dto.UpdateBookingRequest{Notes: "note"}, "missing-id")
		assert.ErrorContains(t, err, "booking not found")
	})

	t.Run("guest count above capacity", func(t *testing.T) {
		f := newBookingFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(validBooking(model.StatusConfirmed), nil)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(validRoom(), nil)

		err := f.svc.Update(context.Background(), "actor-id", dto.UpdateBookingRequest{NumberOfGuests: 4}, "booking-id-123")
		assert.ErrorContains(t, err, "holds at most 2 guests")
	})

	t.Run("successful update", func(t *testing.T) {
		f := newBookingFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(validBooking(model.StatusConfirmed), nil)

		f.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
				assert.Equal(t, "late arrival", fields[model.FieldSpecialRequests])

				return nil
			})

		err := f.svc.Update(context.Background(), "actor-id", dto.UpdateBookingRequest{SpecialRequests: "late arrival"}, "booking-id-123")
		assert.NoError(t, err)
	})
}

func TestBookingService_Transitions(t *testing.T) {
	type transitionCall func(f bookingFixture) error

	checkIn := func(f bookingFixture) error {
		return f.svc.CheckIn(context.Background(), "actor-id", "booking-id-123", dto.TransitionRequest{})
	}
	checkOut := func(f bookingFixture) error {
		return f.svc.CheckOut(context.Background(), "actor-id", "booking-id-123", dto.TransitionRequest{})
	}
	cancel := func(f bookingFixture) error {
		return f.svc.Cancel(context.Background(), "actor-id", "booking-id-123", dto.TransitionRequest{})
	}
	noShow := func(f bookingFixture) error {
		return f.svc.MarkNoShow(context.Background(), "actor-id", "booking-id-123", dto.TransitionRequest{})
	}
	confirm := func(f bookingFixture) error {
		return f.svc.Confirm(context.Background(), "actor-id", "booking-id-123", dto.TransitionRequest{})
	}

	tests := []struct {
		name       string
		from       string
		call       transitionCall
		roomStatus string
		touchRoom  bool
		wantErr    bool
	}{
		{name: "confirm from pending leaves room alone", from: model.StatusPending, call: confirm},
		{name: "confirm from confirmed rejected", from: model.StatusConfirmed, call: confirm, wantErr: true},
		{name: "confirm from cancelled rejected", from: model.StatusCancelled, call: confirm, wantErr: true},
		{name: "check-in from confirmed", from: model.StatusConfirmed, call: checkIn, roomStatus: roomModel.StatusOccupied, touchRoom: true},
		{name: "check-in from pending rejected", from: model.StatusPending, call: checkIn, wantErr: true},
		{name: "check-in from checked out rejected", from: model.StatusCheckedOut, call: checkIn, wantErr: true},
		{name: "check-out from checked in", from: model.StatusCheckedIn, call: checkOut, roomStatus: roomModel.StatusCleaning, touchRoom: true},
		{name: "check-out from confirmed rejected", from: model.StatusConfirmed, call: checkOut, wantErr: true},
		{name: "cancel from pending", from: model.StatusPending, call: cancel, roomStatus: roomModel.StatusAvailable, touchRoom: true},
		{name: "cancel from checked in", from: model.StatusCheckedIn, call: cancel, roomStatus: roomModel.StatusAvailable, touchRoom: true},
		{name: "cancel from checked out rejected", from: model.StatusCheckedOut, call: cancel, wantErr: true},
		{name: "cancel from cancelled rejected", from: model.StatusCancelled, call: cancel, wantErr: true},
		{name: "no-show from pending leaves room alone", from: model.StatusPending, call: noShow},
		{name: "no-show from checked in rejected", from: model.StatusCheckedIn, call: noShow, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)

			f.repo.EXPECT().
				Get(gomock.Any(), gomock.Any()).
				Return(validBooking(tt.from), nil)

			if !tt.wantErr {
				f.repo.EXPECT().
					Transact(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fn func(*sqlx.Tx) error) error {
						return fn(nil)
					})

				f.repo.EXPECT().
					UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				if tt.touchRoom {
					f.roomRepo.EXPECT().
						UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ any) error {
							assert.Equal(t, tt.roomStatus, fields[roomModel.FieldStatus])

							if tt.roomStatus == roomModel.StatusCleaning {
								assert.Contains(t, fields, roomModel.FieldLastCleaned)
							} else {
								assert.NotContains(t, fields, roomModel.FieldLastCleaned)
							}

							return nil
						})
				}
			}

			err := tt.call(f)

			if tt.wantErr {
				assert.ErrorContains(t, err, "booking cannot move from")

				return
			}

			assert.NoError(t, err)
		})
	}

	t.Run("transition carries the note", func(t *testing.T) {
		f := newBookingFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(validBooking(model.StatusConfirmed), nil)

		f.repo.EXPECT().
			Transact(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fn func(*sqlx.Tx) error) error {
				return fn(nil)
			})

		f.repo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ any) error {
				assert.Equal(t, model.StatusCheckedIn, fields[model.FieldStatus])
				assert.Equal(t, "arrived early", fields[model.FieldNotes])

				return nil
			})

		f.roomRepo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		err := f.svc.CheckIn(context.Background(), "actor-id", "booking-id-123", dto.TransitionRequest{Notes: "arrived early"})
		assert.NoError(t, err)
	})

	t.Run("confirm writes the confirmed status", func(t *testing.T) {
		// A guest self-service booking starts Pending and check-in requires
		// Confirmed; confirming is what moves it forward.
		f := newBookingFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(validBooking(model.StatusPending), nil)

		f.repo.EXPECT().
			Transact(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fn func(*sqlx.Tx) error) error {
				return fn(nil)
			})

		f.repo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ any) error {
				assert.Equal(t, model.StatusConfirmed, fields[model.FieldStatus])
				assert.Equal(t, "actor-id", fields[constant.FieldModifiedBy])

				return nil
			})

		err := f.svc.Confirm(context.Background(), "actor-id", "booking-id-123", dto.TransitionRequest{})
		assert.NoError(t, err)
	})
}

func TestBookingService_Delete(t *testing.T) {
	t.Run("booking not found", func(t *testing.T) {
		f := newBookingFixture(t)

		f.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := f.svc.Delete(context.Background(), "missing-id")
		assert.ErrorContains(t, err, "booking not found")
	})

	t.Run("deletes the ledger before the booking", func(t *testing.T) {
		f := newBookingFixture(t)

		f.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		ledgerDeleted := f.paymentRepo.EXPECT().
			DeleteByBooking(gomock.Any(), "booking-id-123").
			Return(nil)

		f.repo.EXPECT().
			Delete(gomock.Any(), gomock.Any()).
			After(ledgerDeleted).
			Return(nil)

		err := f.svc.Delete(context.Background(), "booking-id-123")
		assert.NoError(t, err)
	})
}

func TestBookingService_Statistics(t *testing.T) {
	f := newBookingFixture(t)

	overall := dto.BookingStatistics{
		TotalBookings:  12,
		NoShowBookings: 2,
		TotalRevenue:   3600,
	}
	daily := []dto.DailyBookingStatistics{
		{Day: "2026-03-10", Count: 3, Revenue: 900},
	}

	f.repo.EXPECT().
		Statistics(gomock.Any(), gomock.Any()).
		Return(overall, nil)

	f.repo.EXPECT().
		DailyStatistics(gomock.Any(), gomock.Any()).
		Return(daily, nil)

	res, err := f.svc.Statistics(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, overall, res.Overall)
	assert.Equal(t, daily, res.Daily)
}

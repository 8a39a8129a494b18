package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"innkeeper/config"
	"innkeeper/infras/otel"
	billingRepository "innkeeper/internal/domains/billing/repository"
	"innkeeper/internal/domains/booking/model"
	"innkeeper/internal/domains/booking/model/dto"
	"innkeeper/internal/domains/booking/repository"
	roomModel "innkeeper/internal/domains/room/model"
	roomRepository "innkeeper/internal/domains/room/repository"
	"innkeeper/shared"
	"innkeeper/shared/cache"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/shared/failure"
	"innkeeper/shared/lock"
	"innkeeper/shared/timezone"
)

const (
	cacheGetBooking        = "booking:get"
	cacheGetAllBookings    = "booking:get_all"
	cacheCountBookings     = "booking:count"
	cacheBookingStatistics = "booking:statistics"

	roomLockPrefix = "lock:room"

	bookingNumberPadding = 6
)

type Booking interface {
	Create(ctx context.Context, actor string, req dto.CreateBookingRequest, staff bool) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	Update(ctx context.Context, actor string, req dto.UpdateBookingRequest, id string) error
	Delete(ctx context.Context, id string) error
	Confirm(ctx context.Context, actor, id string, req dto.TransitionRequest) error
	CheckIn(ctx context.Context, actor, id string, req dto.TransitionRequest) error
	CheckOut(ctx context.Context, actor, id string, req dto.TransitionRequest) error
	Cancel(ctx context.Context, actor, id string, req dto.TransitionRequest) error
	MarkNoShow(ctx context.Context, actor, id string, req dto.TransitionRequest) error
	Statistics(ctx context.Context, periodDays int) (dto.BookingStatisticsResponse, error)
}

type serviceImpl struct {
	repo        repository.Booking
	roomRepo    roomRepository.Room
	paymentRepo billingRepository.Payment
	locker      lock.Locker
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(
	repo repository.Booking,
	roomRepo roomRepository.Room,
	paymentRepo billingRepository.Payment,
	locker lock.Locker,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:        repo,
		roomRepo:    roomRepo,
		paymentRepo: paymentRepo,
		locker:      locker,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

// Create books a room. The guest path enters the lifecycle at Pending, the
// staff path at Confirmed. The overlap check and the insert run under a
// per-room mutex so two concurrent requests cannot both pass the check.
func (s *serviceImpl) Create(ctx context.Context, actor string, req dto.CreateBookingRequest, staff bool) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	checkIn, checkOut, err := req.ParseDates()
	if err != nil {
		return res, failure.BadRequestFromString("invalid date format, expected YYYY-MM-DD")
	}

	if !checkOut.After(checkIn) {
		return res, failure.BadRequestFromString("check-out date must be after check-in date")
	}

	guestID := actor
	status := model.StatusPending

	if staff {
		if req.GuestID == constant.Empty {
			return res, failure.BadRequestFromString("guest_id is required")
		}

		guestID = req.GuestID
		status = model.StatusConfirmed
	}

	room, err := s.roomRepo.Get(ctx, shared.FilterByID(req.RoomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return res, fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty || !room.Active {
		return res, failure.NotFound("room not found")
	}

	if req.NumberOfGuests > room.Capacity {
		return res, failure.CapacityExceeded(fmt.Sprintf("room %s holds at most %d guests", room.RoomNumber, room.Capacity))
	}

	release, err := s.locker.Acquire(ctx, shared.BuildCacheKey(roomLockPrefix, room.ID))
	if err != nil {
		log.Error().Err(err).Msg("failed to acquire room lock")

		return res, fmt.Errorf("failed to acquire room lock: %w", err)
	}
	defer release()

	overlapping, err := s.repo.FindOverlapping(ctx, room.ID, checkIn, checkOut)
	if err != nil {
		log.Error().Err(err).Msg("failed to check booking overlap")

		return res, fmt.Errorf("failed to check booking overlap: %w", err)
	}

	if len(overlapping) > 0 {
		return res, failure.Conflict("room is already booked for the selected dates")
	}

	next, err := s.repo.NextBookingNumber(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to allocate booking number")

		return res, fmt.Errorf("failed to allocate booking number: %w", err)
	}

	bookingNumber := fmt.Sprintf("%s%0*d", s.cfg.App.Booking.NumberPrefix, bookingNumberPadding, next)
	booking := req.ToModel(actor, guestID, bookingNumber, status, checkIn, checkOut, room.PricePerNight)

	if err = s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	booking.RoomNumber = room.RoomNumber
	booking.RoomType = room.RoomType
	booking.RoomRate = room.PricePerNight

	res.FromModel(booking)

	go s.invalidateListCaches(context.WithoutCancel(ctx))

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBookings, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	bookings, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(bookings, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found")
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, actor string, req dto.UpdateBookingRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return failure.NotFound("booking not found")
	}

	if req.NumberOfGuests > 0 {
		room, roomErr := s.roomRepo.Get(ctx, shared.FilterByID(booking.RoomID, roomModel.FieldID, roomModel.TableName))
		if roomErr != nil {
			log.Error().Err(roomErr).Msg("failed to get room")

			return fmt.Errorf("failed to get room: %w", roomErr)
		}

		if room.ID != constant.Empty && req.NumberOfGuests > room.Capacity {
			return failure.CapacityExceeded(fmt.Sprintf("room %s holds at most %d guests", room.RoomNumber, room.Capacity))
		}
	}

	updatedFields := shared.TransformFields(req, actor)

	if req.AdditionalServices != nil {
		updatedFields[model.FieldAdditionalServices] = model.ServiceItems(req.AdditionalServices)
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update booking")

		return fmt.Errorf("failed to update booking: %w", err)
	}

	go s.invalidateBookingCaches(context.WithoutCancel(ctx), id)

	return nil
}

// Delete removes the booking and its ledger entries outright. Room status is
// left untouched even for a checked-in booking; cancel first to free the room.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if booking exists")

		return fmt.Errorf("failed to check if booking exists: %w", err)
	}

	if !exist {
		return failure.NotFound("booking not found")
	}

	if err = s.paymentRepo.DeleteByBooking(ctx, id); err != nil {
		log.Error().Err(err).Msg("failed to delete booking ledger")

		return fmt.Errorf("failed to delete booking ledger: %w", err)
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete booking")

		return fmt.Errorf("failed to delete booking: %w", err)
	}

	go s.invalidateBookingCaches(context.WithoutCancel(ctx), id)

	return nil
}

// Confirm accepts a guest self-service booking. Staff bookings enter the
// lifecycle already Confirmed; this is the only path a Pending booking has
// towards check-in. The room stays untouched until the guest arrives.
func (s *serviceImpl) Confirm(ctx context.Context, actor, id string, req dto.TransitionRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Confirm")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.transition(ctx, actor, id, req.Notes, []string{model.StatusPending}, model.StatusConfirmed, constant.Empty)
}

func (s *serviceImpl) CheckIn(ctx context.Context, actor, id string, req dto.TransitionRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckIn")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.transition(ctx, actor, id, req.Notes, []string{model.StatusConfirmed}, model.StatusCheckedIn, roomModel.StatusOccupied)
}

func (s *serviceImpl) CheckOut(ctx context.Context, actor, id string, req dto.TransitionRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckOut")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.transition(ctx, actor, id, req.Notes, []string{model.StatusCheckedIn}, model.StatusCheckedOut, roomModel.StatusCleaning)
}

func (s *serviceImpl) Cancel(ctx context.Context, actor, id string, req dto.TransitionRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.transition(ctx, actor, id, req.Notes,
		[]string{model.StatusPending, model.StatusConfirmed, model.StatusCheckedIn},
		model.StatusCancelled, roomModel.StatusAvailable)
}

// MarkNoShow closes a booking whose guest never arrived. The room never
// entered service, so its status stays as it is.
func (s *serviceImpl) MarkNoShow(ctx context.Context, actor, id string, req dto.TransitionRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".MarkNoShow")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.transition(ctx, actor, id, req.Notes,
		[]string{model.StatusPending, model.StatusConfirmed},
		model.StatusNoShow, constant.Empty)
}

// transition moves a booking between lifecycle states. The booking row and
// the room row change in one transaction; a guard failure leaves both intact.
func (s *serviceImpl) transition(ctx context.Context, actor, id, notes string, from []string, to, roomStatus string) (err error) {
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return failure.NotFound("booking not found")
	}

	allowed := false

	for _, status := range from {
		if booking.Status == status {
			allowed = true

			break
		}
	}

	if !allowed {
		return failure.Conflict(fmt.Sprintf("booking cannot move from %s to %s", booking.Status, to))
	}

	bookingFields := map[string]any{
		model.FieldStatus:        to,
		constant.FieldModifiedBy: actor,
		constant.FieldModifiedAt: timezone.Now(),
	}

	if notes != constant.Empty {
		bookingFields[model.FieldNotes] = notes
	}

	err = s.repo.Transact(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateTx(ctx, tx, bookingFields, filter); err != nil {
			return fmt.Errorf("failed to update booking status: %w", err)
		}

		if roomStatus == constant.Empty {
			return nil
		}

		roomFields := map[string]any{
			roomModel.FieldStatus:    roomStatus,
			constant.FieldModifiedBy: actor,
			constant.FieldModifiedAt: timezone.Now(),
		}

		if roomStatus == roomModel.StatusCleaning {
			roomFields[roomModel.FieldLastCleaned] = timezone.Now()
		}

		roomFilter := shared.FilterByID(booking.RoomID, roomModel.FieldID, roomModel.TableName)

		if err := s.roomRepo.UpdateTx(ctx, tx, roomFields, roomFilter); err != nil {
			return fmt.Errorf("failed to update room status: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("booking", id).Str("to", to).Msg("failed to transition booking")

		return err
	}

	go s.invalidateBookingCaches(context.WithoutCancel(ctx), id)

	return nil
}

func (s *serviceImpl) Statistics(ctx context.Context, periodDays int) (res dto.BookingStatisticsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Statistics")
	defer scope.End()
	defer scope.TraceIfError(err)

	if periodDays <= 0 {
		periodDays = constant.DefaultStatisticsPeriodDays
	}

	cacheKey := shared.BuildCacheKey(cacheBookingStatistics, fmt.Sprintf("%d", periodDays))

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking statistics")

		return res, nil
	}

	since := timezone.Now().AddDate(0, 0, -periodDays)

	overall, err := s.repo.Statistics(ctx, since)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking statistics")

		return res, fmt.Errorf("failed to get booking statistics: %w", err)
	}

	daily, err := s.repo.DailyStatistics(ctx, since)
	if err != nil {
		log.Error().Err(err).Msg("failed to get daily booking statistics")

		return res, fmt.Errorf("failed to get daily booking statistics: %w", err)
	}

	res.Overall = overall
	res.Daily = daily

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking statistics to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) invalidateListCaches(ctx context.Context) {
	shared.InvalidateCaches(ctx, s.cache, cacheGetAllBookings)
	shared.InvalidateCaches(ctx, s.cache, cacheCountBookings)
	shared.InvalidateCaches(ctx, s.cache, cacheBookingStatistics)
}

func (s *serviceImpl) invalidateBookingCaches(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
		log.Error().Err(err).Msg("failed to delete booking cache")
	}

	s.invalidateListCaches(ctx)
}

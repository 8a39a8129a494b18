package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"innkeeper/config"
	"innkeeper/infras/otel"
	"innkeeper/infras/s3"
	"innkeeper/internal/domains/room/model"
	"innkeeper/internal/domains/room/model/dto"
	"innkeeper/internal/domains/room/repository"
	"innkeeper/shared"
	"innkeeper/shared/cache"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/shared/failure"
	"innkeeper/shared/timezone"
)

const (
	cacheGetRoom        = "room:get"
	cacheGetAllRooms    = "room:get_all"
	cacheCountRooms     = "room:count"
	cacheRoomStatistics = "room:statistics"
)

type Room interface {
	Create(ctx context.Context, actor string, req dto.CreateRoomRequest) (dto.RoomResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetRoomsResponse, error)
	Get(ctx context.Context, id string) (dto.RoomResponse, error)
	Update(ctx context.Context, actor string, req dto.UpdateRoomRequest, id string) error
	SetStatus(ctx context.Context, actor, id, status string) error
	Delete(ctx context.Context, id string) error
	FindAvailable(ctx context.Context, query dto.AvailabilityQuery) (dto.GetRoomsResponse, error)
	Statistics(ctx context.Context) (dto.RoomStatisticsResponse, error)
}

type serviceImpl struct {
	repo  repository.Room
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
	s3    s3.S3
}

func New(repo repository.Room, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3) Room {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
		s3:    s3,
	}
}

func (s *serviceImpl) Create(ctx context.Context, actor string, req dto.CreateRoomRequest) (res dto.RoomResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	numberFilter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldRoomNumber, Table: model.TableName, Operator: gDto.FilterOperatorEq, Value: req.RoomNumber},
		},
	}

	exist, err := s.repo.Exist(ctx, numberFilter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check room number uniqueness")

		return res, fmt.Errorf("failed to check room number uniqueness: %w", err)
	}

	if exist {
		return res, failure.Conflict("room number already exists")
	}

	imageURL := constant.Empty

	if req.Image != nil {
		imageURL, err = s.s3.UploadFile(ctx, s.cfg.External.S3.BucketName, model.EntityName, req.ImageFile, req.Image, req.Image.Filename)
		if err != nil {
			log.Error().Err(err).Msg("failed to upload room image to S3")

			return res, fmt.Errorf("failed to upload room image: %w", err)
		}
	}

	room := req.ToModel(actor, imageURL)

	if err = s.repo.Insert(ctx, room); err != nil {
		log.Error().Err(err).Msg("failed to create room")

		// Compensate the upload so a failed insert leaves no orphan object.
		if imageURL != constant.Empty {
			s.deleteImage(context.WithoutCancel(ctx), imageURL)
		}

		return res, fmt.Errorf("failed to create room: %w", err)
	}

	res.FromModel(room)

	go s.invalidateListCaches(context.WithoutCancel(ctx))

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetRoomsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllRooms, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for rooms")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count rooms")

		return res, fmt.Errorf("failed to count rooms: %w", err)
	}

	rooms, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get rooms")

		return res, fmt.Errorf("failed to get rooms: %w", err)
	}

	res.FromModels(rooms, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save rooms to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.RoomResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetRoom, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for room")

		return res, nil
	}

	room, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return res, fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return res, failure.NotFound("room not found")
	}

	res.FromModel(room)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save room to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, actor string, req dto.UpdateRoomRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	room, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return failure.NotFound("room not found")
	}

	if req.RoomNumber != constant.Empty && req.RoomNumber != room.RoomNumber {
		collisionFilter := gDto.FilterGroup{
			Operator: gDto.FilterGroupOperatorAnd,
			Filters: []any{
				gDto.Filter{Field: model.FieldRoomNumber, Table: model.TableName, Operator: gDto.FilterOperatorEq, Value: req.RoomNumber},
				gDto.Filter{Field: model.FieldID, Table: model.TableName, Operator: gDto.FilterOperatorNotEq, Value: id},
			},
		}

		exist, existErr := s.repo.Exist(ctx, collisionFilter)
		if existErr != nil {
			log.Error().Err(existErr).Msg("failed to check room number uniqueness")

			return fmt.Errorf("failed to check room number uniqueness: %w", existErr)
		}

		if exist {
			return failure.Conflict("room number already exists")
		}
	}

	updatedFields := shared.TransformFields(req, actor)

	if req.Amenities != nil {
		updatedFields[model.FieldAmenities] = model.Amenities(req.Amenities)
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update room")

		return fmt.Errorf("failed to update room: %w", err)
	}

	go s.invalidateRoomCaches(context.WithoutCancel(ctx), id)

	return nil
}

// SetStatus applies an operational status directly. Lifecycle transitions on
// bookings set room status through their own transactions, not through here.
func (s *serviceImpl) SetStatus(ctx context.Context, actor, id, status string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SetStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !model.IsValidStatus(status) {
		return failure.BadRequestFromString("invalid room status")
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if room exists")

		return fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exist {
		return failure.NotFound("room not found")
	}

	if err = s.repo.Update(ctx, map[string]any{
		model.FieldStatus:        status,
		constant.FieldModifiedBy: actor,
		constant.FieldModifiedAt: timezone.Now(),
	}, filter); err != nil {
		log.Error().Err(err).Msg("failed to set room status")

		return fmt.Errorf("failed to set room status: %w", err)
	}

	go s.invalidateRoomCaches(context.WithoutCancel(ctx), id)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	room, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return failure.NotFound("room not found")
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete room")

		return fmt.Errorf("failed to delete room: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		s.invalidateRoomCaches(c, id)

		if room.Image != constant.Empty {
			s.deleteImage(c, room.Image)
		}
	}()

	return nil
}

func (s *serviceImpl) FindAvailable(ctx context.Context, query dto.AvailabilityQuery) (res dto.GetRoomsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".FindAvailable")
	defer scope.End()
	defer scope.TraceIfError(err)

	checkIn, checkOut, err := query.ParseDates()
	if err != nil {
		return res, failure.BadRequestFromString("invalid date format, expected YYYY-MM-DD")
	}

	if !checkOut.After(checkIn) {
		return res, failure.BadRequestFromString("check-out date must be after check-in date")
	}

	rooms, err := s.repo.FindAvailable(ctx, checkIn, checkOut, query.RoomType, query.Guests)
	if err != nil {
		log.Error().Err(err).Msg("failed to find available rooms")

		return res, fmt.Errorf("failed to find available rooms: %w", err)
	}

	res.FromModels(rooms, len(rooms), 0)

	return res, nil
}

func (s *serviceImpl) Statistics(ctx context.Context) (res dto.RoomStatisticsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Statistics")
	defer scope.End()
	defer scope.TraceIfError(err)

	err = s.cache.Get(ctx, cacheRoomStatistics, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheRoomStatistics).Msg("cache hit for room statistics")

		return res, nil
	}

	overall, err := s.repo.Statistics(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to get room statistics")

		return res, fmt.Errorf("failed to get room statistics: %w", err)
	}

	byType, err := s.repo.TypeStatistics(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to get room type statistics")

		return res, fmt.Errorf("failed to get room type statistics: %w", err)
	}

	res.Overall = overall
	res.ByType = byType

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheRoomStatistics, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save room statistics to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) invalidateListCaches(ctx context.Context) {
	shared.InvalidateCaches(ctx, s.cache, cacheGetAllRooms)
	shared.InvalidateCaches(ctx, s.cache, cacheCountRooms)
	shared.InvalidateCaches(ctx, s.cache, cacheRoomStatistics)
}

func (s *serviceImpl) invalidateRoomCaches(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, shared.BuildCacheKey(cacheGetRoom, id)); err != nil {
		log.Error().Err(err).Msg("failed to delete room cache")
	}

	s.invalidateListCaches(ctx)
}

func (s *serviceImpl) deleteImage(ctx context.Context, imageURL string) {
	bucketName := s.cfg.External.S3.BucketName

	objectName := s.s3.GetObjectNameFromURL(bucketName, imageURL)
	if objectName == constant.Empty {
		log.Warn().Str("url", imageURL).Msg("failed to extract object name from URL")

		return
	}

	if err := s.s3.DeleteFile(ctx, bucketName, model.EntityName, objectName); err != nil {
		log.Error().Err(err).Str("objectName", objectName).Msg("failed to delete room image from S3")
	}
}

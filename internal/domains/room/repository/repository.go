package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=./mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"innkeeper/infras/otel"
	"innkeeper/infras/postgres"
	"innkeeper/internal/domains/room/model"
	"innkeeper/internal/domains/room/model/dto"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/shared/logger"
	gRepo "innkeeper/shared/repository"
)

type Room interface {
	Insert(ctx context.Context, model model.Room) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Room, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Room, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	FindAvailable(ctx context.Context, checkIn, checkOut time.Time, roomType string, guests int) ([]model.Room, error)
	Statistics(ctx context.Context) (dto.RoomStatistics, error)
	TypeStatistics(ctx context.Context) ([]dto.RoomTypeStatistics, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Room]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Room {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Room](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// FindAvailable lists active Available rooms with no active booking
// overlapping the half-open range [checkIn, checkOut). A room that is
// occupied, being cleaned, out of order or under maintenance is excluded
// regardless of the calendar.
func (repo *repositoryImpl) FindAvailable(ctx context.Context, checkIn, checkOut time.Time, roomType string, guests int) (rooms []model.Room, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".FindAvailable")
	defer scope.End()
	defer scope.TraceIfError(err)

	args := map[string]any{
		"range_in":  checkIn,
		"range_out": checkOut,
	}

	query := `
		SELECT rooms.* FROM rooms
		WHERE rooms.active = TRUE
		AND rooms.status = 'Available'
		AND NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE bookings.room_id = rooms.id
			AND bookings.status IN ('Pending', 'Confirmed', 'Checked In')
			AND bookings.check_in_date < :range_out
			AND bookings.check_out_date > :range_in
		)`

	if roomType != "" {
		query += " AND rooms.room_type = :room_type"
		args["room_type"] = roomType
	}

	if guests > 0 {
		query += " AND rooms.capacity >= :guests"
		args["guests"] = guests
	}

	query += " ORDER BY rooms.room_number"
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)

		return rooms, fmt.Errorf("failed to prepare statement (%s): %w", model.EntityName, err)
	}
	defer prepare.Close()

	if err = prepare.SelectContext(ctx, &rooms, args); err != nil {
		logger.ErrorWithStack(err)

		return rooms, fmt.Errorf("failed to find available rooms: %w", err)
	}

	return rooms, nil
}

func (repo *repositoryImpl) Statistics(ctx context.Context) (stats dto.RoomStatistics, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Statistics")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := `
		SELECT
			COUNT(*) AS total_rooms,
			COUNT(*) FILTER (WHERE status = 'Available') AS available_rooms,
			COUNT(*) FILTER (WHERE status = 'Occupied') AS occupied_rooms,
			COUNT(*) FILTER (WHERE status = 'Maintenance') AS maintenance_rooms,
			COUNT(*) FILTER (WHERE status = 'Cleaning') AS cleaning_rooms,
			COUNT(*) FILTER (WHERE status = 'Out of Order') AS out_of_order_rooms
		FROM rooms
		WHERE active = TRUE`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if err = repo.db.Read.GetContext(ctx, &stats, query); err != nil {
		logger.ErrorWithStack(err)

		return stats, fmt.Errorf("failed to get room statistics: %w", err)
	}

	return stats, nil
}

func (repo *repositoryImpl) TypeStatistics(ctx context.Context) (stats []dto.RoomTypeStatistics, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".TypeStatistics")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := `
		SELECT room_type, COUNT(*) AS count, COALESCE(AVG(price_per_night), 0) AS average_price
		FROM rooms
		WHERE active = TRUE
		GROUP BY room_type
		ORDER BY room_type`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if err = repo.db.Read.SelectContext(ctx, &stats, query); err != nil {
		logger.ErrorWithStack(err)

		return stats, fmt.Errorf("failed to get room type statistics: %w", err)
	}

	return stats, nil
}

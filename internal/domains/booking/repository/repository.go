package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=./mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"innkeeper/infras/otel"
	"innkeeper/infras/postgres"
	"innkeeper/internal/domains/booking/model"
	"innkeeper/internal/domains/booking/model/dto"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/shared/logger"
	gRepo "innkeeper/shared/repository"
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time) ([]model.Booking, error)
	NextBookingNumber(ctx context.Context) (int64, error)
	Statistics(ctx context.Context, since time.Time) (dto.BookingStatistics, error)
	DailyStatistics(ctx context.Context, since time.Time) ([]dto.DailyBookingStatistics, error)
	Transact(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// FindOverlapping returns the active bookings on a room whose stay collides
// with the half-open range [checkIn, checkOut). Checked-out, cancelled and
// no-show bookings never block the calendar.
func (repo *repositoryImpl) FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time) (bookings []model.Booking, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".FindOverlapping")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldRoomID, Table: model.TableName, Operator: gDto.FilterOperatorEq, Value: roomID},
			gDto.Filter{Field: model.FieldStatus, Table: model.TableName, Operator: gDto.FilterOperatorIn, Value: model.ActiveStatuses},
			gDto.Filter{Operator: gDto.FilterPlainQuery, Value: "bookings.check_in_date < :range_out AND bookings.check_out_date > :range_in"},
		},
	}

	where, args := repo.BuildWhereClause(ctx, filter)
	args["range_in"] = checkIn
	args["range_out"] = checkOut

	query := fmt.Sprintf("SELECT %s FROM %s %s", "bookings.*", model.TableName, where)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)

		return bookings, fmt.Errorf("failed to prepare statement (%s): %w", model.EntityName, err)
	}
	defer prepare.Close()

	if err = prepare.SelectContext(ctx, &bookings, args); err != nil {
		logger.ErrorWithStack(err)

		return bookings, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}

	return bookings, nil
}

// NextBookingNumber pulls the next value from the booking number sequence.
// The sequence guarantees uniqueness across concurrent instances.
func (repo *repositoryImpl) NextBookingNumber(ctx context.Context) (next int64, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".NextBookingNumber")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf("SELECT nextval('%s')", model.NumberSequence)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if err = repo.db.Write.GetContext(ctx, &next, query); err != nil {
		logger.ErrorWithStack(err)

		return 0, fmt.Errorf("failed to get next booking number: %w", err)
	}

	return next, nil
}

func (repo *repositoryImpl) Statistics(ctx context.Context, since time.Time) (stats dto.BookingStatistics, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Statistics")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := `
		SELECT
			COUNT(*) AS total_bookings,
			COUNT(*) FILTER (WHERE status = 'Pending') AS pending_bookings,
			COUNT(*) FILTER (WHERE status = 'Confirmed') AS confirmed_bookings,
			COUNT(*) FILTER (WHERE status = 'Checked In') AS checked_in_bookings,
			COUNT(*) FILTER (WHERE status = 'Checked Out') AS checked_out_bookings,
			COUNT(*) FILTER (WHERE status = 'Cancelled') AS cancelled_bookings,
			COUNT(*) FILTER (WHERE status = 'No Show') AS no_show_bookings,
			COALESCE(SUM(total_amount) FILTER (WHERE status NOT IN ('Cancelled', 'No Show')), 0) AS total_revenue,
			COALESCE(AVG(total_amount) FILTER (WHERE status NOT IN ('Cancelled', 'No Show')), 0) AS average_booking_value
		FROM bookings
		WHERE created_at >= $1`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if err = repo.db.Read.GetContext(ctx, &stats, query, since); err != nil {
		logger.ErrorWithStack(err)

		return stats, fmt.Errorf("failed to get booking statistics: %w", err)
	}

	return stats, nil
}

func (repo *repositoryImpl) DailyStatistics(ctx context.Context, since time.Time) (daily []dto.DailyBookingStatistics, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".DailyStatistics")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := `
		SELECT
			TO_CHAR(created_at::date, 'YYYY-MM-DD') AS day,
			COUNT(*) AS count,
			COALESCE(SUM(total_amount) FILTER (WHERE status NOT IN ('Cancelled', 'No Show')), 0) AS revenue
		FROM bookings
		WHERE created_at >= $1
		GROUP BY created_at::date
		ORDER BY created_at::date`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if err = repo.db.Read.SelectContext(ctx, &daily, query, since); err != nil {
		logger.ErrorWithStack(err)

		return daily, fmt.Errorf("failed to get daily booking statistics: %w", err)
	}

	return daily, nil
}

// Transact runs fn inside a single write transaction. A lifecycle transition
// updates the booking row and the room row together; either both land or
// neither does.
func (repo *repositoryImpl) Transact(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Transact")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()

			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			logger.ErrorWithStack(rollbackErr)
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=./mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"innkeeper/infras/otel"
	"innkeeper/infras/postgres"
	"innkeeper/internal/domains/billing/model"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/shared/logger"
	gRepo "innkeeper/shared/repository"
)

// Payment is intentionally append-only: the generic Update and Delete are
// not part of the interface.
type Payment interface {
	Insert(ctx context.Context, model model.Payment) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Payment, error)
	Totals(ctx context.Context, bookingID string) (model.LedgerTotals, error)
	TotalsByBookings(ctx context.Context, bookingIDs []string) (map[string]model.LedgerTotals, error)
	DeleteByBooking(ctx context.Context, bookingID string) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Payment]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Payment {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Payment](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// Totals sums the paid and refunded amounts for one booking.
func (repo *repositoryImpl) Totals(ctx context.Context, bookingID string) (totals model.LedgerTotals, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Totals")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := `
		SELECT
			booking_id,
			COALESCE(SUM(amount) FILTER (WHERE type = 'payment'), 0) AS paid,
			COALESCE(SUM(amount) FILTER (WHERE type = 'refund'), 0) AS refunded
		FROM payments
		WHERE booking_id = $1
		GROUP BY booking_id`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err = repo.db.Read.GetContext(ctx, &totals, query, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LedgerTotals{BookingID: bookingID}, nil
	}

	if err != nil {
		logger.ErrorWithStack(err)

		return totals, fmt.Errorf("failed to get ledger totals: %w", err)
	}

	return totals, nil
}

// TotalsByBookings sums the ledger per booking in one query for the billing
// table. Bookings with no entries are absent from the result map.
func (repo *repositoryImpl) TotalsByBookings(ctx context.Context, bookingIDs []string) (result map[string]model.LedgerTotals, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".TotalsByBookings")
	defer scope.End()
	defer scope.TraceIfError(err)

	result = map[string]model.LedgerTotals{}
	if len(bookingIDs) == 0 {
		return result, nil
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldBookingID, Operator: gDto.FilterOperatorIn, Value: bookingIDs},
		},
	}

	where, args := repo.BuildWhereClause(ctx, filter)

	query := fmt.Sprintf(`
		SELECT
			booking_id,
			COALESCE(SUM(amount) FILTER (WHERE type = 'payment'), 0) AS paid,
			COALESCE(SUM(amount) FILTER (WHERE type = 'refund'), 0) AS refunded
		FROM payments
		%s
		GROUP BY booking_id`, where)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)

		return result, fmt.Errorf("failed to prepare statement (%s): %w", model.EntityName, err)
	}
	defer prepare.Close()

	var totals []model.LedgerTotals

	if err = prepare.SelectContext(ctx, &totals, args); err != nil {
		logger.ErrorWithStack(err)

		return result, fmt.Errorf("failed to get ledger totals by bookings: %w", err)
	}

	for _, total := range totals {
		result[total.BookingID] = total
	}

	return result, nil
}

// DeleteByBooking removes the ledger for a hard-deleted booking. This is the
// one exception to the append-only rule; it keeps no orphaned entries behind.
func (repo *repositoryImpl) DeleteByBooking(ctx context.Context, bookingID string) error {
	return repo.Delete(ctx, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldBookingID, Operator: gDto.FilterOperatorEq, Value: bookingID},
		},
	})
}

package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"innkeeper/config"
	"innkeeper/infras/otel"
	"innkeeper/internal/domains/billing/invoice"
	"innkeeper/internal/domains/billing/model"
	"innkeeper/internal/domains/billing/model/dto"
	"innkeeper/internal/domains/billing/repository"
	bookingModel "innkeeper/internal/domains/booking/model"
	bookingRepository "innkeeper/internal/domains/booking/repository"
	settingsService "innkeeper/internal/domains/settings/service"
	"innkeeper/shared"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/shared/failure"
	"innkeeper/shared/timezone"
)

// Renderer turns an assembled invoice document into a downloadable PDF.
type Renderer interface {
	Render(ctx context.Context, doc invoice.Document) ([]byte, error)
}

type Billing interface {
	RecordPayment(ctx context.Context, actor, bookingID string, req dto.RecordPaymentRequest) (dto.PaymentResponse, error)
	RecordRefund(ctx context.Context, actor, bookingID string, req dto.RecordPaymentRequest) (dto.PaymentResponse, error)
	Rows(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBillingRowsResponse, error)
	Invoice(ctx context.Context, bookingID string) (invoice.Document, error)
	InvoicePDF(ctx context.Context, bookingID string) ([]byte, string, error)
	OverridePaymentStatus(ctx context.Context, actor, bookingID, status string) error
	Ledger(ctx context.Context, bookingID string) (dto.LedgerResponse, error)
}

type serviceImpl struct {
	paymentRepo repository.Payment
	bookingRepo bookingRepository.Booking
	settings    settingsService.Settings
	renderer    Renderer
	cfg         *config.Config
	otel        otel.Otel
}

func New(
	paymentRepo repository.Payment,
	bookingRepo bookingRepository.Booking,
	settings settingsService.Settings,
	renderer Renderer,
	cfg *config.Config,
	otel otel.Otel,
) Billing {
	return &serviceImpl{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		settings:    settings,
		renderer:    renderer,
		cfg:         cfg,
		otel:        otel,
	}
}

func (s *serviceImpl) RecordPayment(ctx context.Context, actor, bookingID string, req dto.RecordPaymentRequest) (res dto.PaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RecordPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.record(ctx, actor, bookingID, req, model.TypePayment)
}

// RecordRefund appends a refund entry. The refund cap is a configurable
// policy; when off, refunds may exceed the amount paid and the balance
// computation absorbs the difference.
func (s *serviceImpl) RecordRefund(ctx context.Context, actor, bookingID string, req dto.RecordPaymentRequest) (res dto.PaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RecordRefund")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.record(ctx, actor, bookingID, req, model.TypeRefund)
}

func (s *serviceImpl) record(ctx context.Context, actor, bookingID string, req dto.RecordPaymentRequest, entryType string) (res dto.PaymentResponse, err error) {
	if req.Amount <= 0 {
		return res, failure.BadRequestFromString("amount must be greater than zero")
	}

	if !model.IsValidMethod(req.Method) {
		return res, failure.BadRequestFromString("invalid payment method")
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return res, err
	}

	totals, err := s.paymentRepo.Totals(ctx, bookingID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get ledger totals")

		return res, fmt.Errorf("failed to get ledger totals: %w", err)
	}

	if entryType == model.TypeRefund && s.cfg.App.Billing.CapRefunds {
		if req.Amount > totals.Paid-totals.Refunded {
			return res, failure.BadRequestFromString("refund exceeds the amount paid")
		}
	}

	payment := req.ToModel(actor, bookingID, entryType)

	if err = s.paymentRepo.Insert(ctx, payment); err != nil {
		log.Error().Err(err).Msg("failed to record ledger entry")

		return res, fmt.Errorf("failed to record ledger entry: %w", err)
	}

	// Refresh the stored display cache from the ledger-derived value.
	switch entryType {
	case model.TypeRefund:
		totals.Refunded += req.Amount
	default:
		totals.Paid += req.Amount
	}

	s.refreshPaymentStatus(ctx, actor, booking, totals)

	res.FromModel(payment)

	return res, nil
}

// Rows builds the billing table: every booking with its charge, ledger sums,
// remaining balance and ledger-derived status.
func (s *serviceImpl) Rows(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBillingRowsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Rows")
	defer scope.End()
	defer scope.TraceIfError(err)

	total, err := s.bookingRepo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	bookings, err := s.bookingRepo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	bookingIDs := make([]string, len(bookings))
	for i, booking := range bookings {
		bookingIDs[i] = booking.ID
	}

	totalsByBooking, err := s.paymentRepo.TotalsByBookings(ctx, bookingIDs)
	if err != nil {
		log.Error().Err(err).Msg("failed to get ledger totals")

		return res, fmt.Errorf("failed to get ledger totals: %w", err)
	}

	res.TotalData = total
	res.TotalPage = shared.CalculateTotalPage(total, params.Limit)
	res.Rows = make([]dto.BillingRow, len(bookings))

	for i, booking := range bookings {
		charge := booking.Charge()
		totals := totalsByBooking[booking.ID]

		res.Rows[i] = dto.BillingRow{
			BookingID:     booking.ID,
			BookingNumber: booking.BookingNumber,
			GuestName:     booking.GuestName,
			RoomNumber:    booking.RoomNumber,
			CheckInDate:   booking.CheckInDate.Format(constant.DateOnlyFormat),
			CheckOutDate:  booking.CheckOutDate.Format(constant.DateOnlyFormat),
			BookingStatus: booking.Status,
			Charge:        charge,
			Paid:          totals.Paid,
			Refunded:      totals.Refunded,
			Remaining:     totals.Balance(charge),
			PaymentStatus: invoice.DeriveStatus(charge, totals.Paid, totals.Refunded),
		}
	}

	return res, nil
}

func (s *serviceImpl) Invoice(ctx context.Context, bookingID string) (doc invoice.Document, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Invoice")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return doc, err
	}

	totals, err := s.paymentRepo.Totals(ctx, bookingID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get ledger totals")

		return doc, fmt.Errorf("failed to get ledger totals: %w", err)
	}

	settings, err := s.settings.GetModel(ctx)
	if err != nil {
		return doc, err
	}

	return invoice.Assemble(booking, totals, settings), nil
}

// InvoicePDF renders the invoice document and returns the bytes with the
// download filename.
func (s *serviceImpl) InvoicePDF(ctx context.Context, bookingID string) (pdf []byte, filename string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".InvoicePDF")
	defer scope.End()
	defer scope.TraceIfError(err)

	doc, err := s.Invoice(ctx, bookingID)
	if err != nil {
		return nil, constant.Empty, err
	}

	pdf, err = s.renderer.Render(ctx, doc)
	if err != nil {
		log.Error().Err(err).Msg("failed to render invoice PDF")

		return nil, constant.Empty, fmt.Errorf("failed to render invoice PDF: %w", err)
	}

	return pdf, doc.InvoiceNumber + ".pdf", nil
}

// OverridePaymentStatus writes the stored display-cache field only. Billing
// rows and invoices keep deriving their status from the ledger.
func (s *serviceImpl) OverridePaymentStatus(ctx context.Context, actor, bookingID, status string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".OverridePaymentStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !bookingModel.IsValidPaymentStatus(status) {
		return failure.BadRequestFromString("invalid payment status")
	}

	if _, err = s.getBooking(ctx, bookingID); err != nil {
		return err
	}

	filter := shared.FilterByID(bookingID, bookingModel.FieldID, bookingModel.TableName)

	if err = s.bookingRepo.Update(ctx, map[string]any{
		bookingModel.FieldPaymentStatus: status,
		constant.FieldModifiedBy:        actor,
		constant.FieldModifiedAt:        timezone.Now(),
	}, filter); err != nil {
		log.Error().Err(err).Msg("failed to override payment status")

		return fmt.Errorf("failed to override payment status: %w", err)
	}

	return nil
}

func (s *serviceImpl) Ledger(ctx context.Context, bookingID string) (res dto.LedgerResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Ledger")
	defer scope.End()
	defer scope.TraceIfError(err)

	if _, err = s.getBooking(ctx, bookingID); err != nil {
		return res, err
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldBookingID, Operator: gDto.FilterOperatorEq, Value: bookingID},
		},
	}

	params := gDto.QueryParams{SortBy: constant.FieldCreatedAt, SortDir: gDto.SortDirAsc}

	entries, err := s.paymentRepo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get ledger entries")

		return res, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	res.FromModels(bookingID, entries)

	return res, nil
}

func (s *serviceImpl) getBooking(ctx context.Context, bookingID string) (booking bookingModel.Booking, err error) {
	booking, err = s.bookingRepo.Get(ctx, shared.FilterByID(bookingID, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found")
	}

	return booking, nil
}

func (s *serviceImpl) refreshPaymentStatus(ctx context.Context, actor string, booking bookingModel.Booking, totals model.LedgerTotals) {
	derived := invoice.DeriveStatus(booking.Charge(), totals.Paid, totals.Refunded)
	if derived == booking.PaymentStatus {
		return
	}

	filter := shared.FilterByID(booking.ID, bookingModel.FieldID, bookingModel.TableName)

	if err := s.bookingRepo.Update(ctx, map[string]any{
		bookingModel.FieldPaymentStatus: derived,
		constant.FieldModifiedBy:        actor,
		constant.FieldModifiedAt:        timezone.Now(),
	}, filter); err != nil {
		log.Error().Err(err).Str("booking", booking.ID).Msg("failed to refresh payment status")
	}
}

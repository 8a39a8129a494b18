package billing

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"innkeeper/infras/otel"
	"innkeeper/internal/domains/billing/model/dto"
	"innkeeper/internal/domains/billing/service"
	bookingModel "innkeeper/internal/domains/booking/model"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/shared/validator"
	"innkeeper/transport/http/response"
)

type Handler struct {
	service service.Billing
	otel    otel.Otel
}

func New(service service.Billing, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/billing", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetBillingRows)
		routerGroup.Get("/{bookingId}/invoice", handler.GetInvoice)
		routerGroup.Get("/{bookingId}/invoice.pdf", handler.DownloadInvoicePDF)
		routerGroup.Get("/{bookingId}/payments", handler.GetLedger)
		routerGroup.Post("/{bookingId}/payments", handler.RecordPayment)
		routerGroup.Post("/{bookingId}/refund", handler.RecordRefund)
		routerGroup.Patch("/{bookingId}/status", handler.OverridePaymentStatus)
	})
}

// GetBillingRows returns the billing table.
// @Summary Get billing rows
// @Description Every booking with its charge, ledger sums, remaining balance and derived status.
// @Tags Billing
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by booking status"
// @Success 200 {object} response.Data[dto.GetBillingRowsResponse] "Billing rows"
// @Failure 500 {object} response.Error
// @Router /v1/billing [get]
// @Security BearerAuth
func (handler *Handler) GetBillingRows(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBillingRows")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if status := r.URL.Query().Get(bookingModel.FieldStatus); status != constant.Empty {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    bookingModel.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
			Table:    bookingModel.TableName,
		})
	}

	rows, err := handler.service.Rows(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get billing rows")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Billing rows retrieved successfully")

	response.WithJSON(w, http.StatusOK, rows)
}

// GetInvoice returns the assembled invoice document as JSON.
// @Summary Get an invoice
// @Tags Billing
// @Accept json
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Success 200 {object} response.Data[invoice.Document] "Invoice document"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/billing/{bookingId}/invoice [get]
// @Security BearerAuth
func (handler *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetInvoice")
	defer scope.End()

	bookingID := chi.URLParam(r, constant.RequestParamBookingID)

	doc, err := handler.service.Invoice(ctx, bookingID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to assemble invoice")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Invoice assembled successfully")

	response.WithJSON(w, http.StatusOK, doc)
}

// DownloadInvoicePDF serves the invoice as a PDF attachment.
// @Summary Download an invoice PDF
// @Tags Billing
// @Accept json
// @Produce application/pdf
// @Param bookingId path string true "Booking ID"
// @Success 200 {file} binary "Invoice PDF"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/billing/{bookingId}/invoice.pdf [get]
// @Security BearerAuth
func (handler *Handler) DownloadInvoicePDF(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DownloadInvoicePDF")
	defer scope.End()

	bookingID := chi.URLParam(r, constant.RequestParamBookingID)

	pdf, filename, err := handler.service.InvoicePDF(ctx, bookingID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to render invoice PDF")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Invoice PDF rendered successfully")

	w.Header().Set(constant.RequestHeaderContentType, constant.ContentTypePDF)
	w.Header().Set(constant.RequestHeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(pdf); err != nil {
		log.Error().Err(err).Msg("failed to write invoice PDF response")
	}
}

// GetLedger lists the ordered ledger entries for a booking.
// @Summary Get a booking's ledger
// @Tags Billing
// @Accept json
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Success 200 {object} response.Data[dto.LedgerResponse] "Ledger entries"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/billing/{bookingId}/payments [get]
// @Security BearerAuth
func (handler *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetLedger")
	defer scope.End()

	bookingID := chi.URLParam(r, constant.RequestParamBookingID)

	ledger, err := handler.service.Ledger(ctx, bookingID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get ledger")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Ledger retrieved successfully")

	response.WithJSON(w, http.StatusOK, ledger)
}

// RecordPayment appends a payment entry to a booking's ledger.
// @Summary Record a payment
// @Tags Billing
// @Accept json
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Param request body dto.RecordPaymentRequest true "Record Payment Request"
// @Success 201 {object} response.Data[dto.PaymentResponse] "Payment recorded successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/billing/{bookingId}/payments [post]
// @Security BearerAuth
func (handler *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	handler.record(w, r, constant.OtelHandlerScopeName+".RecordPayment", handler.service.RecordPayment)
}

// RecordRefund appends a refund entry to a booking's ledger.
// @Summary Record a refund
// @Tags Billing
// @Accept json
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Param request body dto.RecordPaymentRequest true "Record Refund Request"
// @Success 201 {object} response.Data[dto.PaymentResponse] "Refund recorded successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/billing/{bookingId}/refund [post]
// @Security BearerAuth
func (handler *Handler) RecordRefund(w http.ResponseWriter, r *http.Request) {
	handler.record(w, r, constant.OtelHandlerScopeName+".RecordRefund", handler.service.RecordRefund)
}

type recordFunc func(ctx context.Context, actor, bookingID string, req dto.RecordPaymentRequest) (dto.PaymentResponse, error)

func (handler *Handler) record(w http.ResponseWriter, r *http.Request, scopeName string, fn recordFunc) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, scopeName)
	defer scope.End()

	bookingID := chi.URLParam(r, constant.RequestParamBookingID)

	req := dto.RecordPaymentRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)

	entry, err := fn(ctx, actor, bookingID, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to record ledger entry")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Ledger entry recorded successfully by user " + actor)

	response.WithJSON(w, http.StatusCreated, entry)
}

// OverridePaymentStatus sets the stored display payment status of a booking.
// @Summary Override a booking's payment status
// @Description Writes the display cache only; billing rows keep deriving status from the ledger.
// @Tags Billing
// @Accept json
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Param request body dto.OverridePaymentStatusRequest true "Override Payment Status Request"
// @Success 200 {object} response.Message "Payment status updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/billing/{bookingId}/status [patch]
// @Security BearerAuth
func (handler *Handler) OverridePaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".OverridePaymentStatus")
	defer scope.End()

	bookingID := chi.URLParam(r, constant.RequestParamBookingID)

	req := dto.OverridePaymentStatusRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if err := handler.service.OverridePaymentStatus(ctx, actor, bookingID, req.PaymentStatus); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to override payment status")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Payment status overridden successfully by user " + actor)

	response.WithMessage(w, http.StatusOK, "Payment status updated successfully")
}

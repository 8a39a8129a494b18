package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"

	"innkeeper/infras/otel"
	"innkeeper/internal/domains/billing/invoice"
	"innkeeper/shared/constant"
)

const (
	pageMargin    = 15
	lineHeight    = 7
	headingHeight = 10

	colDescription = 95
	colQuantity    = 25
	colUnitPrice   = 35
	colAmount      = 35
)

type Renderer struct {
	otel otel.Otel
}

func NewRenderer(ot otel.Otel) *Renderer {
	return &Renderer{otel: ot}
}

// Render lays the invoice document out on a single A4 page.
func (r *Renderer) Render(ctx context.Context, doc invoice.Document) (out []byte, err error) {
	_, scope := r.otel.NewScope(ctx, constant.OtelRendererScopeName, constant.OtelRendererScopeName+".Render")
	defer scope.End()
	defer scope.TraceIfError(err)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, headingHeight, doc.HotelName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, lineHeight, "Invoice "+doc.InvoiceNumber, "", 1, "C", false, 0, "")
	pdf.Ln(lineHeight)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, lineHeight, fmt.Sprintf("Booking: %s", doc.BookingNumber), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, fmt.Sprintf("Guest: %s (%s)", doc.GuestName, doc.GuestEmail), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, fmt.Sprintf("Room: %s (%s)", doc.RoomNumber, doc.RoomType), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, fmt.Sprintf("Stay: %s to %s (%d nights)", doc.CheckInDate, doc.CheckOutDate, doc.Nights), "", 1, "L", false, 0, "")
	pdf.Ln(lineHeight)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colDescription, lineHeight, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(colQuantity, lineHeight, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(colUnitPrice, lineHeight, "Unit Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(colAmount, lineHeight, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)

	for _, item := range doc.Items {
		pdf.CellFormat(colDescription, lineHeight, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colQuantity, lineHeight, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colUnitPrice, lineHeight, money(doc.Currency, item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colAmount, lineHeight, money(doc.Currency, item.Amount), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(lineHeight)

	r.totalLine(pdf, "Subtotal", money(doc.Currency, doc.Subtotal), false)
	r.totalLine(pdf, fmt.Sprintf("Tax (%.1f%%)", doc.TaxPercent), money(doc.Currency, doc.Tax), false)
	r.totalLine(pdf, "Grand Total", money(doc.Currency, doc.GrandTotal), true)
	r.totalLine(pdf, "Paid", money(doc.Currency, doc.Paid), false)

	if doc.Refunded > 0 {
		r.totalLine(pdf, "Refunded", money(doc.Currency, doc.Refunded), false)
	}

	r.totalLine(pdf, "Balance Due", money(doc.Currency, doc.Balance), true)

	pdf.Ln(lineHeight)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, lineHeight, "Payment Status: "+doc.PaymentStatus, "", 1, "L", false, 0, "")

	var buf bytes.Buffer

	if err = pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF output: %w", err)
	}

	return buf.Bytes(), nil
}

func (r *Renderer) totalLine(pdf *fpdf.Fpdf, label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}

	pdf.SetFont("Helvetica", style, 10)
	pdf.CellFormat(colDescription+colQuantity+colUnitPrice, lineHeight, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(colAmount, lineHeight, value, "", 1, "R", false, 0, "")
}

func money(currency string, amount float64) string {
	return fmt.Sprintf("%s %.2f", currency, amount)
}

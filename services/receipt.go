package services

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/LakshanUd/sl-go-tour-backend/models"
)

const receiptDateLayout = "2006-01-02"

// RenderReceipt draws a one page A4 receipt for b.
func RenderReceipt(b *models.Booking) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking "+b.BookingID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(190, 10, "Booking Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	header := []string{
		fmt.Sprintf("Booking ID: %s", b.BookingID),
		fmt.Sprintf("Created: %s", b.CreatedAt.UTC().Format("2006-01-02 15:04")),
		fmt.Sprintf("Status: %s / %s", b.Status, b.PaymentStatus),
	}
	if b.StartDate != nil && b.EndDate != nil {
		header = append(header, fmt.Sprintf("Travel: %s to %s",
			b.StartDate.UTC().Format(receiptDateLayout), b.EndDate.UTC().Format(receiptDateLayout)))
	}
	header = append(header, fmt.Sprintf("Guests: %d adults, %d children", b.Guests.Adults, b.Guests.Children))
	for _, line := range header {
		pdf.Cell(190, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	widths := []float64{80, 35, 20, 25, 30}
	for i, h := range []string{"Item", "Type", "Qty", "Unit", "Total"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, it := range b.Items {
		pdf.CellFormat(widths[0], 7, it.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, string(it.ServiceType), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", it.Qty), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%.2f", it.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.2f", it.LineTotal), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	totals := [][2]string{
		{"Subtotal", fmt.Sprintf("%.2f", b.ItemsSubtotal)},
		{"Discount", fmt.Sprintf("-%.2f", b.Discount)},
		{"Tax", fmt.Sprintf("%.2f", b.Tax)},
		{"Fees", fmt.Sprintf("%.2f", b.Fees)},
		{"Grand total", fmt.Sprintf("%.2f %s", b.GrandTotal, b.Currency)},
	}
	for i, t := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Arial", "B", 11)
		}
		pdf.CellFormat(160, 7, t[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, t[1], "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

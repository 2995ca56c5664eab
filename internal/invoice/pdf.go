package invoice

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/ariefcatur/go-shop-backend/internal/orders"
)

// Render PDF invoice untuk satu order. Line item yang produknya sudah
// dihapus ditampilkan sebagai "unknown product".
func Render(o orders.Order) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Invoice for Order %s", o.ID))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, "Status: "+string(o.Status))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date: "+o.CreatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(7)
	if o.ShippingAddress != "" {
		pdf.Cell(0, 7, "Ship to: "+o.ShippingAddress)
		pdf.Ln(7)
	}
	if o.Phone != "" {
		pdf.Cell(0, 7, "Phone: "+o.Phone)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(90, 8, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, it := range o.Items {
		name := it.ProductName
		if name == "" {
			name = "unknown product"
		}
		pdf.CellFormat(90, 8, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, it.Price.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, it.Subtotal().StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(145, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, o.TotalAmount.StringFixed(2), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

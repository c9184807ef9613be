package invoice

import (
	"io"

	"github.com/go-pdf/fpdf"
)

var columnWidths = []float64{80, 30, 35, 35}

// WritePDF lays doc out on an A4 page and writes the PDF to w.
func WritePDF(doc Document, w io.Writer) error {
	return layout(doc, true).Output(w)
}

func layout(doc Document, compress bool) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Title+" "+doc.InvoiceNumber, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(20, 20, tr(doc.MerchantName))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(20, 26, tr(doc.MerchantAddress))
	pdf.Text(20, 32, tr("Contact: "+doc.MerchantContact))

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(20, 50, tr(doc.Title))
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(20, 60, tr("Invoice Number: "+doc.InvoiceNumber))
	pdf.Text(20, 66, tr("Order Date: "+doc.OrderDate))

	pdf.SetXY(20, 80)
	pdf.SetFont("Helvetica", "B", 11)
	for i, column := range Columns {
		pdf.CellFormat(columnWidths[i], 8, tr(column), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, row := range doc.Rows {
		pdf.SetX(20)
		for i, cell := range row {
			pdf.CellFormat(columnWidths[i], 8, tr(cell), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	finalY := pdf.GetY() + 10
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(20, finalY, tr(doc.totalLine()))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(20, finalY+20, tr(doc.Footer))

	return pdf
}

// Package invoice renders completed orders as printable invoices.
package invoice

import (
	"strconv"
	"strings"
	"time"

	"github.com/heritageheaven/storefront-backend/pkg/enums"
	"github.com/heritageheaven/storefront-backend/pkg/money"
	"github.com/heritageheaven/storefront-backend/pkg/types"
)

const (
	// Filename is the download name of exported invoices.
	Filename = "invoice.pdf"

	dateLayout = "2006-01-02"
	title      = "Invoice"
	footer     = "Thank you for shopping with us!"
)

// Columns heads the item table.
var Columns = []string{"Product", "Quantity", "Unit Price", "Total Price"}

// Document is a rendered invoice. Every field is display-ready text.
type Document struct {
	MerchantName    string
	MerchantAddress string
	MerchantContact string
	Title           string
	InvoiceNumber   string
	OrderDate       string
	Rows            [][]string
	Total           string
	Footer          string
}

// Generate renders payload for merchant, formatting money in currency. It has no side
// effects; the same inputs always yield the same document.
func Generate(payload types.OrderPayload, merchant types.MerchantProfile, currency enums.Currency, generatedAt time.Time) Document {
	rows := make([][]string, 0, len(payload.OrderItems))
	for _, item := range payload.OrderItems {
		rows = append(rows, []string{
			item.ItemName,
			strconv.Itoa(item.Quantity),
			money.Format(currency, item.UnitPrice),
			money.Format(currency, item.LineTotal),
		})
	}
	return Document{
		MerchantName:    merchant.Name,
		MerchantAddress: merchant.Address,
		MerchantContact: merchant.Contact,
		Title:           title,
		InvoiceNumber:   payload.InvoiceNumber,
		OrderDate:       generatedAt.Format(dateLayout),
		Rows:            rows,
		Total:           money.Format(currency, payload.TotalPrice),
		Footer:          footer,
	}
}

// Header lines in print order.
func (d Document) headerLines() []string {
	return []string{
		d.MerchantName,
		d.MerchantAddress,
		"Contact: " + d.MerchantContact,
		d.Title,
		"Invoice Number: " + d.InvoiceNumber,
		"Order Date: " + d.OrderDate,
	}
}

func (d Document) totalLine() string {
	return "Total: " + d.Total
}

// Text renders the document as plain text, one line per printed line, with the item
// table as tab-separated columns.
func (d Document) Text() string {
	var b strings.Builder
	for _, line := range d.headerLines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(strings.Join(Columns, "\t"))
	b.WriteByte('\n')
	for _, row := range d.Rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	b.WriteString(d.totalLine())
	b.WriteByte('\n')
	b.WriteString(d.Footer)
	b.WriteByte('\n')
	return b.String()
}

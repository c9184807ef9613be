package invoice

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heritageheaven/storefront-backend/pkg/enums"
	"github.com/heritageheaven/storefront-backend/pkg/types"
)

func samplePayload() types.OrderPayload {
	return types.OrderPayload{
		InvoiceNumber: "INV123456",
		OrderID:       uuid.MustParse("7b0e1f5c-3f0e-4a55-9c59-7c9b1f1b2a10"),
		TotalPrice:    decimal.RequireFromString("23.5"),
		Currency:      enums.CurrencyUSD,
		OrderItems: []types.OrderItem{
			{ProductID: "p-rice", ItemName: "Rice 5kg", Quantity: 2, UnitPrice: decimal.RequireFromString("10"), LineTotal: decimal.RequireFromString("20")},
			{ProductID: "p-sugar", ItemName: "Sugar 1kg", Quantity: 1, UnitPrice: decimal.RequireFromString("3.5"), LineTotal: decimal.RequireFromString("3.5")},
		},
	}
}

func merchant() types.MerchantProfile {
	return types.MerchantProfile{Name: "Heritage Heaven", Address: "6A Moratuwa", Contact: "0778899556"}
}

var generatedAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func TestGenerateContainsTotalLine(t *testing.T) {
	doc := Generate(samplePayload(), merchant(), enums.CurrencyUSD, generatedAt)
	if !strings.Contains(doc.Text(), "Total: $23.50\n") {
		t.Fatalf("expected total line, got:\n%s", doc.Text())
	}
}

func TestGenerateLineOrder(t *testing.T) {
	doc := Generate(samplePayload(), merchant(), enums.CurrencyUSD, generatedAt)
	lines := strings.Split(strings.TrimSuffix(doc.Text(), "\n"), "\n")
	want := []string{
		"Heritage Heaven",
		"6A Moratuwa",
		"Contact: 0778899556",
		"Invoice",
		"Invoice Number: INV123456",
		"Order Date: 2025-03-01",
		"Product\tQuantity\tUnit Price\tTotal Price",
		"Rice 5kg\t2\t$10.00\t$20.00",
		"Sugar 1kg\t1\t$3.50\t$3.50",
		"Total: $23.50",
		"Thank you for shopping with us!",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(lines), doc.Text())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestGenerateUsesCallerCurrency(t *testing.T) {
	doc := Generate(samplePayload(), merchant(), enums.CurrencyLKR, generatedAt)
	if doc.Total != "Rs23.50" {
		t.Fatalf("expected LKR symbol, got %s", doc.Total)
	}
	if doc.Rows[0][2] != "Rs10.00" {
		t.Fatalf("expected LKR unit price, got %s", doc.Rows[0][2])
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	first := Generate(samplePayload(), merchant(), enums.CurrencyUSD, generatedAt)
	second := Generate(samplePayload(), merchant(), enums.CurrencyUSD, generatedAt)
	if first.Text() != second.Text() {
		t.Fatal("expected identical documents for identical inputs")
	}
}

func TestWritePDF(t *testing.T) {
	doc := Generate(samplePayload(), merchant(), enums.CurrencyEUR, generatedAt)
	var buf bytes.Buffer
	if err := WritePDF(doc, &buf); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %d bytes", buf.Len())
	}
}

func TestWritePDFPrintsTotalLineForEveryCurrency(t *testing.T) {
	// Expected bytes are the Windows-1252 encoding used by the core fonts.
	cases := map[enums.Currency]string{
		enums.CurrencyUSD: "(Total: $23.50) Tj",
		enums.CurrencyEUR: "(Total: \x8023.50) Tj",
		enums.CurrencyGBP: "(Total: \xa323.50) Tj",
		enums.CurrencyINR: "(Total: Rs.23.50) Tj",
		enums.CurrencyLKR: "(Total: Rs23.50) Tj",
	}
	for currency, want := range cases {
		t.Run(currency.String(), func(t *testing.T) {
			doc := Generate(samplePayload(), merchant(), currency, generatedAt)
			var buf bytes.Buffer
			if err := layout(doc, false).Output(&buf); err != nil {
				t.Fatalf("write pdf: %v", err)
			}
			if !bytes.Contains(buf.Bytes(), []byte(want)) {
				t.Fatalf("expected %q in page content", want)
			}
		})
	}
}

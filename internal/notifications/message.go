package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/heritageheaven/storefront-backend/pkg/enums"
	"github.com/heritageheaven/storefront-backend/pkg/money"
	"github.com/heritageheaven/storefront-backend/pkg/types"
)

const dateLayout = "2006-01-02"

// Subject of invoice e-mails.
func Subject(merchant types.MerchantProfile, payload types.OrderPayload) string {
	return fmt.Sprintf("Your %s invoice %s", merchant.Name, payload.InvoiceNumber)
}

// Body renders the plain-text invoice e-mail.
func Body(payload types.OrderPayload, merchant types.MerchantProfile, currency enums.Currency, generatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your purchase from %s!\n\n", merchant.Name)
	fmt.Fprintf(&b, "Invoice Number: %s\n", payload.InvoiceNumber)
	fmt.Fprintf(&b, "Order Date: %s\n", generatedAt.Format(dateLayout))
	fmt.Fprintf(&b, "Total Price: %s\n\n", money.Format(currency, payload.TotalPrice))
	b.WriteString("Order Details:\n")
	for _, item := range payload.OrderItems {
		fmt.Fprintf(&b, "- %s x %d : %s\n", item.ItemName, item.Quantity, money.Format(currency, item.LineTotal))
	}
	b.WriteString("\nWe appreciate your business!\n")
	return b.String()
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/heritageheaven/storefront-backend/pkg/enums"
)

// Order is the archived copy of a completed checkout.
type Order struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceNumber string          `gorm:"column:invoice_number;not null;uniqueIndex:ux_orders_invoice_number"`
	SessionID     string          `gorm:"column:session_id;not null;index"`
	Currency      enums.Currency  `gorm:"column:currency;type:text;not null;default:'USD'"`
	TotalPrice    decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	InvoiceSentAt *time.Time      `gorm:"column:invoice_sent_at"`
	Items         []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller left it blank.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

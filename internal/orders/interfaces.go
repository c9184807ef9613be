package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/heritageheaven/storefront-backend/pkg/db/models"
)

// Repository is the persistence surface of the order archive.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*models.Order, error)
	MarkInvoiceSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

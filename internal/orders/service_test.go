package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/heritageheaven/storefront-backend/pkg/db"
	"github.com/heritageheaven/storefront-backend/pkg/db/models"
	"github.com/heritageheaven/storefront-backend/pkg/enums"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
	"github.com/heritageheaven/storefront-backend/pkg/migrate"
	"github.com/heritageheaven/storefront-backend/pkg/outbox"
	"github.com/heritageheaven/storefront-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	runner, err := migrate.Embedded(sqlDB, "sqlite", nil)
	require.NoError(t, err)
	require.NoError(t, runner.Up(context.Background()))
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) *Service {
	t.Helper()
	publisher := outbox.NewService(outbox.NewRepository(conn), logger.Nop())
	svc, err := NewService(NewRepository(conn), dbpkg.NewFromConn(conn), publisher)
	require.NoError(t, err)
	return svc
}

func samplePayload() types.OrderPayload {
	return types.OrderPayload{
		InvoiceNumber: "INV100001",
		OrderID:       uuid.New(),
		TotalPrice:    decimal.RequireFromString("23.50"),
		Currency:      enums.CurrencyUSD,
		CreatedAt:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		OrderItems: []types.OrderItem{
			{ProductID: "p-rice", ItemName: "Rice 5kg", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), LineTotal: decimal.RequireFromString("20.00")},
			{ProductID: "p-sugar", ItemName: "Sugar 1kg", Quantity: 1, UnitPrice: decimal.RequireFromString("3.50"), LineTotal: decimal.RequireFromString("3.50")},
		},
	}
}

func TestRecordArchivesOrderAndQueuesEvent(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newTestService(t, conn)
	payload := samplePayload()

	afterWriteCalled := false
	err := svc.Record(context.Background(), "sess-1", payload, func(context.Context) error {
		afterWriteCalled = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, afterWriteCalled)

	found, err := svc.FindPayload(context.Background(), "sess-1", "INV100001")
	require.NoError(t, err)
	assert.Equal(t, payload.OrderID, found.OrderID)
	assert.True(t, found.TotalPrice.Equal(payload.TotalPrice))
	require.Len(t, found.OrderItems, 2)
	assert.Equal(t, "Rice 5kg", found.OrderItems[0].ItemName)
	assert.Equal(t, "Sugar 1kg", found.OrderItems[1].ItemName)

	var events []models.OutboxEvent
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderCompleted, events[0].EventType)
	assert.Equal(t, payload.OrderID, events[0].AggregateID)
}

func TestRecordRollsBackWhenAfterWriteFails(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newTestService(t, conn)

	boom := errors.New("clear failed")
	err := svc.Record(context.Background(), "sess-1", samplePayload(), func(context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	var orderCount, eventCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&eventCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, eventCount)
}

func TestRecordDuplicateInvoiceNumberConflicts(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newTestService(t, conn)

	require.NoError(t, svc.Record(context.Background(), "sess-1", samplePayload(), nil))
	err := svc.Record(context.Background(), "sess-2", samplePayload(), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestMarkInvoiceSentQueuesEventOnce(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newTestService(t, conn)
	payload := samplePayload()
	require.NoError(t, svc.Record(context.Background(), "sess-1", payload, nil))

	first := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	require.NoError(t, svc.MarkInvoiceSent(context.Background(), payload))
	svc.now = func() time.Time { return first.Add(time.Hour) }
	require.NoError(t, svc.MarkInvoiceSent(context.Background(), payload))

	var order models.Order
	require.NoError(t, conn.Where("id = ?", payload.OrderID).First(&order).Error)
	require.NotNil(t, order.InvoiceSentAt)
	assert.True(t, order.InvoiceSentAt.Equal(first))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventInvoiceSent).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFindPayloadErrors(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.FindPayload(context.Background(), "sess-1", " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.FindPayload(context.Background(), "sess-1", "INV999999")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

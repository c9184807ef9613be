package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/heritageheaven/storefront-backend/pkg/db/models"
	"github.com/heritageheaven/storefront-backend/pkg/enums"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

func openOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}, &models.OutboxDLQ{}))
	return conn
}

func TestEmitWritesEnvelope(t *testing.T) {
	conn := openOutboxDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, logger.Nop())
	aggregateID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   aggregateID,
			Actor:         &ActorRef{SessionID: "sess-1"},
			Data:          map[string]string{"invoice_number": "INV100001"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, aggregateID, rows[0].AggregateID)
	assert.NotEqual(t, uuid.Nil, rows[0].ID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.Equal(t, rows[0].ID.String(), envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, "sess-1", envelope.Actor.SessionID)
	assert.JSONEq(t, `{"invoice_number":"INV100001"}`, string(envelope.Data))
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := openOutboxDB(t)
	svc := NewService(NewRepository(conn), nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          struct{}{},
		}); err != nil {
			return err
		}
		return errors.New("archive failed")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitRequiresTransactionAndKnownType(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderCompleted})
	assert.Error(t, err)

	conn := openOutboxDB(t)
	err = svc.Emit(context.Background(), conn, DomainEvent{EventType: enums.OutboxEventType("bogus")})
	assert.Error(t, err)

	err = svc.Emit(context.Background(), conn, DomainEvent{EventType: enums.EventOrderCompleted, AggregateType: enums.AggregateOrder})
	assert.ErrorContains(t, err, "aggregate id")
}

func TestDecodeEnvelope(t *testing.T) {
	good := `{"version":1,"eventId":"e1","occurredAt":"2025-06-01T00:00:00Z","data":{"a":1}}`
	env, err := DecodeEnvelope([]byte(good))
	require.NoError(t, err)
	assert.Equal(t, "e1", env.EventID)

	for _, raw := range []string{
		`not json`,
		`{"version":2,"eventId":"e1","data":{}}`,
		`{"version":0,"eventId":"e1","data":{}}`,
		`{"version":1,"eventId":"e1","data":null}`,
		`{"version":1,"eventId":"e1"}`,
	} {
		_, err := DecodeEnvelope([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	conn := openOutboxDB(t)
	svc := NewService(NewRepository(conn), nil)
	event := DomainEvent{
		EventType:     enums.EventInvoiceSent,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]string{},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.EmitIfNotExists(context.Background(), conn, event))
	}

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := openOutboxDB(t)
	repo := NewRepository(conn)
	first := models.OutboxEvent{EventType: enums.EventOrderCompleted, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventInvoiceSent, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Insert(conn, first))
	require.NoError(t, repo.Insert(conn, second))

	pending, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, repo.MarkPublishedTx(conn, pending[0].ID))
	require.NoError(t, repo.MarkFailedTx(conn, pending[1].ID, errors.New("transient")))

	pending, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "transient", *pending[0].LastError)

	require.NoError(t, repo.MarkTerminalTx(conn, pending[0].ID, errors.New("gave up"), 3))
	pending, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDLQRepositoryTruncatesMessage(t *testing.T) {
	conn := openOutboxDB(t)
	dlq := NewDLQRepository(conn)
	eventID := uuid.New()
	long := strings.Repeat("x", maxLastErrorLen+50)

	require.NoError(t, dlq.InsertTx(conn, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventOrderCompleted,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &long,
	}))

	found, err := dlq.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.ErrorMessage)
	assert.Len(t, *found.ErrorMessage, maxLastErrorLen)

	missing, err := dlq.FindByEventID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/internal/testdb"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

func TestServiceEmitWritesEnvelope(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(NewRepository(db), logger.Nop())
	aggregate := uuid.New()
	actor := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   aggregate,
			Actor:         &ActorRef{UserID: actor, Role: "customer"},
			Data:          map[string]string{"order_number": "ORD-1"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, aggregate, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, actor, envelope.Actor.UserID)
	assert.JSONEq(t, `{"order_number":"ORD-1"}`, string(envelope.Data))
}

func TestServiceEmitRequiresTransactionAndKnownType(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(NewRepository(db), nil)

	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder})
	require.Error(t, err)

	err = svc.Emit(context.Background(), db, DomainEvent{EventType: "unknown", AggregateType: enums.AggregateOrder})
	require.Error(t, err)
	assert.ErrorIs(t, svc.Emit(context.Background(), nil, DomainEvent{}), ErrTxRequired)

	err = svc.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.EventDiscountRedeemed,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	})
	require.ErrorContains(t, err, "belongs to discount")

	err = svc.Emit(context.Background(), db, DomainEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder})
	require.ErrorContains(t, err, "aggregate id")
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"version":1,"event_id":"e1","data":{"a":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "e1", env.EventID)

	_, err = DecodeEnvelope([]byte(`{"version":1,"data":null}`))
	assert.ErrorIs(t, err, ErrEmptyEnvelopeData)

	_, err = DecodeEnvelope([]byte(`{`))
	assert.Error(t, err)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		row := models.OutboxEvent{
			ID:            uuid.New(),
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
		}
		ids[i] = row.ID
		require.NoError(t, repo.Insert(ctx, db, row))
	}

	require.NoError(t, repo.MarkPublishedTx(db, ids[0]))
	require.NoError(t, repo.MarkFailedTx(db, ids[1], errors.New("transient")))
	require.NoError(t, repo.MarkTerminalTx(db, ids[2], errors.New("bad payload"), 3))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ids[1], rows[0].ID)
	assert.Equal(t, 1, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)
	assert.Equal(t, "transient", *rows[0].LastError)
}

func TestRepositoryDeletePublishedBefore(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	seed := func(createdAt time.Time, publishedAt *time.Time, attempts int) uuid.UUID {
		row := models.OutboxEvent{
			ID:            uuid.New(),
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			CreatedAt:     createdAt,
			PublishedAt:   publishedAt,
			AttemptCount:  attempts,
		}
		require.NoError(t, repo.Insert(ctx, db, row))
		return row.ID
	}
	seed(old, &old, 0)
	seed(old, nil, 10)
	keepRecent := seed(recent, &recent, 0)
	keepPending := seed(old, nil, 2)

	deleted, err := repo.DeletePublishedBefore(ctx, db, now.Add(-30*24*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Order("created_at ASC").Find(&remaining).Error)
	ids := []uuid.UUID{}
	for _, row := range remaining {
		ids = append(ids, row.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{keepRecent, keepPending}, ids)

	_, err = repo.DeletePublishedBefore(ctx, nil, now, 1)
	assert.Error(t, err)
}

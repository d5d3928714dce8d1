package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/grocery-backend/pkg/config"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	"github.com/angelmondragon/grocery-backend/pkg/outbox"
	"github.com/angelmondragon/grocery-backend/pkg/outbox/payloads"
)

func envelopeRow(t *testing.T, eventType enums.OutboxEventType, data any) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{})
	require.Error(t, err)
}

func TestResolveOrderCreated(t *testing.T) {
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, reg.Topics())

	orderID := uuid.New()
	row := envelopeRow(t, enums.EventOrderCreated, payloads.OrderCreatedEvent{OrderID: orderID, OrderNumber: "ORD-1"})

	resolved, err := reg.Resolve(row)
	require.NoError(t, err)
	assert.Equal(t, "orders", resolved.Descriptor.Topic)
	event, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, orderID, event.OrderID)
}

func TestResolveRejectsBadRows(t *testing.T) {
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"})
	require.NoError(t, err)

	unknown := envelopeRow(t, enums.OutboxEventType("mystery"), map[string]string{})
	_, err = reg.Resolve(unknown)
	var nonRetry NonRetryableError
	assert.True(t, errors.As(err, &nonRetry))

	empty := envelopeRow(t, enums.EventOrderCreated, nil)
	_, err = reg.Resolve(empty)
	assert.True(t, errors.As(err, &nonRetry))
	assert.ErrorIs(t, err, outbox.ErrEmptyEnvelopeData)

	garbled := envelopeRow(t, enums.EventOrderCreated, payloads.OrderCreatedEvent{})
	garbled.Payload = json.RawMessage(`{"data":`)
	_, err = reg.Resolve(garbled)
	assert.True(t, errors.As(err, &nonRetry))

	mismatched := envelopeRow(t, enums.EventDiscountRedeemed, payloads.DiscountRedeemedEvent{})
	_, err = reg.Resolve(mismatched)
	assert.True(t, errors.As(err, &nonRetry))
	assert.Contains(t, err.Error(), "aggregate mismatch")
}

func TestDiscountEventsRouteToDiscountsTopic(t *testing.T) {
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders", DiscountsTopic: "discounts"})
	require.NoError(t, err)
	assert.Equal(t, []string{"discounts", "orders"}, reg.Topics())

	discountID := uuid.New()
	row := envelopeRow(t, enums.EventDiscountRedeemed, payloads.DiscountRedeemedEvent{
		DiscountID: discountID,
		Kind:       enums.DiscountKindCoupon,
		Code:       "SAVE10",
		Amount:     decimal.NewFromInt(25),
	})
	row.AggregateType = enums.AggregateDiscount

	resolved, err := reg.Resolve(row)
	require.NoError(t, err)
	assert.Equal(t, "discounts", resolved.Descriptor.Topic)
	event, ok := resolved.Payload.(*payloads.DiscountRedeemedEvent)
	require.True(t, ok)
	assert.Equal(t, discountID, event.DiscountID)
	assert.True(t, decimal.NewFromInt(25).Equal(event.Amount))

	fallback, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, fallback.Topics())
}

func TestResolveOrderAssigned(t *testing.T) {
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders", DiscountsTopic: "discounts"})
	require.NoError(t, err)

	partnerID := uuid.New()
	row := envelopeRow(t, enums.EventOrderAssigned, payloads.OrderAssignedEvent{
		OrderID:           uuid.New(),
		OrderNumber:       "ORD-7",
		DeliveryPartnerID: partnerID,
	})

	resolved, err := reg.Resolve(row)
	require.NoError(t, err)
	assert.Equal(t, "orders", resolved.Descriptor.Topic)
	event, ok := resolved.Payload.(*payloads.OrderAssignedEvent)
	require.True(t, ok)
	assert.Equal(t, partnerID, event.DeliveryPartnerID)
	assert.Nil(t, event.PreviousDeliveryPartnerID)
}

package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/literaryhaven-backend/pkg/config"
	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
	"github.com/angelmondragon/literaryhaven-backend/pkg/enums"
	"github.com/angelmondragon/literaryhaven-backend/pkg/outbox"
	"github.com/angelmondragon/literaryhaven-backend/pkg/outbox/payloads"
)

func TestResolveOrderCreated(t *testing.T) {
	reg := newTestRegistry(t)
	orderID := uuid.New()

	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload: envelope(t, payloads.OrderCreatedEvent{
			OrderID:     orderID,
			OrderNumber: "LH-20261018-000001",
			ItemCount:   2,
			TotalAmount: decimal.RequireFromString("29.98"),
		}),
	})
	require.NoError(t, err)
	require.Equal(t, "orders-topic", resolved.Descriptor.Topic)
	require.NotEmpty(t, resolved.Envelope.EventID)

	payload, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	require.True(t, ok, "payload type %T", resolved.Payload)
	require.Equal(t, orderID, payload.OrderID)
	require.Equal(t, 2, payload.ItemCount)
	require.True(t, payload.TotalAmount.Equal(decimal.RequireFromString("29.98")))
}

func TestResolveStatusChanged(t *testing.T) {
	resolved, err := newTestRegistry(t).Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload: envelope(t, payloads.OrderStatusChangedEvent{
			OrderNumber: "LH-1",
			From:        enums.OrderStatusPending,
			To:          enums.OrderStatusCancelled,
		}),
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, resolved.Payload.(*payloads.OrderStatusChangedEvent).To)
}

func TestResolveRejectsMalformedRows(t *testing.T) {
	reg := newTestRegistry(t)
	good := func() models.OutboxEvent {
		return models.OutboxEvent{
			EventType:     enums.EventOrderVoided,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       envelope(t, payloads.OrderVoidedEvent{OrderNumber: "LH-1", Reason: "items_failed"}),
		}
	}

	cases := map[string]func(*models.OutboxEvent){
		"unsupported event type": func(e *models.OutboxEvent) { e.EventType = "book_reviewed" },
		"aggregate mismatch":     func(e *models.OutboxEvent) { e.AggregateType = "product" },
		"missing aggregate_id":   func(e *models.OutboxEvent) { e.AggregateID = uuid.Nil },
		"envelope data is empty": func(e *models.OutboxEvent) { e.Payload = envelope(t, nil) },
		"decode order_voided":    func(e *models.OutboxEvent) { e.Payload = envelope(t, []string{"not", "an", "object"}) },
	}
	for want, mutate := range cases {
		t.Run(want, func(t *testing.T) {
			event := good()
			mutate(&event)
			_, err := reg.Resolve(event)
			require.ErrorContains(t, err, want)

			var nonRetry NonRetryableError
			require.True(t, errors.As(err, &nonRetry))
		})
	}
}

func TestNewEventRegistry(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "  "})
	require.EqualError(t, err, "orders topic is required")

	require.Equal(t, []string{"orders-topic"}, newTestRegistry(t).Topics())
}

func TestNonRetryableErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := NewNonRetryableError(cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "non-retryable error", NonRetryableError{}.Error())
}

func newTestRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders-topic"})
	require.NoError(t, err)
	return reg
}

func envelope(t *testing.T, data any) json.RawMessage {
	t.Helper()
	body, err := json.Marshal(data)
	require.NoError(t, err)
	raw, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    outbox.EnvelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       body,
	})
	require.NoError(t, err)
	return raw
}

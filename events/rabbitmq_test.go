package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"food-delivery-backend/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	sent       []published
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	if f.declareErr != nil {
		return f.declareErr
	}
	f.declared = append(f.declared, name+":"+kind)
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.sent = append(f.sent, published{exchange, key, msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newRabbitPublisher(ch, "order_events")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_events:topic"}, ch.declared)

	courier := uint(7)
	ev := OrderEvent{
		Type:       TypeCourierAssigned,
		OrderID:    42,
		CourierID:  &courier,
		FromStatus: models.StatusReadyForPickup,
		ToStatus:   models.StatusAssigned,
		ActorRole:  models.RoleAdmin,
		OccurredAt: time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, "order_events", got.exchange)
	assert.Equal(t, "order.courier_assigned.ASSIGNED", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, TypeCourierAssigned, got.msg.Type)

	var decoded OrderEvent
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, uint(42), decoded.OrderID)
	require.NotNil(t, decoded.CourierID)
	assert.Equal(t, uint(7), *decoded.CourierID)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestRabbitPublisher_Errors(t *testing.T) {
	_, err := newRabbitPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "x")
	assert.Error(t, err)

	ch := &fakeChannel{publishErr: amqp.ErrClosed}
	p, err := newRabbitPublisher(ch, "x")
	require.NoError(t, err)
	assert.ErrorIs(t, p.Publish(context.Background(), OrderEvent{Type: TypeOrderPlaced}), amqp.ErrClosed)
}

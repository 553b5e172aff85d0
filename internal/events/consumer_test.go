package events

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/observability"
)

type fakeAcknowledger struct {
	acked  []uint64
	nacked []uint64
	requeu []bool
}

func (f *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	f.nacked = append(f.nacked, tag)
	f.requeu = append(f.requeu, requeue)
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func newTestConsumer(t *testing.T, eventType string, handler HandlerFunc) *Consumer {
	t.Helper()
	route, ok := RouteFor(eventType)
	require.True(t, ok)
	return &Consumer{
		exchange: "usuarios_exchange",
		route:    route,
		handler:  handler,
		logger:   zap.NewNop(),
		metrics:  observability.NewMetrics(),
	}
}

func delivery(ack amqp.Acknowledger, tag uint64, eventType, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Type: eventType, Body: []byte(body)}
}

func TestDeliverAcksForeignTypeWithoutHandling(t *testing.T) {
	called := false
	c := newTestConsumer(t, TypeProfileUpdated, func(context.Context, Message) Result {
		called = true
		return Reject
	})
	ack := &fakeAcknowledger{}

	result := c.deliver(context.Background(), delivery(ack, 7, TypeUserCreated, `{"id":"u1"}`))

	assert.Equal(t, Ack, result)
	assert.False(t, called)
	assert.Equal(t, []uint64{7}, ack.acked)
	assert.Empty(t, ack.nacked)
}

func TestDeliverMatchesTypeCaseInsensitively(t *testing.T) {
	var got ProfileUpdated
	c := newTestConsumer(t, TypeProfileUpdated, Handle(zap.NewNop(), func(_ context.Context, ev ProfileUpdated) error {
		got = ev
		return nil
	}))
	ack := &fakeAcknowledger{}

	result := c.deliver(context.Background(), delivery(ack, 1, "profileupdated", `{"id":"u1","name":"Ana"}`))

	assert.Equal(t, Ack, result)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, []uint64{1}, ack.acked)
}

func TestDeliverRejectsUndecodablePayload(t *testing.T) {
	c := newTestConsumer(t, TypeRoleAssigned, Handle(zap.NewNop(), func(context.Context, RoleAssigned) error {
		t.Fatal("projection must not run")
		return nil
	}))
	ack := &fakeAcknowledger{}

	result := c.deliver(context.Background(), delivery(ack, 3, TypeRoleAssigned, `{not json`))

	assert.Equal(t, Reject, result)
	assert.Equal(t, []uint64{3}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeu)
}

func TestDeliverRejectsFailedProjectionWithoutRequeue(t *testing.T) {
	c := newTestConsumer(t, TypeUserConfirmed, Handle(zap.NewNop(), func(context.Context, UserConfirmed) error {
		return errors.New("no document matched")
	}))
	ack := &fakeAcknowledger{}

	result := c.deliver(context.Background(), delivery(ack, 9, TypeUserConfirmed, `{"id":"missing","verified":true}`))

	assert.Equal(t, Reject, result)
	assert.Equal(t, []uint64{9}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeu)
	assert.Empty(t, ack.acked)
}

func TestDeliverFinishesMessageAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var handlerErr error
	c := newTestConsumer(t, TypePasswordChanged, Handle(zap.NewNop(), func(ctx context.Context, _ PasswordChanged) error {
		handlerErr = ctx.Err()
		return nil
	}))
	ack := &fakeAcknowledger{}

	result := c.deliver(ctx, delivery(ack, 2, TypePasswordChanged, `{"id":"u1","passwordHash":"h"}`))

	assert.Equal(t, Ack, result)
	assert.NoError(t, handlerErr)
}

func TestRoutesCoverEveryEvent(t *testing.T) {
	events := []Event{UserCreated{}, ProfileUpdated{}, PasswordChanged{}, RoleAssigned{}, UserConfirmed{}, ActivityRegistered{}}
	queues := map[string]bool{}
	for _, ev := range events {
		r, ok := RouteFor(ev.EventType())
		require.True(t, ok, ev.EventType())
		queues[r.Queue] = true
	}
	assert.Len(t, queues, len(events))
	assert.Len(t, Routes(), len(events))
}

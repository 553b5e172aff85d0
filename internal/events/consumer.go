package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/observability"
)

// Result is the verdict of a handler on one message.
type Result int

const (
	// Ack removes the message from the queue.
	Ack Result = iota
	// Reject drops the message without requeue.
	Reject
)

func (r Result) String() string {
	if r == Ack {
		return "ack"
	}
	return "reject"
}

// Message is a transport-neutral delivery.
type Message struct {
	Type      string
	Body      []byte
	MessageID string
	Timestamp time.Time
}

// HandlerFunc processes one message whose type tag already matched.
type HandlerFunc func(ctx context.Context, msg Message) Result

// ErrDecode marks a payload that could not be deserialized.
var ErrDecode = errors.New("event payload cannot be decoded")

// Decode unmarshals the message body into an event.
func Decode[T Event](msg Message) (T, error) {
	var ev T
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		return ev, fmt.Errorf("%w: %s: %v", ErrDecode, msg.Type, err)
	}
	return ev, nil
}

// Handle adapts a typed projection into a HandlerFunc. Decode and projection
// failures both reject the message.
func Handle[T Event](logger *zap.Logger, project func(context.Context, T) error) HandlerFunc {
	return func(ctx context.Context, msg Message) Result {
		ev, err := Decode[T](msg)
		if err != nil {
			logger.Error("discarding undecodable event", zap.String("event", msg.Type), zap.Error(err))
			return Reject
		}
		if err := project(ctx, ev); err != nil {
			logger.Error("projection failed", zap.String("event", msg.Type), zap.String("message_id", msg.MessageID), zap.Error(err))
			return Reject
		}
		return Ack
	}
}

// dispatch applies the type filter and runs the handler. Messages of other
// types are acked so fanout traffic never blocks a queue.
func dispatch(ctx context.Context, route Route, msg Message, handler HandlerFunc, metrics *observability.Metrics) Result {
	if !MatchesType(route.Type, msg.Type) {
		metrics.RecordConsume(route.Queue, msg.Type, observability.OutcomeSkipped)
		return Ack
	}
	result := handler(ctx, msg)
	outcome := observability.OutcomeAcked
	if result == Reject {
		outcome = observability.OutcomeRejected
	}
	metrics.RecordConsume(route.Queue, route.Type, outcome)
	return result
}

// Consumer owns one durable queue bound to the shared fanout exchange.
type Consumer struct {
	conn     *amqp.Connection
	exchange string
	route    Route
	handler  HandlerFunc
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewConsumer wires a consumer for route. The connection stays owned by the caller.
func NewConsumer(conn *amqp.Connection, exchange string, route Route, handler HandlerFunc, logger *zap.Logger, metrics *observability.Metrics) *Consumer {
	return &Consumer{
		conn:     conn,
		exchange: exchange,
		route:    route,
		handler:  handler,
		logger:   logger.With(zap.String("queue", route.Queue)),
		metrics:  metrics,
	}
}

// Name identifies the consumer for supervision logs.
func (c *Consumer) Name() string {
	return c.route.Queue
}

// Run consumes until ctx is cancelled or the channel fails. A message being
// handled when ctx is cancelled is finished and settled first.
func (c *Consumer) Run(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(c.exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(c.route.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(c.route.Queue, "", c.exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(c.route.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.logger.Info("consumer started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopped")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) Result {
	msg := Message{
		Type:      d.Type,
		Body:      d.Body,
		MessageID: d.MessageId,
		Timestamp: d.Timestamp,
	}
	// settle the in-flight message even if shutdown started
	result := dispatch(context.WithoutCancel(ctx), c.route, msg, c.handler, c.metrics)

	var err error
	if result == Ack {
		err = d.Ack(false)
	} else {
		err = d.Nack(false, false)
	}
	if err != nil {
		c.logger.Warn("settling delivery failed", zap.Uint64("delivery_tag", d.DeliveryTag), zap.String("result", result.String()), zap.Error(err))
	}
	return result
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/observability"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// Publisher puts domain events on the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// publishChannel is the subset of a broker channel the publisher needs.
type publishChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

// confirmation is a pending broker ack for one publish.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// amqpChannel adapts *amqp.Channel in confirm mode.
type amqpChannel struct {
	*amqp.Channel
}

func (c amqpChannel) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil || dc == nil {
		return nil, err
	}
	return dc, nil
}

// RabbitPublisher publishes to a durable fanout exchange over one channel.
type RabbitPublisher struct {
	mu       sync.Mutex
	open     func() (publishChannel, error)
	ch       publishChannel
	exchange string
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewRabbitPublisher opens a confirm-mode channel on conn.
func NewRabbitPublisher(conn *amqp.Connection, exchange string, logger *zap.Logger, metrics *observability.Metrics) *RabbitPublisher {
	open := func() (publishChannel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		if err := ch.Confirm(false); err != nil {
			_ = ch.Close()
			return nil, err
		}
		return amqpChannel{ch}, nil
	}
	return newRabbitPublisher(open, exchange, logger, metrics)
}

func newRabbitPublisher(open func() (publishChannel, error), exchange string, logger *zap.Logger, metrics *observability.Metrics) *RabbitPublisher {
	return &RabbitPublisher{
		open:     open,
		exchange: exchange,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Publish serializes event and sends it with its type tag. The routing key is
// informational under fanout. There is no retry; the caller decides what a
// failure means.
func (p *RabbitPublisher) Publish(ctx context.Context, event Event) error {
	eventType := event.EventType()
	err := p.publish(ctx, event)
	if err != nil {
		p.metrics.RecordPublish(eventType, observability.OutcomeFailed)
		return err
	}
	p.metrics.RecordPublish(eventType, observability.OutcomeOK)
	return nil
}

func (p *RabbitPublisher) publish(ctx context.Context, event Event) error {
	eventType := event.EventType()
	body, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewMessagingError("serialize "+eventType, err)
	}

	routingKey := ""
	if r, ok := RouteFor(eventType); ok {
		routingKey = r.RoutingKey
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		ch, err := p.open()
		if err != nil {
			return apperrors.NewMessagingError("open publish channel", err)
		}
		p.ch = ch
	}

	if err := p.ch.ExchangeDeclare(p.exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		p.reset()
		return apperrors.NewMessagingError("declare exchange "+p.exchange, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         eventType,
		MessageId:    uuid.NewString(),
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	confirm, err := p.ch.Publish(ctx, p.exchange, routingKey, msg)
	if err != nil {
		p.reset()
		return apperrors.NewMessagingError("publish "+eventType, err)
	}
	if confirm != nil {
		acked, err := confirm.WaitContext(ctx)
		if err != nil {
			p.reset()
			return apperrors.NewMessagingError("await confirm "+eventType, err)
		}
		if !acked {
			return apperrors.NewMessagingError("publish "+eventType, errors.New("broker nacked message"))
		}
	}
	return nil
}

// reset drops a channel that failed so the next publish reopens it.
func (p *RabbitPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
}

// Close releases the channel. The connection is owned elsewhere.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}

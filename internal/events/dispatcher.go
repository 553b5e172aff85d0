package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/observability"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// Bus is an in-process fanout bus. Every subscribed queue sees every event and
// filters by type tag, the same way broker consumers do. Delivery is
// synchronous. It backs development runs without a broker and tests.
type Bus struct {
	mu          sync.RWMutex
	subscribers []subscription
	logger      *zap.Logger
	metrics     *observability.Metrics
}

type subscription struct {
	route   Route
	handler HandlerFunc
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger, metrics *observability.Metrics) *Bus {
	return &Bus{logger: logger, metrics: metrics}
}

// Subscribe binds a handler to route's queue.
func (b *Bus) Subscribe(route Route, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, subscription{route: route, handler: handler})
}

// Publish encodes event and hands it to every subscriber. Rejections are
// logged; they never fail the publisher.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		b.metrics.RecordPublish(event.EventType(), observability.OutcomeFailed)
		return apperrors.NewMessagingError("serialize "+event.EventType(), err)
	}
	msg := Message{
		Type:      event.EventType(),
		Body:      body,
		MessageID: uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
	b.metrics.RecordPublish(msg.Type, observability.OutcomeOK)

	b.mu.RLock()
	subs := append([]subscription{}, b.subscribers...)
	b.mu.RUnlock()

	for _, sub := range subs {
		if dispatch(ctx, sub.route, msg, sub.handler, b.metrics) == Reject {
			b.logger.Warn("event rejected", zap.String("queue", sub.route.Queue), zap.String("event", msg.Type))
		}
	}
	return nil
}

package worker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/observability"
)

// StartProjectionConsumers runs one supervised broker consumer per route.
func StartProjectionConsumers(ctx context.Context, sup *Supervisor, conn *amqp.Connection, exchange string, handlers map[string]events.HandlerFunc, logger *zap.Logger, metrics *observability.Metrics) {
	for _, route := range events.Routes() {
		handler, ok := handlers[route.Type]
		if !ok {
			logger.Warn("no projection for event", zap.String("event", route.Type))
			continue
		}
		sup.Go(ctx, events.NewConsumer(conn, exchange, route, handler, logger, metrics))
	}
}

// SubscribeProjections attaches the handlers to an in-process bus.
func SubscribeProjections(bus *events.Bus, handlers map[string]events.HandlerFunc) {
	for _, route := range events.Routes() {
		if handler, ok := handlers[route.Type]; ok {
			bus.Subscribe(route, handler)
		}
	}
}

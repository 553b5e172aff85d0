package persistence

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/config"
)

// RabbitMQ owns the process-wide broker connection. The publisher and every
// consumer open their own channels on it; Close tears it down on shutdown.
type RabbitMQ struct {
	Conn *amqp.Connection
}

// NewRabbitMQ dials the broker. It returns (nil, nil) when no URL is
// configured so the caller can fall back to the in-process bus.
func NewRabbitMQ(cfg config.RabbitMQConfig, logger *zap.Logger) (*RabbitMQ, error) {
	if cfg.URL == "" {
		logger.Warn("RABBITMQ_URL not provided; using in-process event bus")
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	logger.Info("connected to rabbitmq")
	return &RabbitMQ{Conn: conn}, nil
}

// Close closes the connection and every channel opened on it.
func (r *RabbitMQ) Close() {
	if r != nil && r.Conn != nil && !r.Conn.IsClosed() {
		_ = r.Conn.Close()
	}
}

// Ping reports whether the connection is still open.
func (r *RabbitMQ) Ping(_ context.Context) error {
	if r == nil || r.Conn == nil {
		return errors.New("rabbitmq connection not configured")
	}
	if r.Conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// RabbitMQ publishes persistent JSON messages to a durable direct exchange.
// Every event name is bound to the configured queue.
type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   logging.Logger
}

var routingKeys = []string{EntryCreate, MediaCreate, UserForgotPassword, UserPasswordReset, UserProfileUpdate}

func NewRabbitMQ(ctx context.Context, cfg RabbitMQConfig, logger logging.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	fail := func(step string, err error) (*RabbitMQ, error) {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}

	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}

	for _, key := range routingKeys {
		if err := ch.QueueBind(q.Name, key, cfg.Exchange, false, nil); err != nil {
			return fail("bind queue", err)
		}
	}

	logger.Info(ctx, "connected to rabbitmq", "exchange", cfg.Exchange, "queue", q.Name)

	return &RabbitMQ{conn: conn, channel: ch, exchange: cfg.Exchange, logger: logger}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, event Event) error {
	body, err := event.encode()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = r.channel.PublishWithContext(ctx, r.exchange, event.Name, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	r.logger.Debug(ctx, "published event", "event", event.Name, "model", event.Model)
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// NewPublisher returns a RabbitMQ publisher when url is set and a
// NopPublisher otherwise.
func NewPublisher(ctx context.Context, cfg RabbitMQConfig, logger logging.Logger) (Publisher, error) {
	if cfg.URL == "" {
		return NewNopPublisher(logger), nil
	}
	return NewRabbitMQ(ctx, cfg, logger)
}

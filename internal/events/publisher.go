package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher forwards command completion events to a RabbitMQ topic
// exchange. It implements Handler so it can be registered on an emitter
// alongside in-process observers.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	exchange string
	logger   *slog.Logger
}

// NewAMQPPublisher dials the broker and declares the topic exchange.
func NewAMQPPublisher(url, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		exchange, "topic", true, false, false, false, nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		conn:     conn,
		exchange: exchange,
		logger:   logger.With("component", "amqp_publisher", "exchange", exchange),
	}, nil
}

// HandleEvent publishes the event with a routing key derived from the
// command's completion status, e.g. "command.succeeded".
func (p *AMQPPublisher) HandleEvent(ctx context.Context, event *CommandExecutedEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := "command." + event.Status
	err = ch.PublishWithContext(
		ctx, p.exchange, key, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published", "key", key, "event_id", event.ID)
	return nil
}

// Close shuts down the broker connection.
func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

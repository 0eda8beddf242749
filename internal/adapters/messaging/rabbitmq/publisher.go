package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"payment-gateway/internal/core/domain"
)

const publishTimeout = 3 * time.Second

// Publisher is a RabbitMQ implementation of the MessageBroker port. Events
// go through the default exchange to a durable queue.
type Publisher struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *slog.Logger
}

// NewPublisher dials url and declares queue.
func NewPublisher(url, queue string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare %s: %w", queue, err)
	}

	return &Publisher{conn: conn, ch: ch, queue: queue, logger: logger}, nil
}

// PublishPaymentSettled publishes a persistent JSON message.
func (p *Publisher) PublishPaymentSettled(ctx context.Context, ev domain.PaymentSettled) error {
	msg, err := settledMessage(ev)
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.ch.PublishWithContext(pubCtx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish payment.settled for %s: %w", ev.PaymentID, err)
	}
	p.logger.Debug("message published to rabbitmq", "queue", p.queue, "payment_id", ev.PaymentID)
	return nil
}

func settledMessage(ev domain.PaymentSettled) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal payment.settled: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Type:         "payment.settled",
		Timestamp:    ev.SettledAt,
		Body:         body,
	}, nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

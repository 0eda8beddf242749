// Package logbroker is a MessageBroker that only logs events. It is the
// default when no real broker is configured.
package logbroker

import (
	"context"
	"log/slog"

	"payment-gateway/internal/core/domain"
)

type Broker struct {
	logger *slog.Logger
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{logger: logger}
}

func (b *Broker) PublishPaymentSettled(ctx context.Context, ev domain.PaymentSettled) error {
	b.logger.InfoContext(ctx, "payment settled",
		"event_id", ev.EventID,
		"payment_id", ev.PaymentID,
		"order_id", ev.OrderID,
		"method", ev.Method,
		"status", ev.Status,
		"amount", ev.Amount,
	)
	return nil
}

func (b *Broker) Close() error {
	return nil
}

// Package audit records settled payments into the analytics store. It
// consumes PaymentSettled events, drops duplicates and routes events it
// cannot accept to a dead-letter destination.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"payment-gateway/internal/core/domain"
)

// Record is one row of the settlement audit table.
type Record struct {
	EventID    string
	PaymentID  string
	OrderID    string
	MerchantID string
	Method     string
	Status     string
	Amount     int64
	Currency   string
	ErrorCode  string
	SettledAt  time.Time
	AuditedAt  time.Time
}

// Sink persists audit records.
type Sink interface {
	InsertSettlement(ctx context.Context, rec Record) error
}

// Deduplicator remembers event ids that were already stored.
type Deduplicator interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// Outcome classifies how an event was handled.
type Outcome int

const (
	Stored Outcome = iota
	Duplicate
	// Rejected events are malformed and belong in the dead-letter queue.
	Rejected
	// Failed events were valid but could not be stored.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Stored:
		return "stored"
	case Duplicate:
		return "duplicate"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Dead-letter reasons, carried in the error_type header.
const (
	ReasonUnmarshal = "unmarshal_error"
	ReasonInvalid   = "invalid_event"
	ReasonSink      = "sink_error"
)

// Verdict is the result of handling one event.
type Verdict struct {
	Outcome   Outcome
	Reason    string
	Err       error
	PaymentID string
}

// Auditor turns settlement events into audit records.
type Auditor struct {
	sink   Sink
	dedup  Deduplicator
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditor builds an Auditor. dedup may be nil.
func NewAuditor(sink Sink, dedup Deduplicator, logger *slog.Logger) *Auditor {
	return &Auditor{sink: sink, dedup: dedup, logger: logger, now: time.Now}
}

// Handle decodes and stores one event payload.
func (a *Auditor) Handle(ctx context.Context, payload []byte) Verdict {
	var ev domain.PaymentSettled
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Verdict{Outcome: Rejected, Reason: ReasonUnmarshal, Err: err}
	}
	if err := validateEvent(ev); err != nil {
		return Verdict{Outcome: Rejected, Reason: ReasonInvalid, Err: err, PaymentID: ev.PaymentID}
	}

	if a.dedup != nil {
		seen, err := a.dedup.Seen(ctx, ev.EventID)
		if err != nil {
			a.logger.Warn("dedup lookup failed, storing anyway", "event_id", ev.EventID, "error", err)
		} else if seen {
			return Verdict{Outcome: Duplicate, PaymentID: ev.PaymentID}
		}
	}

	if err := a.sink.InsertSettlement(ctx, toRecord(ev, a.now().UTC())); err != nil {
		return Verdict{Outcome: Failed, Reason: ReasonSink, Err: err, PaymentID: ev.PaymentID}
	}

	if a.dedup != nil {
		if err := a.dedup.Mark(ctx, ev.EventID); err != nil {
			a.logger.Warn("failed to mark event as stored", "event_id", ev.EventID, "error", err)
		}
	}
	return Verdict{Outcome: Stored, PaymentID: ev.PaymentID}
}

func validateEvent(ev domain.PaymentSettled) error {
	switch {
	case ev.EventID == "":
		return errors.New("missing event_id")
	case ev.PaymentID == "":
		return errors.New("missing payment_id")
	case !ev.Status.Terminal():
		return fmt.Errorf("status %q is not terminal", ev.Status)
	case ev.Amount < domain.MinOrderAmount:
		return fmt.Errorf("amount %d below minimum", ev.Amount)
	}
	return nil
}

func toRecord(ev domain.PaymentSettled, auditedAt time.Time) Record {
	rec := Record{
		EventID:    ev.EventID,
		PaymentID:  ev.PaymentID,
		OrderID:    ev.OrderID,
		MerchantID: ev.MerchantID,
		Method:     string(ev.Method),
		Status:     string(ev.Status),
		Amount:     ev.Amount,
		Currency:   ev.Currency,
		SettledAt:  ev.SettledAt.UTC(),
		AuditedAt:  auditedAt,
	}
	if ev.ErrorCode != nil {
		rec.ErrorCode = *ev.ErrorCode
	}
	return rec
}

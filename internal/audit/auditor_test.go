package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-gateway/internal/core/domain"
)

type fakeSink struct {
	records []Record
	err     error
}

func (s *fakeSink) InsertSettlement(_ context.Context, rec Record) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

type fakeDedup struct {
	seen    map[string]bool
	lookErr error
}

func (d *fakeDedup) Seen(_ context.Context, id string) (bool, error) {
	if d.lookErr != nil {
		return false, d.lookErr
	}
	return d.seen[id], nil
}

func (d *fakeDedup) Mark(_ context.Context, id string) error {
	d.seen[id] = true
	return nil
}

func newAuditor(sink Sink, dedup Deduplicator) *Auditor {
	a := NewAuditor(sink, dedup, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return a
}

func settledPayload(t *testing.T, mutate func(*domain.PaymentSettled)) []byte {
	t.Helper()
	code := domain.CodePaymentFailed
	ev := domain.PaymentSettled{
		EventID:    "evt-1",
		PaymentID:  "pay_AbCdEfGhIjKlMnOp",
		OrderID:    "order_AbCdEfGhIjKlMnOp",
		MerchantID: "550e8400-e29b-41d4-a716-446655440000",
		Method:     domain.MethodCard,
		Status:     domain.PaymentFailed,
		Amount:     50000,
		Currency:   "INR",
		ErrorCode:  &code,
		SettledAt:  time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(&ev)
	}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return raw
}

func TestHandle_StoresRecordAndMarksEvent(t *testing.T) {
	sink := &fakeSink{}
	dedup := &fakeDedup{seen: map[string]bool{}}
	a := newAuditor(sink, dedup)

	v := a.Handle(context.Background(), settledPayload(t, nil))

	require.Equal(t, Stored, v.Outcome)
	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	assert.Equal(t, "pay_AbCdEfGhIjKlMnOp", rec.PaymentID)
	assert.Equal(t, "card", rec.Method)
	assert.Equal(t, "failed", rec.Status)
	assert.Equal(t, "PAYMENT_FAILED", rec.ErrorCode)
	assert.Equal(t, 2026, rec.AuditedAt.Year())
	assert.True(t, dedup.seen["evt-1"])
}

func TestHandle_SkipsDuplicates(t *testing.T) {
	sink := &fakeSink{}
	a := newAuditor(sink, &fakeDedup{seen: map[string]bool{"evt-1": true}})

	v := a.Handle(context.Background(), settledPayload(t, nil))

	assert.Equal(t, Duplicate, v.Outcome)
	assert.Empty(t, sink.records)
}

func TestHandle_DedupFailureStillStores(t *testing.T) {
	sink := &fakeSink{}
	a := newAuditor(sink, &fakeDedup{seen: map[string]bool{}, lookErr: errors.New("redis down")})

	v := a.Handle(context.Background(), settledPayload(t, nil))

	assert.Equal(t, Stored, v.Outcome)
	assert.Len(t, sink.records, 1)
}

func TestHandle_Rejections(t *testing.T) {
	a := newAuditor(&fakeSink{}, nil)

	tests := []struct {
		name    string
		payload []byte
		reason  string
	}{
		{"not json", []byte("{oops"), ReasonUnmarshal},
		{"missing payment", settledPayload(t, func(ev *domain.PaymentSettled) { ev.PaymentID = "" }), ReasonInvalid},
		{"not terminal", settledPayload(t, func(ev *domain.PaymentSettled) { ev.Status = domain.PaymentProcessing }), ReasonInvalid},
		{"tiny amount", settledPayload(t, func(ev *domain.PaymentSettled) { ev.Amount = 5 }), ReasonInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := a.Handle(context.Background(), tt.payload)
			assert.Equal(t, Rejected, v.Outcome)
			assert.Equal(t, tt.reason, v.Reason)
			assert.Error(t, v.Err)
		})
	}
}

func TestHandle_SinkFailureIsNotMarked(t *testing.T) {
	dedup := &fakeDedup{seen: map[string]bool{}}
	a := newAuditor(&fakeSink{err: errors.New("clickhouse unavailable")}, dedup)

	v := a.Handle(context.Background(), settledPayload(t, nil))

	assert.Equal(t, Failed, v.Outcome)
	assert.Equal(t, ReasonSink, v.Reason)
	assert.False(t, dedup.seen["evt-1"])
}

package logbroker

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-gateway/internal/core/domain"
)

func TestPublishPaymentSettled_Logs(t *testing.T) {
	var buf bytes.Buffer
	b := NewBroker(slog.New(slog.NewTextHandler(&buf, nil)))

	err := b.PublishPaymentSettled(context.Background(), domain.PaymentSettled{
		PaymentID: "pay_BBBBBBBBBBBBBBBB",
		Status:    domain.PaymentSuccess,
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "payment_id=pay_BBBBBBBBBBBBBBBB")
	assert.Contains(t, buf.String(), "status=success")
}

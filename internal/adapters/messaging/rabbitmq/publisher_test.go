package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-gateway/internal/core/domain"
)

func TestSettledMessage(t *testing.T) {
	settledAt := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	ev := domain.PaymentSettled{
		EventID:   "evt-1",
		PaymentID: "pay_AAAAAAAAAAAAAAAA",
		Method:    domain.MethodCard,
		Status:    domain.PaymentFailed,
		Amount:    1000,
		Currency:  "INR",
		SettledAt: settledAt,
	}

	msg, err := settledMessage(ev)

	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "evt-1", msg.MessageId)
	assert.Equal(t, settledAt, msg.Timestamp)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "pay_AAAAAAAAAAAAAAAA", decoded["payment_id"])
	assert.Equal(t, "failed", decoded["status"])
}

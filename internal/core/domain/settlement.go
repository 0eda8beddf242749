package domain

import "time"

// SettlementJob is a pending settlement persisted next to the payment it
// resolves, so a restart does not drop it.
type SettlementJob struct {
	PaymentID   string
	Method      PaymentMethod
	DueAt       time.Time
	ClaimedAt   *time.Time
	CompletedAt *time.Time
}

// PaymentSettled is published after a payment reaches a terminal state.
type PaymentSettled struct {
	EventID    string        `json:"event_id"`
	PaymentID  string        `json:"payment_id"`
	OrderID    string        `json:"order_id"`
	MerchantID string        `json:"merchant_id"`
	Method     PaymentMethod `json:"method"`
	Status     PaymentStatus `json:"status"`
	Amount     int64         `json:"amount"`
	Currency   string        `json:"currency"`
	ErrorCode  *string       `json:"error_code"`
	SettledAt  time.Time     `json:"settled_at"`
}

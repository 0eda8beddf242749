package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	MethodUPI  PaymentMethod = "upi"
	MethodCard PaymentMethod = "card"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == MethodUPI || m == MethodCard
}

type PaymentStatus string

const (
	PaymentProcessing PaymentStatus = "processing"
	PaymentSuccess    PaymentStatus = "success"
	PaymentFailed     PaymentStatus = "failed"
)

// Terminal reports whether no further transitions are allowed out of s.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// allowedTransitions is the payment state machine. success and failed are terminal.
var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentProcessing: {PaymentSuccess, PaymentFailed},
	PaymentSuccess:    {},
	PaymentFailed:     {},
}

// CanTransition checks if a payment may move from one status to another.
func CanTransition(from, to PaymentStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Payment never holds the full card number or CVV. Exactly one of VPA or
// (CardNetwork, CardLast4) is set, according to Method.
type Payment struct {
	ID               string
	OrderID          string
	MerchantID       uuid.UUID
	Amount           int64
	Currency         string
	Method           PaymentMethod
	Status           PaymentStatus
	VPA              *string
	CardNetwork      *string
	CardLast4        *string
	ErrorCode        *string
	ErrorDescription *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *Payment) OwnedBy(merchantID uuid.UUID) bool {
	return p.MerchantID == merchantID
}

// Outcome is the terminal result applied to a payment by settlement.
type Outcome struct {
	Status           PaymentStatus
	ErrorCode        *string
	ErrorDescription *string
}

// SuccessOutcome and FailureOutcome build the only two settlement results.
func SuccessOutcome() Outcome {
	return Outcome{Status: PaymentSuccess}
}

func FailureOutcome(description string) Outcome {
	code := CodePaymentFailed
	return Outcome{Status: PaymentFailed, ErrorCode: &code, ErrorDescription: &description}
}

// PaymentStats aggregates a merchant's payments for the dashboard.
type PaymentStats struct {
	TotalTransactions int64
	SuccessfulCount   int64
	FailedCount       int64
	ProcessingCount   int64
	TotalAmount       int64
}

// SuccessRate is the share of settled payments that succeeded, in percent.
func (s PaymentStats) SuccessRate() float64 {
	settled := s.SuccessfulCount + s.FailedCount
	if settled == 0 {
		return 0
	}
	return float64(s.SuccessfulCount) * 100 / float64(settled)
}

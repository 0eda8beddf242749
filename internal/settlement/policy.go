// Package settlement resolves processing payments to success or failure
// after a delay. Pending settlements are persisted as jobs and picked up by
// a pool of workers.
package settlement

import (
	"math/rand/v2"
	"time"

	"payment-gateway/internal/config"
	"payment-gateway/internal/core/domain"
)

// FailureDescription is stored on every failed payment.
const FailureDescription = "Payment processing failed"

var successRates = map[domain.PaymentMethod]float64{
	domain.MethodUPI:  0.90,
	domain.MethodCard: 0.95,
}

// Policy decides how long a settlement waits and how it ends.
type Policy struct {
	testMode    bool
	testSuccess bool
	testDelay   time.Duration
	minDelay    time.Duration
	maxDelay    time.Duration
	randFloat   func() float64
}

func NewPolicy(cfg config.SettlementConfig) *Policy {
	return &Policy{
		testMode:    cfg.TestMode,
		testSuccess: cfg.TestPaymentSuccess,
		testDelay:   cfg.TestProcessingDelay(),
		minDelay:    cfg.MinDelay(),
		maxDelay:    cfg.MaxDelay(),
		randFloat:   rand.Float64,
	}
}

// Delay is uniform in [minDelay, maxDelay], or the fixed test delay.
func (p *Policy) Delay() time.Duration {
	if p.testMode {
		return p.testDelay
	}
	spread := p.maxDelay - p.minDelay
	return p.minDelay + time.Duration(p.randFloat()*float64(spread))
}

// Outcome draws the terminal result for a payment made with method.
func (p *Policy) Outcome(method domain.PaymentMethod) domain.Outcome {
	success := p.testSuccess
	if !p.testMode {
		success = p.randFloat() < successRates[method]
	}
	if success {
		return domain.SuccessOutcome()
	}
	return domain.FailureOutcome(FailureDescription)
}

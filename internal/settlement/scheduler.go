package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/observability"
)

// Scheduler enqueues a settlement job due after the policy delay. It
// satisfies ports.SettlementScheduler.
type Scheduler struct {
	jobs   ports.SettlementJobRepository
	policy *Policy
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduler(jobs ports.SettlementJobRepository, policy *Policy, logger *slog.Logger) *Scheduler {
	return &Scheduler{jobs: jobs, policy: policy, logger: logger, now: time.Now}
}

func (s *Scheduler) Schedule(ctx context.Context, paymentID string, method domain.PaymentMethod) error {
	job := domain.SettlementJob{
		PaymentID: paymentID,
		Method:    method,
		DueAt:     s.now().UTC().Add(s.policy.Delay()),
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue settlement for %s: %w", paymentID, err)
	}

	observability.RecordSettlementScheduled(string(method))
	s.logger.DebugContext(ctx, "settlement scheduled", "payment_id", paymentID, "due_at", job.DueAt)
	return nil
}

package settlement

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/observability"
)

// settleTimeout bounds one settlement, including after shutdown starts.
const settleTimeout = 10 * time.Second

type WorkerConfig struct {
	Workers      int
	PollInterval time.Duration
	BatchSize    int
}

// Worker polls for due jobs and settles them on a fixed pool of goroutines.
type Worker struct {
	jobs     ports.SettlementJobRepository
	payments ports.PaymentRepository
	broker   ports.MessageBroker
	policy   *Policy
	cfg      WorkerConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewWorker(
	jobs ports.SettlementJobRepository,
	payments ports.PaymentRepository,
	broker ports.MessageBroker,
	policy *Policy,
	cfg WorkerConfig,
	logger *slog.Logger,
) *Worker {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = cfg.Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	return &Worker{
		jobs:     jobs,
		payments: payments,
		broker:   broker,
		policy:   policy,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run claims due jobs every poll interval until ctx is cancelled. Jobs
// already claimed are finished before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("settlement worker started", "workers", w.cfg.Workers, "poll_interval", w.cfg.PollInterval)

	queue := make(chan domain.SettlementJob)
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				w.settleDetached(ctx, job)
			}
		}()
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		claimed, err := w.jobs.ClaimDue(ctx, w.now().UTC(), w.cfg.BatchSize)
		if err != nil && ctx.Err() == nil {
			observability.RecordSettlementError("claim")
			w.logger.Error("failed to claim settlement jobs", "error", err)
		}
		// Claimed jobs are always handed over, even during shutdown, so none
		// are left claimed but unprocessed.
		for _, job := range claimed {
			queue <- job
		}

		select {
		case <-ctx.Done():
			close(queue)
			wg.Wait()
			w.logger.Info("settlement worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// ProcessDue settles every job due now, sequentially. It returns how many
// jobs were claimed.
func (w *Worker) ProcessDue(ctx context.Context) (int, error) {
	total := 0
	for {
		claimed, err := w.jobs.ClaimDue(ctx, w.now().UTC(), w.cfg.BatchSize)
		if err != nil {
			return total, err
		}
		for _, job := range claimed {
			w.Settle(ctx, job)
		}
		total += len(claimed)
		if len(claimed) < w.cfg.BatchSize {
			return total, nil
		}
	}
}

func (w *Worker) settleDetached(parent context.Context, job domain.SettlementJob) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), settleTimeout)
	defer cancel()
	w.Settle(ctx, job)
}

// Settle applies the policy outcome to the job's payment. Failures are
// logged and swallowed; a job whose status write fails stays claimed and
// the payment remains processing.
func (w *Worker) Settle(ctx context.Context, job domain.SettlementJob) {
	logger := w.logger.With("payment_id", job.PaymentID)
	outcome := w.policy.Outcome(job.Method)

	payment, err := w.payments.UpdateOutcome(ctx, job.PaymentID, outcome)
	if err != nil {
		observability.RecordSettlementError("update_status")
		logger.Error("failed to update payment status", "status", outcome.Status, "error", err)
		return
	}

	settledAt := w.now().UTC()
	if err := w.jobs.Complete(ctx, job.PaymentID, settledAt); err != nil {
		observability.RecordSettlementError("complete_job")
		logger.Warn("failed to mark settlement job complete", "error", err)
	}

	if payment == nil {
		logger.Warn("payment missing or already settled, skipping")
		return
	}

	observability.RecordSettlementCompleted(string(payment.Method), string(payment.Status), settledAt.Sub(payment.CreatedAt))
	logger.Info("payment settled", "status", payment.Status, "method", payment.Method)

	event := domain.PaymentSettled{
		EventID:    uuid.NewString(),
		PaymentID:  payment.ID,
		OrderID:    payment.OrderID,
		MerchantID: payment.MerchantID.String(),
		Method:     payment.Method,
		Status:     payment.Status,
		Amount:     payment.Amount,
		Currency:   payment.Currency,
		ErrorCode:  payment.ErrorCode,
		SettledAt:  settledAt,
	}
	if err := w.broker.PublishPaymentSettled(ctx, event); err != nil {
		observability.RecordSettlementError("publish")
		logger.Warn("failed to publish settlement event", "error", err)
	}
}

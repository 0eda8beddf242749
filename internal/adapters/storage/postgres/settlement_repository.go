package postgres

import (
	"context"
	"fmt"
	"time"

	"payment-gateway/internal/core/domain"
)

const (
	enqueueSettlementSQL = `INSERT INTO settlement_jobs (payment_id, method, due_at) VALUES ($1, $2, $3)`

	// SKIP LOCKED lets several worker processes poll the same table without
	// handing one job out twice.
	claimDueSettlementsSQL = `UPDATE settlement_jobs SET claimed_at = $1
		WHERE payment_id IN (
			SELECT payment_id FROM settlement_jobs
			WHERE claimed_at IS NULL AND due_at <= $1
			ORDER BY due_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING payment_id, method, due_at, claimed_at, completed_at`

	completeSettlementSQL = `UPDATE settlement_jobs SET completed_at = $2 WHERE payment_id = $1`
)

// SettlementJobRepository is the durable settlement queue.
type SettlementJobRepository struct {
	pool DBPool
}

func NewSettlementJobRepository(pool DBPool) *SettlementJobRepository {
	return &SettlementJobRepository{pool: pool}
}

func (r *SettlementJobRepository) Enqueue(ctx context.Context, job domain.SettlementJob) error {
	if _, err := r.pool.Exec(ctx, enqueueSettlementSQL, job.PaymentID, string(job.Method), job.DueAt); err != nil {
		return fmt.Errorf("failed to enqueue settlement job: %w", err)
	}
	return nil
}

func (r *SettlementJobRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.SettlementJob, error) {
	rows, err := r.pool.Query(ctx, claimDueSettlementsSQL, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim settlement jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.SettlementJob
	for rows.Next() {
		var (
			job    domain.SettlementJob
			method string
		)
		if err := rows.Scan(&job.PaymentID, &method, &job.DueAt, &job.ClaimedAt, &job.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement job: %w", err)
		}
		job.Method = domain.PaymentMethod(method)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to claim settlement jobs: %w", err)
	}
	return jobs, nil
}

func (r *SettlementJobRepository) Complete(ctx context.Context, paymentID string, at time.Time) error {
	if _, err := r.pool.Exec(ctx, completeSettlementSQL, paymentID, at); err != nil {
		return fmt.Errorf("failed to complete settlement job: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"payment-gateway/internal/core/domain"
)

const paymentColumns = `id, order_id, merchant_id, amount, currency, method, status, vpa, card_network, card_last4, error_code, error_description, created_at, updated_at`

const (
	paymentExistsSQL = `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`
	insertPaymentSQL = `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	getPaymentSQL             = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	listPaymentsByOrderSQL    = `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 ORDER BY created_at DESC`
	listPaymentsByMerchantSQL = `SELECT ` + paymentColumns + ` FROM payments WHERE merchant_id = $1 ORDER BY created_at DESC`
	hasActivePaymentSQL       = `SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1 AND status IN ('processing', 'success'))`

	// The status guard keeps terminal payments immutable.
	updatePaymentOutcomeSQL = `UPDATE payments
		SET status = $2, error_code = $3, error_description = $4, updated_at = $5
		WHERE id = $1 AND status = 'processing'
		RETURNING ` + paymentColumns

	paymentStatsSQL = `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'success'),
		COUNT(*) FILTER (WHERE status = 'failed'),
		COUNT(*) FILTER (WHERE status = 'processing'),
		COALESCE(SUM(amount) FILTER (WHERE status = 'success'), 0)
		FROM payments WHERE merchant_id = $1`
)

// PaymentRepository is an implementation of the PaymentRepository port for PostgreSQL.
type PaymentRepository struct {
	pool DBPool
	now  func() time.Time
}

func NewPaymentRepository(pool DBPool) *PaymentRepository {
	return &PaymentRepository{pool: pool, now: time.Now}
}

func (r *PaymentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, paymentExistsSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check payment id: %w", err)
	}
	return exists, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	_, err := r.pool.Exec(ctx, insertPaymentSQL,
		p.ID, p.OrderID, p.MerchantID, p.Amount, p.Currency, string(p.Method), string(p.Status),
		p.VPA, p.CardNetwork, p.CardLast4, p.ErrorCode, p.ErrorDescription, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}
	return &p, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, getPaymentSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	return r.list(ctx, listPaymentsByOrderSQL, orderID)
}

func (r *PaymentRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Payment, error) {
	return r.list(ctx, listPaymentsByMerchantSQL, merchantID)
}

func (r *PaymentRepository) list(ctx context.Context, sql string, arg any) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *PaymentRepository) HasActivePayment(ctx context.Context, orderID string) (bool, error) {
	var active bool
	if err := r.pool.QueryRow(ctx, hasActivePaymentSQL, orderID).Scan(&active); err != nil {
		return false, fmt.Errorf("failed to check active payments: %w", err)
	}
	return active, nil
}

func (r *PaymentRepository) UpdateOutcome(ctx context.Context, id string, outcome domain.Outcome) (*domain.Payment, error) {
	row := r.pool.QueryRow(ctx, updatePaymentOutcomeSQL,
		id, string(outcome.Status), outcome.ErrorCode, outcome.ErrorDescription, r.now().UTC(),
	)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) Stats(ctx context.Context, merchantID uuid.UUID) (domain.PaymentStats, error) {
	var s domain.PaymentStats
	err := r.pool.QueryRow(ctx, paymentStatsSQL, merchantID).Scan(
		&s.TotalTransactions, &s.SuccessfulCount, &s.FailedCount, &s.ProcessingCount, &s.TotalAmount,
	)
	if err != nil {
		return domain.PaymentStats{}, fmt.Errorf("failed to aggregate payments: %w", err)
	}
	return s, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p          domain.Payment
		merchantID string
		method     string
		status     string
	)
	err := row.Scan(
		&p.ID, &p.OrderID, &merchantID, &p.Amount, &p.Currency, &method, &status,
		&p.VPA, &p.CardNetwork, &p.CardLast4, &p.ErrorCode, &p.ErrorDescription, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.MerchantID, err = uuid.Parse(merchantID); err != nil {
		return nil, fmt.Errorf("parse merchant id: %w", err)
	}
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

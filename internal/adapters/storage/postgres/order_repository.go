package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"payment-gateway/internal/core/domain"
)

const orderColumns = `id, merchant_id, amount, currency, receipt, notes, status, created_at, updated_at`

const (
	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
	insertOrderSQL = `INSERT INTO orders (` + orderColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getOrderSQL            = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	getOrderForMerchantSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND merchant_id = $2`
	listOrdersSQL          = `SELECT ` + orderColumns + ` FROM orders WHERE merchant_id = $1 ORDER BY created_at DESC`
)

// OrderRepository is an implementation of the OrderRepository port for PostgreSQL.
type OrderRepository struct {
	pool DBPool
}

func NewOrderRepository(pool DBPool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, orderExistsSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check order id: %w", err)
	}
	return exists, nil
}

func (r *OrderRepository) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	notes, err := json.Marshal(o.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order notes: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertOrderSQL,
		o.ID, o.MerchantID, o.Amount, o.Currency, nullableString(o.Receipt), notes, string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, getOrderSQL, id)
}

func (r *OrderRepository) GetByIDForMerchant(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, getOrderForMerchantSQL, id, merchantID)
}

func (r *OrderRepository) findOne(ctx context.Context, sql string, args ...any) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o          domain.Order
		merchantID string
		receipt    *string
		notes      []byte
		status     string
	)
	if err := row.Scan(&o.ID, &merchantID, &o.Amount, &o.Currency, &receipt, &notes, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if o.MerchantID, err = uuid.Parse(merchantID); err != nil {
		return nil, fmt.Errorf("parse merchant id: %w", err)
	}
	if receipt != nil {
		o.Receipt = *receipt
	}
	o.Notes = map[string]any{}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &o.Notes); err != nil {
			return nil, fmt.Errorf("decode notes: %w", err)
		}
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

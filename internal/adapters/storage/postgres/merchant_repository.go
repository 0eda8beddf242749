package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"payment-gateway/internal/core/domain"
)

const merchantColumns = `id, name, email, api_key, api_secret, is_active, created_at, updated_at`

const (
	findMerchantByCredentialsSQL = `SELECT ` + merchantColumns + ` FROM merchants WHERE api_key = $1 AND api_secret = $2`
	findMerchantByIDSQL          = `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`
	findMerchantByEmailSQL       = `SELECT ` + merchantColumns + ` FROM merchants WHERE email = $1`
	insertMerchantSQL            = `INSERT INTO merchants (` + merchantColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

// MerchantRepository is an implementation of the MerchantRepository port for PostgreSQL.
type MerchantRepository struct {
	pool DBPool
}

func NewMerchantRepository(pool DBPool) *MerchantRepository {
	return &MerchantRepository{pool: pool}
}

func (r *MerchantRepository) FindByCredentials(ctx context.Context, apiKey, apiSecret string) (*domain.Merchant, error) {
	return r.findOne(ctx, findMerchantByCredentialsSQL, apiKey, apiSecret)
}

func (r *MerchantRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	return r.findOne(ctx, findMerchantByIDSQL, id)
}

func (r *MerchantRepository) FindByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	return r.findOne(ctx, findMerchantByEmailSQL, email)
}

func (r *MerchantRepository) findOne(ctx context.Context, sql string, args ...any) (*domain.Merchant, error) {
	var (
		m  domain.Merchant
		id string
	)
	err := r.pool.QueryRow(ctx, sql, args...).Scan(
		&id, &m.Name, &m.Email, &m.APIKey, &m.APISecret, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant: %w", err)
	}
	if m.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse merchant id %q: %w", id, err)
	}
	return &m, nil
}

func (r *MerchantRepository) Create(ctx context.Context, m domain.Merchant) error {
	_, err := r.pool.Exec(ctx, insertMerchantSQL,
		m.ID, m.Name, m.Email, m.APIKey, m.APISecret, m.IsActive, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert merchant: %w", err)
	}
	return nil
}

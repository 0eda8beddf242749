package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"payment-gateway/internal/config"
	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
)

// Seeder owns the well-known test merchant.
type Seeder struct {
	merchants ports.MerchantRepository
	seed      config.SeedConfig
	logger    *slog.Logger
}

func NewSeeder(merchants ports.MerchantRepository, seed config.SeedConfig, logger *slog.Logger) *Seeder {
	return &Seeder{merchants: merchants, seed: seed, logger: logger}
}

// EnsureTestMerchant creates the test merchant unless one with the seed
// email already exists.
func (s *Seeder) EnsureTestMerchant(ctx context.Context) (*domain.Merchant, error) {
	existing, err := s.merchants.FindByEmail(ctx, s.seed.MerchantEmail)
	if err != nil {
		return nil, storageError("find seed merchant", err)
	}
	if existing != nil {
		return existing, nil
	}

	id, err := uuid.Parse(s.seed.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("invalid seed merchant id %q: %w", s.seed.MerchantID, err)
	}

	now := time.Now().UTC()
	merchant := domain.Merchant{
		ID:        id,
		Name:      s.seed.MerchantName,
		Email:     s.seed.MerchantEmail,
		APIKey:    s.seed.APIKey,
		APISecret: s.seed.APISecret,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.merchants.Create(ctx, merchant); err != nil {
		return nil, storageError("create seed merchant", err)
	}

	s.logger.InfoContext(ctx, "test merchant seeded", "merchant_id", merchant.ID, "email", merchant.Email)
	return &merchant, nil
}

// TestMerchant returns the seeded merchant, or a not-found error.
func (s *Seeder) TestMerchant(ctx context.Context) (*domain.Merchant, error) {
	merchant, err := s.merchants.FindByEmail(ctx, s.seed.MerchantEmail)
	if err != nil {
		return nil, storageError("find seed merchant", err)
	}
	if merchant == nil {
		return nil, domain.NotFound("Test merchant not found")
	}
	return merchant, nil
}

package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
)

type merchantAuthenticator struct {
	merchants ports.MerchantRepository
	logger    *slog.Logger
}

func NewMerchantAuthenticator(merchants ports.MerchantRepository, logger *slog.Logger) ports.MerchantAuthenticator {
	return &merchantAuthenticator{merchants: merchants, logger: logger}
}

// Authenticate requires an exact match on both key and secret. A wrong
// secret and a missing pair produce the same error code.
func (a *merchantAuthenticator) Authenticate(ctx context.Context, apiKey, apiSecret string) (*domain.MerchantIdentity, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, domain.Unauthenticated("Missing API Key or API Secret")
	}

	merchant, err := a.merchants.FindByCredentials(ctx, apiKey, apiSecret)
	if err != nil {
		return nil, storageError("find merchant by credentials", err)
	}
	if merchant == nil || !merchant.IsActive {
		a.logger.DebugContext(ctx, "rejected merchant credentials")
		return nil, domain.Unauthenticated("Invalid API Key or API Secret")
	}
	return &domain.MerchantIdentity{ID: merchant.ID, Email: merchant.Email}, nil
}

// Identify resolves the subject of a dashboard token.
func (a *merchantAuthenticator) Identify(ctx context.Context, merchantID uuid.UUID) (*domain.MerchantIdentity, error) {
	merchant, err := a.merchants.FindByID(ctx, merchantID)
	if err != nil {
		return nil, storageError("find merchant", err)
	}
	if merchant == nil || !merchant.IsActive {
		return nil, domain.Unauthenticated("Invalid or expired token")
	}
	return &domain.MerchantIdentity{ID: merchant.ID, Email: merchant.Email}, nil
}

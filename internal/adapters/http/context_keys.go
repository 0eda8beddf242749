package http

import (
	"context"

	"payment-gateway/internal/core/domain"
)

// contextKey is a typed context key for this package.
type contextKey string

// merchantContextKey holds the authenticated *domain.MerchantIdentity.
const merchantContextKey contextKey = "merchant"

func withMerchant(ctx context.Context, identity *domain.MerchantIdentity) context.Context {
	return context.WithValue(ctx, merchantContextKey, identity)
}

// MerchantFromContext returns the identity attached by AuthMiddleware.
func MerchantFromContext(ctx context.Context) (*domain.MerchantIdentity, bool) {
	identity, ok := ctx.Value(merchantContextKey).(*domain.MerchantIdentity)
	return identity, ok && identity != nil
}

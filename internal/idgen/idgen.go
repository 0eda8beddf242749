// Package idgen produces prefixed, human-readable identifiers checked for
// uniqueness against the store.
package idgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"payment-gateway/internal/core/domain"
)

const (
	OrderPrefix   = "order_"
	PaymentPrefix = "pay_"

	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	tokenLength  = 16
	maxAttempts  = 10
)

// ExistsFunc reports whether id is already taken.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

type Generator struct {
	intN func(n int) int
}

func NewGenerator() *Generator {
	return &Generator{intN: rand.IntN}
}

// Generate returns prefix followed by 16 random alphanumeric characters,
// retrying on collision up to 10 times.
func (g *Generator) Generate(ctx context.Context, prefix string, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id := g.token(prefix)

		taken, err := exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check id %s: %w", id, err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %d attempts for prefix %q", domain.ErrIDGeneration, maxAttempts, prefix)
}

func (g *Generator) token(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix) + tokenLength)
	b.WriteString(prefix)
	for i := 0; i < tokenLength; i++ {
		b.WriteByte(alphanumeric[g.intN(len(alphanumeric))])
	}
	return b.String()
}

package idgen

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-gateway/internal/core/domain"
)

func TestGenerate_Format(t *testing.T) {
	g := NewGenerator()
	never := func(context.Context, string) (bool, error) { return false, nil }

	orderID, err := g.Generate(context.Background(), OrderPrefix, never)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^order_[A-Za-z0-9]{16}$`), orderID)

	payID, err := g.Generate(context.Background(), PaymentPrefix, never)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^pay_[A-Za-z0-9]{16}$`), payID)
}

func TestGenerate_RetriesOnCollision(t *testing.T) {
	g := NewGenerator()
	calls := 0
	exists := func(context.Context, string) (bool, error) {
		calls++
		return calls < 3, nil
	}

	_, err := g.Generate(context.Background(), OrderPrefix, exists)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestGenerate_ExhaustsAttempts(t *testing.T) {
	g := NewGenerator()
	calls := 0
	always := func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := g.Generate(context.Background(), PaymentPrefix, always)
	assert.ErrorIs(t, err, domain.ErrIDGeneration)
	assert.Equal(t, maxAttempts, calls)
}

func TestGenerate_StoreError(t *testing.T) {
	g := NewGenerator()
	boom := errors.New("db down")

	_, err := g.Generate(context.Background(), OrderPrefix, func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestToken_UsesWholeAlphabet(t *testing.T) {
	i := 0
	g := &Generator{intN: func(n int) int {
		v := i % n
		i++
		return v
	}}

	assert.Equal(t, "pay_ABCDEFGHIJKLMNOP", g.token(PaymentPrefix))
	assert.Equal(t, "pay_QRSTUVWXYZabcdef", g.token(PaymentPrefix))
}

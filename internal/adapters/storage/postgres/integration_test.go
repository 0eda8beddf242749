//go:build integration
// +build integration

package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"payment-gateway/internal/core/domain"
)

// startPostgres launches a postgres container, applies migrations and
// returns a pool. Cleanup is registered with t.Cleanup.
func startPostgres(t *testing.T) DBPool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "gateway",
			"POSTGRES_PASSWORD": "gateway",
			"POSTGRES_DB":       "payment_gateway",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cleanupCancel()
		_ = container.Terminate(cleanupCtx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://gateway:gateway@%s:%s/payment_gateway?sslmode=disable", host, mappedPort.Port())
	require.NoError(t, RunMigrations(dsn, slog.New(slog.NewTextHandler(io.Discard, nil))))

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresLifecycle(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	merchants := NewMerchantRepository(pool)
	orders := NewOrderRepository(pool)
	payments := NewPaymentRepository(pool)
	jobs := NewSettlementJobRepository(pool)

	merchantID := uuid.New()
	require.NoError(t, merchants.Create(ctx, domain.Merchant{
		ID: merchantID, Name: "Shop", Email: "shop@example.com",
		APIKey: "key_shop", APISecret: "secret_shop", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}))

	m, err := merchants.FindByCredentials(ctx, "key_shop", "secret_shop")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, merchantID, m.ID)

	_, err = orders.Create(ctx, domain.Order{
		ID: "order_integration001", MerchantID: merchantID, Amount: 50000, Currency: "INR",
		Notes: map[string]any{"k": "v"}, Status: domain.StatusCreated, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	foreign, err := orders.GetByIDForMerchant(ctx, "order_integration001", uuid.New())
	require.NoError(t, err)
	assert.Nil(t, foreign)

	vpa := "user@paytm"
	var ids []string
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("pay_integration%03d", i)
		ids = append(ids, id)
		_, err := payments.Create(ctx, domain.Payment{
			ID: id, OrderID: "order_integration001", MerchantID: merchantID, Amount: 50000, Currency: "INR",
			Method: domain.MethodUPI, Status: domain.PaymentProcessing, VPA: &vpa, CreatedAt: now, UpdatedAt: now,
		})
		require.NoError(t, err)
		require.NoError(t, jobs.Enqueue(ctx, domain.SettlementJob{PaymentID: id, Method: domain.MethodUPI, DueAt: now}))
	}

	// Concurrent claimers never receive the same job.
	var (
		mu      sync.Mutex
		claimed []string
		wg      sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := jobs.ClaimDue(ctx, now.Add(time.Second), 2)
			assert.NoError(t, err)
			mu.Lock()
			for _, j := range got {
				claimed = append(claimed, j.PaymentID)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, claimed, len(uniq(claimed)))
	assert.LessOrEqual(t, len(claimed), len(ids))

	settled, err := payments.UpdateOutcome(ctx, ids[0], domain.SuccessOutcome())
	require.NoError(t, err)
	require.NotNil(t, settled)
	assert.Equal(t, domain.PaymentSuccess, settled.Status)

	again, err := payments.UpdateOutcome(ctx, ids[0], domain.FailureOutcome("Payment processing failed"))
	require.NoError(t, err)
	assert.Nil(t, again)

	stats, err := payments.Stats(ctx, merchantID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.TotalTransactions)
	assert.Equal(t, int64(1), stats.SuccessfulCount)
	assert.Equal(t, int64(50000), stats.TotalAmount)
}

func uniq(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

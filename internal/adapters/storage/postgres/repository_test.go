package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-gateway/internal/core/domain"
)

var (
	testMerchantID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	testTime       = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	merchantCols = []string{"id", "name", "email", "api_key", "api_secret", "is_active", "created_at", "updated_at"}
	orderCols    = []string{"id", "merchant_id", "amount", "currency", "receipt", "notes", "status", "created_at", "updated_at"}
	paymentCols  = []string{
		"id", "order_id", "merchant_id", "amount", "currency", "method", "status", "vpa",
		"card_network", "card_last4", "error_code", "error_description", "created_at", "updated_at",
	}
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func strPtr(s string) *string { return &s }

func TestMerchantRepository_FindByCredentials(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMerchantRepository(mock)

	mock.ExpectQuery(findMerchantByCredentialsSQL).
		WithArgs("key_test_abc123", "secret_test_xyz789").
		WillReturnRows(pgxmock.NewRows(merchantCols).AddRow(
			testMerchantID.String(), "Test Merchant", "test@example.com", "key_test_abc123", "secret_test_xyz789", true, testTime, testTime,
		))

	m, err := repo.FindByCredentials(context.Background(), "key_test_abc123", "secret_test_xyz789")

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, testMerchantID, m.ID)
	assert.True(t, m.IsActive)
}

func TestMerchantRepository_FindByCredentials_NoMatch(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMerchantRepository(mock)

	mock.ExpectQuery(findMerchantByCredentialsSQL).
		WithArgs("key_test_abc123", "wrong").
		WillReturnError(pgx.ErrNoRows)

	m, err := repo.FindByCredentials(context.Background(), "key_test_abc123", "wrong")

	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)
	ctx := context.Background()

	order := domain.Order{
		ID: "order_NXhj67fGH2jk9mPq", MerchantID: testMerchantID, Amount: 50000, Currency: "INR",
		Notes: map[string]any{}, Status: domain.StatusCreated, CreatedAt: testTime, UpdatedAt: testTime,
	}
	mock.ExpectExec(insertOrderSQL).
		WithArgs(order.ID, testMerchantID, int64(50000), "INR", (*string)(nil), []byte("{}"), "created", testTime, testTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := repo.Create(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, order.ID, created.ID)

	mock.ExpectQuery(getOrderForMerchantSQL).
		WithArgs(order.ID, testMerchantID).
		WillReturnRows(pgxmock.NewRows(orderCols).AddRow(
			order.ID, testMerchantID.String(), int64(50000), "INR", strPtr("rcpt_1"), []byte(`{"customer":"asha"}`), "created", testTime, testTime,
		))

	got, err := repo.GetByIDForMerchant(ctx, order.ID, testMerchantID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rcpt_1", got.Receipt)
	assert.Equal(t, "asha", got.Notes["customer"])
	assert.Equal(t, domain.StatusCreated, got.Status)
}

func TestOrderRepository_GetByIDForMerchant_OtherMerchant(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)
	other := uuid.New()

	mock.ExpectQuery(getOrderForMerchantSQL).
		WithArgs("order_1", other).
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByIDForMerchant(context.Background(), "order_1", other)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderRepository_Exists(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery(orderExistsSQL).WithArgs("order_taken").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.Exists(context.Background(), "order_taken")

	require.NoError(t, err)
	assert.True(t, taken)
}

func TestOrderRepository_ListByMerchant(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery(listOrdersSQL).WithArgs(testMerchantID).
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow("order_2", testMerchantID.String(), int64(200), "INR", nil, []byte("{}"), "created", testTime.Add(time.Minute), testTime).
			AddRow("order_1", testMerchantID.String(), int64(100), "INR", nil, []byte("{}"), "created", testTime, testTime))

	orders, err := repo.ListByMerchant(context.Background(), testMerchantID)

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "order_2", orders[0].ID)
	assert.Empty(t, orders[1].Receipt)
}

func TestPaymentRepository_UpdateOutcome(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPaymentRepository(mock)
	repo.now = func() time.Time { return testTime }
	outcome := domain.FailureOutcome("Payment processing failed")

	mock.ExpectQuery(updatePaymentOutcomeSQL).
		WithArgs("pay_1", "failed", outcome.ErrorCode, outcome.ErrorDescription, testTime).
		WillReturnRows(pgxmock.NewRows(paymentCols).AddRow(
			"pay_1", "order_1", testMerchantID.String(), int64(50000), "INR", "upi", "failed",
			strPtr("user@paytm"), nil, nil, strPtr("PAYMENT_FAILED"), strPtr("Payment processing failed"), testTime, testTime,
		))

	p, err := repo.UpdateOutcome(context.Background(), "pay_1", outcome)

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.PaymentFailed, p.Status)
	assert.Equal(t, domain.MethodUPI, p.Method)
	assert.Equal(t, "user@paytm", *p.VPA)
	assert.Nil(t, p.CardNetwork)
	assert.Equal(t, "PAYMENT_FAILED", *p.ErrorCode)
}

func TestPaymentRepository_UpdateOutcome_AlreadyTerminal(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPaymentRepository(mock)
	repo.now = func() time.Time { return testTime }

	mock.ExpectQuery(updatePaymentOutcomeSQL).
		WithArgs("pay_1", "success", (*string)(nil), (*string)(nil), testTime).
		WillReturnError(pgx.ErrNoRows)

	p, err := repo.UpdateOutcome(context.Background(), "pay_1", domain.SuccessOutcome())

	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPaymentRepository_CreateWrapsErrors(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPaymentRepository(mock)
	cause := errors.New("insert or update on table violates foreign key constraint")

	mock.ExpectExec(insertPaymentSQL).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(cause)

	_, err := repo.Create(context.Background(), domain.Payment{ID: "pay_1", OrderID: "order_missing", Method: domain.MethodUPI, Status: domain.PaymentProcessing})

	assert.ErrorIs(t, err, cause)
}

func TestPaymentRepository_Stats(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPaymentRepository(mock)

	mock.ExpectQuery(paymentStatsSQL).WithArgs(testMerchantID).
		WillReturnRows(pgxmock.NewRows([]string{"total", "success", "failed", "processing", "amount"}).
			AddRow(int64(10), int64(7), int64(2), int64(1), int64(350000)))

	stats, err := repo.Stats(context.Background(), testMerchantID)

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStats{
		TotalTransactions: 10,
		SuccessfulCount:   7,
		FailedCount:       2,
		ProcessingCount:   1,
		TotalAmount:       350000,
	}, stats)
}

func TestSettlementJobRepository_ClaimDue(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSettlementJobRepository(mock)
	claimedAt := testTime

	mock.ExpectQuery(claimDueSettlementsSQL).WithArgs(testTime, 16).
		WillReturnRows(pgxmock.NewRows([]string{"payment_id", "method", "due_at", "claimed_at", "completed_at"}).
			AddRow("pay_1", "card", testTime.Add(-time.Second), &claimedAt, nil))

	jobs, err := repo.ClaimDue(context.Background(), testTime, 16)

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "pay_1", jobs[0].PaymentID)
	assert.Equal(t, domain.MethodCard, jobs[0].Method)
	require.NotNil(t, jobs[0].ClaimedAt)
	assert.Nil(t, jobs[0].CompletedAt)
}

func TestSettlementJobRepository_EnqueueAndComplete(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSettlementJobRepository(mock)
	ctx := context.Background()

	mock.ExpectExec(enqueueSettlementSQL).WithArgs("pay_1", "upi", testTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(completeSettlementSQL).WithArgs("pay_1", testTime).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Enqueue(ctx, domain.SettlementJob{PaymentID: "pay_1", Method: domain.MethodUPI, DueAt: testTime}))
	require.NoError(t, repo.Complete(ctx, "pay_1", testTime))
}

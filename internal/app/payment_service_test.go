package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/idgen"
)

type paymentFixture struct {
	orders    *MockOrderRepository
	payments  *MockPaymentRepository
	scheduler *MockScheduler
	service   *paymentService
}

func newPaymentFixture(opts PaymentOptions) *paymentFixture {
	f := &paymentFixture{
		orders:    new(MockOrderRepository),
		payments:  new(MockPaymentRepository),
		scheduler: new(MockScheduler),
	}
	f.service = NewPaymentService(f.orders, f.payments, f.scheduler, idgen.NewGenerator(), opts, discardLogger()).(*paymentService)
	f.service.now = func() time.Time { return fixedNow }
	return f
}

// expectCreate makes Create echo the payment it receives.
func (f *paymentFixture) expectCreate() *domain.Payment {
	var saved domain.Payment
	f.payments.On("Exists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	f.payments.On("Create", mock.Anything, mock.AnythingOfType("domain.Payment")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Payment) }).
		Return(&saved, nil)
	return &saved
}

func futureYear() string {
	return fmt.Sprintf("%d", time.Now().Year()+2)
}

func assertCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.ErrorIs(t, err, kind)
	assert.Equal(t, code, derr.Code)
}

func TestPaymentService_CreatePayment_UPI(t *testing.T) {
	// --- Arrange ---
	f := newPaymentFixture(PaymentOptions{AllowMultiplePerOrder: true})
	merchantID := uuid.New()
	order := &domain.Order{ID: "order_1", MerchantID: merchantID, Amount: 50000, Currency: "INR"}

	f.orders.On("GetByIDForMerchant", mock.Anything, "order_1", merchantID).Return(order, nil)
	f.expectCreate()
	f.scheduler.On("Schedule", mock.Anything, mock.AnythingOfType("string"), domain.MethodUPI).Return(nil)

	// --- Act ---
	payment, err := f.service.CreatePayment(context.Background(), merchantID, ports.CreatePaymentInput{
		OrderID: "order_1",
		Method:  domain.MethodUPI,
		VPA:     "user@paytm",
	})

	// --- Assert ---
	require.NoError(t, err)
	assert.Regexp(t, `^pay_[A-Za-z0-9]{16}$`, payment.ID)
	assert.Equal(t, domain.PaymentProcessing, payment.Status)
	assert.Equal(t, int64(50000), payment.Amount)
	assert.Equal(t, "INR", payment.Currency)
	assert.Equal(t, merchantID, payment.MerchantID)
	require.NotNil(t, payment.VPA)
	assert.Equal(t, "user@paytm", *payment.VPA)
	assert.Nil(t, payment.CardNetwork)
	assert.Nil(t, payment.CardLast4)
	assert.Nil(t, payment.ErrorCode)

	f.orders.AssertExpectations(t)
	f.scheduler.AssertExpectations(t)
	f.payments.AssertNotCalled(t, "HasActivePayment", mock.Anything, mock.Anything)
}

func TestPaymentService_CreatePayment_CardStoresOnlyNetworkAndLast4(t *testing.T) {
	f := newPaymentFixture(PaymentOptions{AllowMultiplePerOrder: true})
	merchantID := uuid.New()
	order := &domain.Order{ID: "order_1", MerchantID: merchantID, Amount: 100, Currency: "INR"}

	f.orders.On("GetByIDForMerchant", mock.Anything, "order_1", merchantID).Return(order, nil)
	f.expectCreate()
	f.scheduler.On("Schedule", mock.Anything, mock.Anything, domain.MethodCard).Return(nil)

	payment, err := f.service.CreatePayment(context.Background(), merchantID, ports.CreatePaymentInput{
		OrderID: "order_1",
		Method:  domain.MethodCard,
		Card: &ports.CardInput{
			Number:      "4111 1111 1111 1111",
			ExpiryMonth: "12",
			ExpiryYear:  futureYear(),
			CVV:         "123",
			HolderName:  "Asha Rao",
		},
	})

	require.NoError(t, err)
	require.NotNil(t, payment.CardNetwork)
	assert.Equal(t, "visa", *payment.CardNetwork)
	require.NotNil(t, payment.CardLast4)
	assert.Equal(t, "1111", *payment.CardLast4)
	assert.Nil(t, payment.VPA)
}

func TestPaymentService_CreatePayment_ValidationFailures(t *testing.T) {
	validCard := func() *ports.CardInput {
		return &ports.CardInput{Number: "4111111111111111", ExpiryMonth: "12", ExpiryYear: futureYear(), CVV: "123"}
	}

	tests := []struct {
		name string
		in   ports.CreatePaymentInput
		code string
	}{
		{
			name: "missing order id",
			in:   ports.CreatePaymentInput{Method: domain.MethodUPI, VPA: "user@paytm"},
			code: domain.CodeBadRequest,
		},
		{
			name: "unsupported method",
			in:   ports.CreatePaymentInput{OrderID: "order_1", Method: "netbanking"},
			code: domain.CodeBadRequest,
		},
		{
			name: "bad vpa",
			in:   ports.CreatePaymentInput{OrderID: "order_1", Method: domain.MethodUPI, VPA: "user@@bank"},
			code: domain.CodeInvalidVPA,
		},
		{
			name: "missing card",
			in:   ports.CreatePaymentInput{OrderID: "order_1", Method: domain.MethodCard},
			code: domain.CodeBadRequest,
		},
		{
			name: "luhn failure",
			in: func() ports.CreatePaymentInput {
				c := validCard()
				c.Number = "4111111111111112"
				return ports.CreatePaymentInput{OrderID: "order_1", Method: domain.MethodCard, Card: c}
			}(),
			code: domain.CodeInvalidCard,
		},
		{
			name: "expired card",
			in: func() ports.CreatePaymentInput {
				c := validCard()
				c.ExpiryYear = "2020"
				return ports.CreatePaymentInput{OrderID: "order_1", Method: domain.MethodCard, Card: c}
			}(),
			code: domain.CodeExpiredCard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(PaymentOptions{AllowMultiplePerOrder: true})

			_, err := f.service.CreatePayment(context.Background(), uuid.New(), tt.in)

			assertCode(t, err, domain.ErrValidation, tt.code)
			f.orders.AssertNotCalled(t, "GetByIDForMerchant", mock.Anything, mock.Anything, mock.Anything)
			f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			f.scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPaymentService_CreatePayment_OrderOfAnotherMerchant(t *testing.T) {
	f := newPaymentFixture(PaymentOptions{AllowMultiplePerOrder: true})
	merchantID := uuid.New()

	f.orders.On("GetByIDForMerchant", mock.Anything, "order_foreign", merchantID).Return(nil, nil)

	_, err := f.service.CreatePayment(context.Background(), merchantID, ports.CreatePaymentInput{
		OrderID: "order_foreign",
		Method:  domain.MethodUPI,
		VPA:     "user@paytm",
	})

	assertCode(t, err, domain.ErrNotFound, domain.CodeNotFound)
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_CreatePayment_OverPaymentGuard(t *testing.T) {
	f := newPaymentFixture(PaymentOptions{AllowMultiplePerOrder: false})
	merchantID := uuid.New()
	order := &domain.Order{ID: "order_1", MerchantID: merchantID, Amount: 100, Currency: "INR"}

	f.orders.On("GetByIDForMerchant", mock.Anything, "order_1", merchantID).Return(order, nil)
	f.payments.On("HasActivePayment", mock.Anything, "order_1").Return(true, nil)

	_, err := f.service.CreatePayment(context.Background(), merchantID, ports.CreatePaymentInput{
		OrderID: "order_1",
		Method:  domain.MethodUPI,
		VPA:     "user@paytm",
	})

	assertCode(t, err, domain.ErrValidation, domain.CodeOrderPaid)
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_CreatePayment_ScheduleFailure(t *testing.T) {
	f := newPaymentFixture(PaymentOptions{AllowMultiplePerOrder: true})
	merchantID := uuid.New()
	order := &domain.Order{ID: "order_1", MerchantID: merchantID, Amount: 100, Currency: "INR"}

	f.orders.On("GetByIDForMerchant", mock.Anything, "order_1", merchantID).Return(order, nil)
	f.expectCreate()
	f.scheduler.On("Schedule", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("queue down"))

	_, err := f.service.CreatePayment(context.Background(), merchantID, ports.CreatePaymentInput{
		OrderID: "order_1",
		Method:  domain.MethodUPI,
		VPA:     "user@paytm",
	})

	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestPaymentService_CreatePublicPayment_ResolvesMerchantFromOrder(t *testing.T) {
	f := newPaymentFixture(PaymentOptions{AllowMultiplePerOrder: true})
	owner := uuid.New()
	order := &domain.Order{ID: "order_1", MerchantID: owner, Amount: 2500, Currency: "INR"}

	f.orders.On("GetByID", mock.Anything, "order_1").Return(order, nil)
	f.orders.On("GetByIDForMerchant", mock.Anything, "order_1", owner).Return(order, nil)
	f.expectCreate()
	f.scheduler.On("Schedule", mock.Anything, mock.Anything, domain.MethodUPI).Return(nil)

	payment, err := f.service.CreatePublicPayment(context.Background(), ports.CreatePaymentInput{
		OrderID: "order_1",
		Method:  domain.MethodUPI,
		VPA:     "shopper@okaxis",
	})

	require.NoError(t, err)
	assert.Equal(t, owner, payment.MerchantID)
	assert.Equal(t, int64(2500), payment.Amount)
}

func TestPaymentService_CreatePublicPayment_UnknownOrder(t *testing.T) {
	f := newPaymentFixture(PaymentOptions{AllowMultiplePerOrder: true})
	f.orders.On("GetByID", mock.Anything, "order_missing").Return(nil, nil)

	_, err := f.service.CreatePublicPayment(context.Background(), ports.CreatePaymentInput{
		OrderID: "order_missing",
		Method:  domain.MethodUPI,
		VPA:     "shopper@okaxis",
	})

	assertCode(t, err, domain.ErrNotFound, domain.CodeNotFound)
}

func TestPaymentService_GetMerchantPayment(t *testing.T) {
	owner := uuid.New()
	payment := &domain.Payment{ID: "pay_1", MerchantID: owner}

	f := newPaymentFixture(PaymentOptions{})
	f.payments.On("GetByID", mock.Anything, "pay_1").Return(payment, nil)
	f.payments.On("GetByID", mock.Anything, "pay_missing").Return(nil, nil)

	got, err := f.service.GetMerchantPayment(context.Background(), owner, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, payment, got)

	_, err = f.service.GetMerchantPayment(context.Background(), uuid.New(), "pay_1")
	assertCode(t, err, domain.ErrForbidden, domain.CodeUnauthorized)

	_, err = f.service.GetMerchantPayment(context.Background(), owner, "pay_missing")
	assertCode(t, err, domain.ErrNotFound, domain.CodeNotFound)
}

func TestPaymentService_ListOrderPayments_ChecksOwnership(t *testing.T) {
	owner := uuid.New()
	order := &domain.Order{ID: "order_1", MerchantID: owner}
	stored := []domain.Payment{{ID: "pay_2"}, {ID: "pay_1"}}

	f := newPaymentFixture(PaymentOptions{})
	f.orders.On("GetByID", mock.Anything, "order_1").Return(order, nil)
	f.payments.On("ListByOrder", mock.Anything, "order_1").Return(stored, nil)

	got, err := f.service.ListOrderPayments(context.Background(), owner, "order_1")
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	_, err = f.service.ListOrderPayments(context.Background(), uuid.New(), "order_1")
	assertCode(t, err, domain.ErrForbidden, domain.CodeUnauthorized)
	f.payments.AssertNumberOfCalls(t, "ListByOrder", 1)
}

func TestPaymentService_Stats(t *testing.T) {
	merchantID := uuid.New()
	f := newPaymentFixture(PaymentOptions{})
	f.payments.On("Stats", mock.Anything, merchantID).Return(domain.PaymentStats{TotalTransactions: 3, SuccessfulCount: 2, TotalAmount: 200}, nil)

	stats, err := f.service.Stats(context.Background(), merchantID)

	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalTransactions)
	assert.Equal(t, int64(200), stats.TotalAmount)
}

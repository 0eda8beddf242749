package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"payment-gateway/internal/core/domain"
)

// Mock - implementation of the order repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIDForMerchant(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Order, error) {
	args := m.Called(ctx, merchantID)
	orders, _ := args.Get(0).([]domain.Order)
	return orders, args.Error(1)
}

// Mock - implementation of the payment repository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	args := m.Called(ctx, orderID)
	payments, _ := args.Get(0).([]domain.Payment)
	return payments, args.Error(1)
}

func (m *MockPaymentRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Payment, error) {
	args := m.Called(ctx, merchantID)
	payments, _ := args.Get(0).([]domain.Payment)
	return payments, args.Error(1)
}

func (m *MockPaymentRepository) HasActivePayment(ctx context.Context, orderID string) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) UpdateOutcome(ctx context.Context, id string, outcome domain.Outcome) (*domain.Payment, error) {
	args := m.Called(ctx, id, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Stats(ctx context.Context, merchantID uuid.UUID) (domain.PaymentStats, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(domain.PaymentStats), args.Error(1)
}

// Mock - implementation of the settlement scheduler
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, paymentID string, method domain.PaymentMethod) error {
	args := m.Called(ctx, paymentID, method)
	return args.Error(0)
}

// Mock - implementation of the merchant repository
type MockMerchantRepository struct {
	mock.Mock
}

func (m *MockMerchantRepository) FindByCredentials(ctx context.Context, apiKey, apiSecret string) (*domain.Merchant, error) {
	args := m.Called(ctx, apiKey, apiSecret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) FindByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) Create(ctx context.Context, merchant domain.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

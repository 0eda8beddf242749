package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"payment-gateway/internal/core/domain"
)

// Outgoing ports. Implementations live under internal/adapters; every method
// is a single atomic statement against the store.

// MerchantRepository resolves merchants for authentication and seeding.
type MerchantRepository interface {
	FindByCredentials(ctx context.Context, apiKey, apiSecret string) (*domain.Merchant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	FindByEmail(ctx context.Context, email string) (*domain.Merchant, error)
	Create(ctx context.Context, m domain.Merchant) error
}

// OrderRepository returns (nil, nil) from lookups when no row matches.
type OrderRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIDForMerchant(ctx context.Context, id string, merchantID uuid.UUID) (*domain.Order, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Order, error)
}

// PaymentRepository returns (nil, nil) from lookups when no row matches.
type PaymentRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Payment, error)
	HasActivePayment(ctx context.Context, orderID string) (bool, error)
	// UpdateOutcome moves a processing payment to a terminal state. It returns
	// (nil, nil) when the payment is missing or already terminal.
	UpdateOutcome(ctx context.Context, id string, outcome domain.Outcome) (*domain.Payment, error)
	Stats(ctx context.Context, merchantID uuid.UUID) (domain.PaymentStats, error)
}

// SettlementJobRepository is the durable queue of pending settlements.
type SettlementJobRepository interface {
	Enqueue(ctx context.Context, job domain.SettlementJob) error
	// ClaimDue marks up to limit unclaimed jobs with due_at <= now as claimed
	// and returns them. A job is handed out at most once.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.SettlementJob, error)
	Complete(ctx context.Context, paymentID string, at time.Time) error
}

// MessageBroker publishes settlement events.
type MessageBroker interface {
	PublishPaymentSettled(ctx context.Context, ev domain.PaymentSettled) error
}

// RateLimiterRepository defines the contract for the rate limiter storage.
type RateLimiterRepository interface {
	IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SettlementScheduler arranges for a processing payment to be settled later.
type SettlementScheduler interface {
	Schedule(ctx context.Context, paymentID string, method domain.PaymentMethod) error
}

// Incoming ports.

// CreateOrderInput mirrors the order creation request body.
type CreateOrderInput struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]any
}

// CardInput is the raw card data from the checkout form. Number and CVV are
// used for validation only and never stored.
type CardInput struct {
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	HolderName  string
}

// CreatePaymentInput mirrors the payment creation request body.
type CreatePaymentInput struct {
	OrderID string
	Method  domain.PaymentMethod
	VPA     string
	Card    *CardInput
}

type OrderService interface {
	CreateOrder(ctx context.Context, merchantID uuid.UUID, in CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	GetMerchantOrder(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, merchantID uuid.UUID) ([]domain.Order, error)
}

type PaymentService interface {
	CreatePayment(ctx context.Context, merchantID uuid.UUID, in CreatePaymentInput) (*domain.Payment, error)
	CreatePublicPayment(ctx context.Context, in CreatePaymentInput) (*domain.Payment, error)
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	GetMerchantPayment(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Payment, error)
	ListOrderPayments(ctx context.Context, merchantID uuid.UUID, orderID string) ([]domain.Payment, error)
	ListPayments(ctx context.Context, merchantID uuid.UUID) ([]domain.Payment, error)
	Stats(ctx context.Context, merchantID uuid.UUID) (domain.PaymentStats, error)
}

// MerchantAuthenticator maps request credentials to a merchant identity.
type MerchantAuthenticator interface {
	Authenticate(ctx context.Context, apiKey, apiSecret string) (*domain.MerchantIdentity, error)
	Identify(ctx context.Context, merchantID uuid.UUID) (*domain.MerchantIdentity, error)
}

package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/core/validation"
	"payment-gateway/internal/idgen"
	"payment-gateway/internal/observability"
)

// PaymentOptions tunes payment creation rules.
type PaymentOptions struct {
	// AllowMultiplePerOrder permits new payments on an order that already
	// has a processing or successful one.
	AllowMultiplePerOrder bool
}

type paymentService struct {
	orders    ports.OrderRepository
	payments  ports.PaymentRepository
	scheduler ports.SettlementScheduler
	ids       *idgen.Generator
	opts      PaymentOptions
	logger    *slog.Logger
	now       func() time.Time
}

// NewPaymentService wires the payment lifecycle to its stores and the
// settlement scheduler.
func NewPaymentService(
	orders ports.OrderRepository,
	payments ports.PaymentRepository,
	scheduler ports.SettlementScheduler,
	ids *idgen.Generator,
	opts PaymentOptions,
	logger *slog.Logger,
) ports.PaymentService {
	return &paymentService{
		orders:    orders,
		payments:  payments,
		scheduler: scheduler,
		ids:       ids,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// instrument is a validated payment instrument, reduced to what may be stored.
type instrument struct {
	method  domain.PaymentMethod
	vpa     string
	network string
	last4   string
}

func validateInstrument(in ports.CreatePaymentInput) (instrument, error) {
	if strings.TrimSpace(in.OrderID) == "" || in.Method == "" {
		return instrument{}, domain.Validation(domain.CodeBadRequest, "Missing required fields: order_id, method")
	}

	switch in.Method {
	case domain.MethodUPI:
		if !validation.IsValidVPA(in.VPA) {
			return instrument{}, domain.Validation(domain.CodeInvalidVPA, "Invalid VPA format")
		}
		return instrument{method: in.Method, vpa: in.VPA}, nil

	case domain.MethodCard:
		c := in.Card
		if c == nil || c.Number == "" || c.ExpiryMonth == "" || c.ExpiryYear == "" || c.CVV == "" {
			return instrument{}, domain.Validation(domain.CodeBadRequest, "Missing card fields: number, expiry_month, expiry_year, cvv")
		}
		if !validation.IsValidCardNumber(c.Number) {
			return instrument{}, domain.Validation(domain.CodeInvalidCard, "Invalid card number")
		}
		if !validation.IsValidCardExpiry(c.ExpiryMonth, c.ExpiryYear) {
			return instrument{}, domain.Validation(domain.CodeExpiredCard, "Card has expired")
		}
		return instrument{
			method:  in.Method,
			network: validation.DetectCardNetwork(c.Number),
			last4:   validation.CardLast4(c.Number),
		}, nil

	default:
		return instrument{}, domain.Validation(domain.CodeBadRequest, "Invalid payment method. Supported: upi, card")
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, merchantID uuid.UUID, in ports.CreatePaymentInput) (_ *domain.Payment, err error) {
	ctx, span := startSpan(ctx, "PaymentService.CreatePayment")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("merchant.id", merchantID.String()), attribute.String("order.id", in.OrderID))

	inst, err := validateInstrument(in)
	if err != nil {
		return nil, err
	}
	return s.createAndProcess(ctx, merchantID, in.OrderID, inst)
}

// CreatePublicPayment serves the hosted checkout, where the merchant is
// whoever owns the order.
func (s *paymentService) CreatePublicPayment(ctx context.Context, in ports.CreatePaymentInput) (_ *domain.Payment, err error) {
	ctx, span := startSpan(ctx, "PaymentService.CreatePublicPayment")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("order.id", in.OrderID))

	if strings.TrimSpace(in.OrderID) == "" || in.Method == "" {
		return nil, domain.Validation(domain.CodeBadRequest, "Missing required fields: order_id, method")
	}

	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, storageError("get order", err)
	}
	if order == nil {
		return nil, domain.NotFound("Order not found")
	}

	inst, err := validateInstrument(in)
	if err != nil {
		return nil, err
	}
	return s.createAndProcess(ctx, order.MerchantID, order.ID, inst)
}

// createAndProcess persists a processing payment for an order owned by
// merchantID and hands it to the settlement scheduler. Nothing is written
// unless every check has passed.
func (s *paymentService) createAndProcess(ctx context.Context, merchantID uuid.UUID, orderID string, inst instrument) (*domain.Payment, error) {
	order, err := s.orders.GetByIDForMerchant(ctx, orderID, merchantID)
	if err != nil {
		return nil, storageError("get order", err)
	}
	if order == nil {
		return nil, domain.NotFound("Order not found")
	}

	// Check-then-insert; two concurrent requests can both pass.
	if !s.opts.AllowMultiplePerOrder {
		active, err := s.payments.HasActivePayment(ctx, order.ID)
		if err != nil {
			return nil, storageError("check active payment", err)
		}
		if active {
			return nil, domain.Validation(domain.CodeOrderPaid, "Order already has a processing or successful payment")
		}
	}

	id, err := s.ids.Generate(ctx, idgen.PaymentPrefix, s.payments.Exists)
	if err != nil {
		return nil, idError("generate payment id", err)
	}

	now := s.now().UTC()
	payment := domain.Payment{
		ID:         id,
		OrderID:    order.ID,
		MerchantID: merchantID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Method:     inst.method,
		Status:     domain.PaymentProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	switch inst.method {
	case domain.MethodUPI:
		payment.VPA = &inst.vpa
	case domain.MethodCard:
		payment.CardNetwork = &inst.network
		payment.CardLast4 = &inst.last4
	}

	created, err := s.payments.Create(ctx, payment)
	if err != nil {
		return nil, storageError("create payment", err)
	}
	observability.RecordPaymentCreated(string(created.Method))

	if err := s.scheduler.Schedule(ctx, created.ID, created.Method); err != nil {
		s.logger.ErrorContext(ctx, "failed to schedule settlement", "payment_id", created.ID, "error", err)
		return nil, storageError("schedule settlement", err)
	}

	s.logger.InfoContext(ctx, "payment accepted",
		"payment_id", created.ID,
		"order_id", created.OrderID,
		"merchant_id", merchantID,
		"method", created.Method,
	)
	return created, nil
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("get payment", err)
	}
	if payment == nil {
		return nil, domain.NotFound("Payment not found")
	}
	return payment, nil
}

func (s *paymentService) GetMerchantPayment(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Payment, error) {
	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !payment.OwnedBy(merchantID) {
		return nil, domain.Forbidden("Unauthorized to access this payment")
	}
	return payment, nil
}

func (s *paymentService) ListOrderPayments(ctx context.Context, merchantID uuid.UUID, orderID string) ([]domain.Payment, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, storageError("get order", err)
	}
	if order == nil {
		return nil, domain.NotFound("Order not found")
	}
	if !order.OwnedBy(merchantID) {
		return nil, domain.Forbidden("Unauthorized to access this order")
	}

	payments, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, storageError("list order payments", err)
	}
	return payments, nil
}

func (s *paymentService) ListPayments(ctx context.Context, merchantID uuid.UUID) ([]domain.Payment, error) {
	payments, err := s.payments.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, storageError("list payments", err)
	}
	return payments, nil
}

func (s *paymentService) Stats(ctx context.Context, merchantID uuid.UUID) (domain.PaymentStats, error) {
	stats, err := s.payments.Stats(ctx, merchantID)
	if err != nil {
		return domain.PaymentStats{}, storageError("payment stats", err)
	}
	return stats, nil
}

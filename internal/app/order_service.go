package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/core/validation"
	"payment-gateway/internal/idgen"
)

type orderService struct {
	orders ports.OrderRepository
	ids    *idgen.Generator
	logger *slog.Logger
	now    func() time.Time
}

// NewOrderService is the constructor of the order service.
func NewOrderService(orders ports.OrderRepository, ids *idgen.Generator, logger *slog.Logger) ports.OrderService {
	return &orderService{
		orders: orders,
		ids:    ids,
		logger: logger,
		now:    time.Now,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, merchantID uuid.UUID, in ports.CreateOrderInput) (_ *domain.Order, err error) {
	ctx, span := startSpan(ctx, "OrderService.CreateOrder")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("merchant.id", merchantID.String()), attribute.Int64("order.amount", in.Amount))

	if in.Amount < domain.MinOrderAmount {
		return nil, domain.Validation(domain.CodeBadRequest, "Amount must be at least 100 paise")
	}

	currency := in.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	} else if !validation.IsValidCurrency(currency) {
		return nil, domain.Validation(domain.CodeBadRequest, "Currency must be a 3-letter code")
	}
	notes := in.Notes
	if notes == nil {
		notes = map[string]any{}
	}

	id, err := s.ids.Generate(ctx, idgen.OrderPrefix, s.orders.Exists)
	if err != nil {
		return nil, idError("generate order id", err)
	}

	now := s.now().UTC()
	created, err := s.orders.Create(ctx, domain.Order{
		ID:         id,
		MerchantID: merchantID,
		Amount:     in.Amount,
		Currency:   currency,
		Receipt:    in.Receipt,
		Notes:      notes,
		Status:     domain.StatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, storageError("create order", err)
	}

	s.logger.InfoContext(ctx, "order created", "order_id", created.ID, "merchant_id", merchantID, "amount", created.Amount)
	return created, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("get order", err)
	}
	if order == nil {
		return nil, domain.NotFound("Order not found")
	}
	return order, nil
}

func (s *orderService) GetMerchantOrder(ctx context.Context, merchantID uuid.UUID, id string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(merchantID) {
		return nil, domain.Forbidden("Unauthorized to access this order")
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, merchantID uuid.UUID) ([]domain.Order, error) {
	orders, err := s.orders.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, storageError("list orders", err)
	}
	return orders, nil
}

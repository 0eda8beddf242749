package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/observability"
)

// OrderHandler serves merchant and checkout order routes.
type OrderHandler struct {
	orders   ports.OrderService
	payments ports.PaymentService
	logger   *slog.Logger
}

func NewOrderHandler(orders ports.OrderService, payments ports.PaymentService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		payments: payments,
		logger:   logger,
	}
}

func (h *OrderHandler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)
	merchant, _ := MerchantFromContext(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body", logger)
		return
	}
	if req.Amount == nil || *req.Amount == 0 {
		badRequest(w, "Missing required field: amount", logger)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), merchant.ID, ports.CreateOrderInput{
		Amount:   *req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		writeError(w, err, logger)
		return
	}

	writeJSON(w, http.StatusCreated, newOrderResponse(order), logger)
}

func (h *OrderHandler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)
	merchant, _ := MerchantFromContext(r.Context())

	orders, err := h.orders.ListOrders(r.Context(), merchant.ID)
	if err != nil {
		writeError(w, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, newOrderListResponse(orders), logger)
}

func (h *OrderHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)
	merchant, _ := MerchantFromContext(r.Context())

	order, err := h.orders.GetMerchantOrder(r.Context(), merchant.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order), logger)
}

// HandleGetPublicOrder backs the hosted checkout page.
func (h *OrderHandler) HandleGetPublicOrder(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)

	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order), logger)
}

func (h *OrderHandler) HandleListOrderPayments(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)
	merchant, _ := MerchantFromContext(r.Context())

	payments, err := h.payments.ListOrderPayments(r.Context(), merchant.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, newPaymentListResponse(payments), logger)
}

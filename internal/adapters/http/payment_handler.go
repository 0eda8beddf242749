package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/observability"
)

type PaymentHandler struct {
	payments ports.PaymentService
	logger   *slog.Logger
}

func NewPaymentHandler(payments ports.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

func (h *PaymentHandler) decode(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (createPaymentRequest, bool) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body", logger)
		return req, false
	}
	return req, true
}

func (h *PaymentHandler) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)
	merchant, _ := MerchantFromContext(r.Context())

	req, ok := h.decode(w, r, logger)
	if !ok {
		return
	}

	payment, err := h.payments.CreatePayment(r.Context(), merchant.ID, req.toInput())
	if err != nil {
		writeError(w, err, logger)
		return
	}
	writeJSON(w, http.StatusCreated, newPaymentResponse(payment), logger)
}

func (h *PaymentHandler) HandleCreatePublicPayment(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)

	req, ok := h.decode(w, r, logger)
	if !ok {
		return
	}

	payment, err := h.payments.CreatePublicPayment(r.Context(), req.toInput())
	if err != nil {
		writeError(w, err, logger)
		return
	}
	writeJSON(w, http.StatusCreated, newPaymentResponse(payment), logger)
}

func (h *PaymentHandler) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)
	merchant, _ := MerchantFromContext(r.Context())

	payment, err := h.payments.GetMerchantPayment(r.Context(), merchant.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, newPaymentResponse(payment), logger)
}

// HandleGetPublicPayment is polled by the checkout page until the payment
// leaves processing.
func (h *PaymentHandler) HandleGetPublicPayment(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)

	payment, err := h.payments.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, newPaymentResponse(payment), logger)
}

func (h *PaymentHandler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)
	merchant, _ := MerchantFromContext(r.Context())

	payments, err := h.payments.ListPayments(r.Context(), merchant.ID)
	if err != nil {
		writeError(w, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, newPaymentListResponse(payments), logger)
}

func (h *PaymentHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)
	merchant, _ := MerchantFromContext(r.Context())

	stats, err := h.payments.Stats(r.Context(), merchant.ID)
	if err != nil {
		writeError(w, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(stats), logger)
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"payment-gateway/internal/core/domain"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

type HealthHandler struct {
	checks []HealthCheck
	logger *slog.Logger
}

func NewHealthHandler(logger *slog.Logger, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

// HandleHealth reports each dependency as connected or down, with 503 when
// any is down.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{"status": "healthy"}
	status := http.StatusOK
	for _, check := range h.checks {
		if err := check.Probe(ctx); err != nil {
			h.logger.Warn("health check failed", "dependency", check.Name, "error", err)
			body[check.Name] = "down"
			body["status"] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		body[check.Name] = "connected"
	}
	body["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)

	writeJSON(w, status, body, h.logger)
}

// TestMerchantProvider returns the seeded test merchant.
type TestMerchantProvider interface {
	TestMerchant(ctx context.Context) (*domain.Merchant, error)
}

// TestHandler exposes the seeded merchant credentials to test harnesses.
type TestHandler struct {
	provider TestMerchantProvider
	logger   *slog.Logger
}

func NewTestHandler(provider TestMerchantProvider, logger *slog.Logger) *TestHandler {
	return &TestHandler{provider: provider, logger: logger}
}

type testMerchantResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	Seeded    bool   `json:"seeded"`
}

func (h *TestHandler) HandleTestMerchant(w http.ResponseWriter, r *http.Request) {
	merchant, err := h.provider.TestMerchant(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, testMerchantResponse{
		ID:        merchant.ID.String(),
		Email:     merchant.Email,
		APIKey:    merchant.APIKey,
		APISecret: merchant.APISecret,
		Seeded:    true,
	}, h.logger)
}

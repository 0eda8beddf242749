package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"payment-gateway/internal/observability"
)

type counters struct {
	orders, payments, rejected, failures atomic.Int64
}

type generator struct {
	baseURL      string
	apiKey       string
	apiSecret    string
	invalidRatio float64
	client       *http.Client
	logger       *slog.Logger
	stats        *counters
}

func main() {
	// 1. Setting up flags
	baseURL := flag.String("target", "http://localhost:8000", "Gateway base URL")
	apiKey := flag.String("api-key", "key_test_abc123", "Merchant API key")
	apiSecret := flag.String("api-secret", "secret_test_xyz789", "Merchant API secret")
	rps := flag.Int("rps", 20, "Checkouts per second")
	invalidRatio := flag.Float64("invalid-ratio", 0.1, "Share of payments sent with a broken instrument")
	flag.Parse()

	logger := observability.SetupLogger(os.Getenv("APP_ENV"))
	logger.Info("starting generator", "target", *baseURL, "rps", *rps)

	g := &generator{
		baseURL:      *baseURL,
		apiKey:       *apiKey,
		apiSecret:    *apiSecret,
		invalidRatio: *invalidRatio,
		client:       &http.Client{Timeout: 5 * time.Second},
		logger:       logger,
		stats:        &counters{},
	}

	// 2. Managing the request frequency via ticker
	ticker := time.NewTicker(time.Second / time.Duration(max(*rps, 1)))
	defer ticker.Stop()

	// 3. Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for {
		select {
		case <-ticker.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				g.checkout(ctx)
			}()
		case <-ctx.Done():
			wg.Wait()
			logger.Info("generator stopped",
				"orders", g.stats.orders.Load(),
				"payments", g.stats.payments.Load(),
				"rejected", g.stats.rejected.Load(),
				"failures", g.stats.failures.Load(),
			)
			return
		}
	}
}

// checkout creates an order as the merchant, then pays it through the
// public checkout endpoint.
func (g *generator) checkout(ctx context.Context) {
	r := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	var order struct {
		ID string `json:"id"`
	}
	status, err := g.post(ctx, "/api/v1/orders", orderPayload(r), true, &order)
	if err != nil || status != http.StatusCreated {
		g.stats.failures.Add(1)
		g.logger.Warn("order not created", "status", status, "error", err)
		return
	}
	g.stats.orders.Add(1)

	var payment struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	status, err = g.post(ctx, "/api/v1/payments/public", paymentPayload(r, order.ID, g.invalidRatio), false, &payment)
	switch {
	case err != nil:
		g.stats.failures.Add(1)
		g.logger.Warn("payment request failed", "order_id", order.ID, "error", err)
	case status == http.StatusCreated:
		g.stats.payments.Add(1)
		g.logger.Debug("payment created", "payment_id", payment.ID, "status", payment.Status)
	case status == http.StatusBadRequest:
		g.stats.rejected.Add(1)
	default:
		g.stats.failures.Add(1)
		g.logger.Warn("unexpected payment status", "status", status)
	}
}

func (g *generator) post(ctx context.Context, path string, payload any, authenticated bool, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authenticated {
		req.Header.Set("X-Api-Key", g.apiKey)
		req.Header.Set("X-Api-Secret", g.apiSecret)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			g.logger.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 300 && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

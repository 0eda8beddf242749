package http

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"payment-gateway/internal/core/ports"
)

// RateLimiterMiddleware throttles unauthenticated checkout routes per client IP.
type RateLimiterMiddleware struct {
	repo   ports.RateLimiterRepository
	limit  int
	window time.Duration
	logger *slog.Logger
}

func NewRateLimiterMiddleware(repo ports.RateLimiterRepository, limit int, window time.Duration, logger *slog.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		repo:   repo,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

func (m *RateLimiterMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := m.repo.IsAllowed(r.Context(), clientIP(r), m.limit, m.window)
		if err != nil {
			// Fail open: a limiter outage must not take checkout down.
			m.logger.Error("rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			writeJSONError(w, http.StatusTooManyRequests, CodeRateLimited, "Too many requests", m.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port when present; chi's RealIP may already have
// replaced RemoteAddr with a bare address.
func clientIP(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

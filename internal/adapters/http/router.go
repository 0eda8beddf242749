package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
	"payment-gateway/internal/observability"
)

// Access says which gate a route sits behind.
type Access int

const (
	// AccessPublic routes serve the hosted checkout and are rate limited.
	AccessPublic Access = iota
	// AccessMerchant routes require merchant credentials or a dashboard token.
	AccessMerchant
	// AccessTest routes exist only when test endpoints are exposed.
	AccessTest
	// AccessOpen routes bypass both auth and rate limiting.
	AccessOpen
)

// Route is one entry of the route registry.
type Route struct {
	Method  string
	Pattern string
	Access  Access
	Handler http.HandlerFunc
}

// RouterDeps carries everything NewRouter wires.
type RouterDeps struct {
	ServiceName         string
	Orders              ports.OrderService
	Payments            ports.PaymentService
	Auth                ports.MerchantAuthenticator
	Tokens              *TokenIssuer
	RateLimiter         *RateLimiterMiddleware
	Health              *HealthHandler
	TestMerchants       TestMerchantProvider
	ExposeTestEndpoints bool
	AllowOrigins        []string
	Logger              *slog.Logger
}

// Routes is the registry of every API route and its access level.
func Routes(d RouterDeps) []Route {
	orders := NewOrderHandler(d.Orders, d.Payments, d.Logger)
	payments := NewPaymentHandler(d.Payments, d.Logger)
	health := d.Health
	if health == nil {
		health = NewHealthHandler(d.Logger)
	}

	routes := []Route{
		{http.MethodGet, "/health", AccessOpen, health.HandleHealth},

		{http.MethodGet, "/api/v1/orders/{id}/public", AccessPublic, orders.HandleGetPublicOrder},
		{http.MethodPost, "/api/v1/payments/public", AccessPublic, payments.HandleCreatePublicPayment},
		{http.MethodGet, "/api/v1/payments/{id}/public", AccessPublic, payments.HandleGetPublicPayment},

		{http.MethodPost, "/api/v1/orders", AccessMerchant, orders.HandleCreateOrder},
		{http.MethodGet, "/api/v1/orders", AccessMerchant, orders.HandleListOrders},
		{http.MethodGet, "/api/v1/orders/{id}", AccessMerchant, orders.HandleGetOrder},
		{http.MethodGet, "/api/v1/orders/{id}/payments", AccessMerchant, orders.HandleListOrderPayments},
		{http.MethodPost, "/api/v1/payments", AccessMerchant, payments.HandleCreatePayment},
		{http.MethodGet, "/api/v1/payments", AccessMerchant, payments.HandleListPayments},
		{http.MethodGet, "/api/v1/payments/{id}", AccessMerchant, payments.HandleGetPayment},
		{http.MethodGet, "/api/v1/dashboard/stats", AccessMerchant, payments.HandleStats},
	}

	if d.Tokens != nil {
		auth := NewAuthHandler(d.Auth, d.Tokens, d.Logger)
		routes = append(routes, Route{http.MethodPost, "/auth/token", AccessPublic, auth.HandleIssueToken})
	}
	if d.ExposeTestEndpoints && d.TestMerchants != nil {
		test := NewTestHandler(d.TestMerchants, d.Logger)
		routes = append(routes, Route{http.MethodGet, "/api/v1/test/merchant", AccessTest, test.HandleTestMerchant})
	}
	return routes
}

// NewRouter builds the chi router from the route registry. A route is
// authenticated if and only if it is registered with AccessMerchant.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(observability.NewLoggerMiddleware(d.Logger))
	r.Use(observability.NewMetricsMiddleware(d.ServiceName))
	r.Use(observability.NewTracingMiddleware(d.ServiceName))
	r.Use(CORS(d.AllowOrigins))

	public := r.With()
	if d.RateLimiter != nil {
		public = r.With(d.RateLimiter.Handler)
	}
	merchant := r.With(AuthMiddleware(d.Auth, d.Tokens, d.Logger))

	for _, route := range Routes(d) {
		switch route.Access {
		case AccessPublic:
			public.Method(route.Method, route.Pattern, route.Handler)
		case AccessMerchant:
			merchant.Method(route.Method, route.Pattern, route.Handler)
		case AccessTest, AccessOpen:
			r.Method(route.Method, route.Pattern, route.Handler)
		}
	}

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, domain.CodeNotFound, "Endpoint not found", d.Logger)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, domain.CodeBadRequest, "Method not allowed", d.Logger)
	})

	return r
}

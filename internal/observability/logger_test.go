package observability

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLoggerMiddleware_StoresRequestLogger(t *testing.T) {
	fallback := slog.Default()
	var got *slog.Logger

	handler := middleware.RequestID(NewLoggerMiddleware(fallback)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LoggerFromContext(r.Context(), nil)
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotNil(t, got)
	assert.NotSame(t, fallback, got)
}

func TestLoggerFromContext_Fallback(t *testing.T) {
	fallback := slog.Default()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Same(t, fallback, LoggerFromContext(req.Context(), fallback))
}

package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
)

const (
	HeaderAPIKey    = "X-Api-Key"
	HeaderAPISecret = "X-Api-Secret"

	tokenIssuer = "payment-gateway"
)

// TokenIssuer signs and verifies dashboard bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed HS256 token for identity and its lifetime.
func (t *TokenIssuer) Issue(identity *domain.MerchantIdentity) (string, time.Duration, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":   identity.ID.String(),
		"email": identity.Email,
		"iss":   tokenIssuer,
		"iat":   now.Unix(),
		"exp":   now.Add(t.ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, t.ttl, nil
}

// Parse verifies tokenString and returns the merchant id it was issued to.
func (t *TokenIssuer) Parse(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Only HS256 is accepted.
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(t.now))
	if err != nil {
		return uuid.Nil, err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(subject)
}

// AuthMiddleware authenticates merchant routes with either the API key and
// secret headers or a dashboard bearer token. tokens may be nil, in which
// case only key and secret are accepted.
func AuthMiddleware(auth ports.MerchantAuthenticator, tokens *TokenIssuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				identity *domain.MerchantIdentity
				err      error
			)

			if bearer, ok := bearerToken(r); ok && tokens != nil {
				merchantID, parseErr := tokens.Parse(bearer)
				if parseErr != nil {
					logger.Warn("JWT validation failed", "error", parseErr)
					writeJSONError(w, http.StatusUnauthorized, domain.CodeAuthentication, "Invalid or expired token", logger)
					return
				}
				identity, err = auth.Identify(r.Context(), merchantID)
			} else {
				identity, err = auth.Authenticate(r.Context(), r.Header.Get(HeaderAPIKey), r.Header.Get(HeaderAPISecret))
			}

			if err != nil {
				writeError(w, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(withMerchant(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

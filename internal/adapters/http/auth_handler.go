package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"payment-gateway/internal/core/ports"
)

// AuthHandler exchanges merchant credentials for a dashboard token.
type AuthHandler struct {
	auth   ports.MerchantAuthenticator
	tokens *TokenIssuer
	logger *slog.Logger
}

func NewAuthHandler(auth ports.MerchantAuthenticator, tokens *TokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens, logger: logger}
}

type tokenRequest struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

type tokenResponse struct {
	Token      string `json:"token"`
	TokenType  string `json:"token_type"`
	ExpiresIn  int64  `json:"expires_in"`
	MerchantID string `json:"merchant_id"`
}

// HandleIssueToken accepts credentials in the JSON body or in the API key
// headers.
func (h *AuthHandler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "Invalid request body", h.logger)
		return
	}
	if req.APIKey == "" && req.APISecret == "" {
		req.APIKey, req.APISecret = r.Header.Get(HeaderAPIKey), r.Header.Get(HeaderAPISecret)
	}

	identity, err := h.auth.Authenticate(r.Context(), req.APIKey, req.APISecret)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	token, ttl, err := h.tokens.Issue(identity)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:      token,
		TokenType:  "Bearer",
		ExpiresIn:  int64(ttl.Seconds()),
		MerchantID: identity.ID.String(),
	}, h.logger)
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Merchant owns orders and authenticates with an API key/secret pair.
type Merchant struct {
	ID        uuid.UUID
	Name      string
	Email     string
	APIKey    string
	APISecret string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MerchantIdentity is what the auth layer attaches to a request.
type MerchantIdentity struct {
	ID    uuid.UUID
	Email string
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

// StatusCreated is the only status an order currently takes. Rolling it up
// from payment outcomes is not defined.
const StatusCreated OrderStatus = "created"

const (
	DefaultCurrency = "INR"
	// MinOrderAmount is in minor currency units (paise for INR).
	MinOrderAmount int64 = 100
)

type Order struct {
	ID         string
	MerchantID uuid.UUID
	Amount     int64
	Currency   string
	Receipt    string
	Notes      map[string]any
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OwnedBy reports whether the order belongs to the given merchant.
func (o *Order) OwnedBy(merchantID uuid.UUID) bool {
	return o.MerchantID == merchantID
}

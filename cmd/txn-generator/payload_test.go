package main

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"payment-gateway/internal/core/validation"
)

func TestWithLuhnCheckDigit(t *testing.T) {
	assert.Equal(t, "4111111111111111", withLuhnCheckDigit("4111111111111110"))
	assert.Equal(t, "5555555555554444", withLuhnCheckDigit("5555555555554440"))
	assert.True(t, validation.IsValidCardNumber(withLuhnCheckDigit("123")))
}

func TestBreakCheckDigit(t *testing.T) {
	assert.False(t, validation.IsValidCardNumber(breakCheckDigit("4111111111111111")))
}

func TestPaymentPayload_ValidInstruments(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		p := paymentPayload(r, "order_x", 0)
		switch p["method"] {
		case "upi":
			assert.True(t, validation.IsValidVPA(p["vpa"].(string)), p["vpa"])
		case "card":
			card := p["card"].(map[string]any)
			assert.True(t, validation.IsValidCardNumber(card["number"].(string)), card["number"])
			assert.True(t, validation.IsValidCardExpiry(card["expiry_month"].(string), card["expiry_year"].(string)))
		default:
			t.Fatalf("unexpected method %v", p["method"])
		}
	}
}

func TestVPAHandle(t *testing.T) {
	assert.Equal(t, "jo.hn_1", vpaHandle("jo.hn_1!"))
	assert.Equal(t, "shopper", vpaHandle("!!"))
}

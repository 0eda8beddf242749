package main

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/go-faker/faker/v4"
)

var banks = []string{"okaxis", "okhdfcbank", "ybl", "paytm", "upi"}

func orderPayload(r *rand.Rand) map[string]any {
	return map[string]any{
		"amount":   100 + r.Int64N(200000),
		"currency": "INR",
		"receipt":  "rcpt_" + strings.ToLower(faker.Word()),
		"notes":    map[string]any{"customer": faker.Name()},
	}
}

// paymentPayload builds a payment for orderID. With probability invalidRatio
// the instrument is deliberately broken so validation paths see traffic.
func paymentPayload(r *rand.Rand, orderID string, invalidRatio float64) map[string]any {
	invalid := r.Float64() < invalidRatio
	if r.IntN(2) == 0 {
		vpa := vpaHandle(faker.Username()) + "@" + banks[r.IntN(len(banks))]
		if invalid {
			vpa = strings.Replace(vpa, "@", "@@", 1)
		}
		return map[string]any{"order_id": orderID, "method": "upi", "vpa": vpa}
	}

	number := withLuhnCheckDigit(digitsOnly(faker.CCNumber()))
	if invalid {
		number = breakCheckDigit(number)
	}
	return map[string]any{
		"order_id": orderID,
		"method":   "card",
		"card": map[string]any{
			"number":       number,
			"expiry_month": fmt.Sprintf("%02d", 1+r.IntN(12)),
			"expiry_year":  fmt.Sprint(time.Now().Year() + 1 + r.IntN(5)),
			"cvv":          fmt.Sprintf("%03d", r.IntN(1000)),
			"holder_name":  faker.Name(),
		},
	}
}

func vpaHandle(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c) || c == '.' || c == '_' || c == '-') {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return "shopper"
	}
	return b.String()
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// withLuhnCheckDigit replaces the last digit of number with its Luhn check digit.
func withLuhnCheckDigit(number string) string {
	if len(number) < 13 {
		number = "411111111111111" + "1"
	}
	body := number[:len(number)-1]
	sum := 0
	double := true
	for i := len(body) - 1; i >= 0; i-- {
		d := int(body[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return body + fmt.Sprint((10-sum%10)%10)
}

func breakCheckDigit(number string) string {
	last := number[len(number)-1] - '0'
	return number[:len(number)-1] + fmt.Sprint((last+1)%10)
}

// Package validation holds the pure checks applied to payment instruments
// before anything is written.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Card networks returned by DetectCardNetwork.
const (
	NetworkVisa       = "visa"
	NetworkMastercard = "mastercard"
	NetworkAmex       = "amex"
	NetworkRupay      = "rupay"
	NetworkUnknown    = "unknown"
)

var vpaPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+$`)

var currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

var separators = strings.NewReplacer(" ", "", "-", "")

// IsValidVPA checks a UPI address of the form local-part@handle.
func IsValidVPA(vpa string) bool {
	return vpaPattern.MatchString(vpa)
}

// IsValidCurrency checks for a three-letter currency code.
func IsValidCurrency(code string) bool {
	return currencyPattern.MatchString(code)
}

// normalizeCardNumber strips spaces and hyphens.
func normalizeCardNumber(cardNum string) string {
	return separators.Replace(cardNum)
}

// IsValidCardNumber validates length (13-19 digits) and the Luhn checksum.
func IsValidCardNumber(cardNum string) bool {
	cardNum = normalizeCardNumber(cardNum)
	if len(cardNum) < 13 || len(cardNum) > 19 {
		return false
	}

	sum := 0
	isSecond := false

	// Process digits from right to left
	for i := len(cardNum) - 1; i >= 0; i-- {
		c := cardNum[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')

		if isSecond {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}

		sum += digit
		isSecond = !isSecond
	}

	return sum%10 == 0
}

// DetectCardNetwork classifies a card number by its leading digits. Ranges
// are checked in order and the first match wins.
func DetectCardNetwork(cardNum string) string {
	cardNum = normalizeCardNumber(cardNum)
	if len(cardNum) < 2 {
		if strings.HasPrefix(cardNum, "4") {
			return NetworkVisa
		}
		return NetworkUnknown
	}

	first, second := cardNum[0], cardNum[1]
	twoDigits, err := strconv.Atoi(cardNum[:2])
	if err != nil {
		return NetworkUnknown
	}

	switch {
	case first == '4':
		return NetworkVisa
	case twoDigits >= 51 && twoDigits <= 55:
		return NetworkMastercard
	case first == '3' && (second == '4' || second == '7'):
		return NetworkAmex
	case first == '6' && (second == '0' || second == '5'):
		return NetworkRupay
	case twoDigits >= 81 && twoDigits <= 89:
		return NetworkRupay
	default:
		return NetworkUnknown
	}
}

// IsValidCardExpiry reports whether a card expiring in month/year is still
// usable now. year may be given with 2 or 4 digits.
func IsValidCardExpiry(month, year string) bool {
	return isValidCardExpiryAt(month, year, time.Now())
}

func isValidCardExpiryAt(month, year string, now time.Time) bool {
	month = strings.TrimSpace(month)
	year = strings.TrimSpace(year)

	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return false
	}

	y, err := strconv.Atoi(year)
	if err != nil || y < 0 {
		return false
	}
	switch len(year) {
	case 2:
		y += 2000
	case 4:
	default:
		return false
	}

	return !expiryInstant(m, y, now.Location()).Before(now)
}

// expiryInstant is the last valid instant of the expiry month: day 0 of the
// following month at 23:59:59.999.
func expiryInstant(month, year int, loc *time.Location) time.Time {
	return time.Date(year, time.Month(month+1), 0, 23, 59, 59, int(999*time.Millisecond), loc)
}

// CardLast4 returns the last four digits of a card number, or "" when the
// input does not contain at least four digits.
func CardLast4(cardNum string) string {
	cardNum = normalizeCardNumber(cardNum)
	if len(cardNum) < 4 {
		return ""
	}
	last4 := cardNum[len(cardNum)-4:]
	for i := 0; i < len(last4); i++ {
		if last4[i] < '0' || last4[i] > '9' {
			return ""
		}
	}
	return last4
}

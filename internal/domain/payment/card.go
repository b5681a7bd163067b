package payment

import (
	"strings"
	"time"
)

const (
	maxCardDigits = 19
	minCardDigits = 12
	maxCVCDigits  = 4
	minCVCDigits  = 3
)

type Brand string

const (
	BrandVisa       Brand = "visa"
	BrandMastercard Brand = "mastercard"
	BrandUnknown    Brand = ""
)

// CardData lives only in memory for the duration of a payment attempt.
type CardData struct {
	Number     string
	ExpMonth   int
	ExpYear    int
	CVC        string
	HolderName string
}

// String hides the card so it cannot end up in logs via %v.
func (c CardData) String() string {
	return "CardData{redacted}"
}

func (c CardData) GoString() string {
	return c.String()
}

func digitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func SanitizeCardNumber(raw string) string {
	digits := digitsOnly(raw)
	if len(digits) > maxCardDigits {
		return digits[:maxCardDigits]
	}
	return digits
}

// SanitizeCVC keeps at most four digits.
func SanitizeCVC(raw string) string {
	digits := digitsOnly(raw)
	if len(digits) > maxCVCDigits {
		return digits[:maxCVCDigits]
	}
	return digits
}

func IsValidCVC(cvc string) bool {
	return len(cvc) >= minCVCDigits && len(cvc) <= maxCVCDigits && digitsOnly(cvc) == cvc
}

// IsValidLuhn runs the mod-10 checksum over the digits of number.
func IsValidLuhn(number string) bool {
	digits := digitsOnly(number)
	if len(digits) < minCardDigits {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// CardBrand is a coarse prefix heuristic, not an issuer range table.
func CardBrand(number string) Brand {
	digits := digitsOnly(number)
	if digits == "" {
		return BrandUnknown
	}
	switch digits[0] {
	case '4':
		return BrandVisa
	case '5':
		return BrandMastercard
	default:
		return BrandUnknown
	}
}

func IsValidExpiry(month, year int, now time.Time) bool {
	if month < 1 || month > 12 {
		return false
	}
	currentYear := now.Year()
	currentMonth := int(now.Month())
	if year < currentYear {
		return false
	}
	if year == currentYear && month < currentMonth {
		return false
	}
	return true
}

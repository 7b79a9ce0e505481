// Package phone normalizes phone numbers and recommends a delivery channel
// based on WhatsApp penetration per country calling code.
package phone

import (
	"fmt"
	"strings"

	"github.com/tourist-verify-api/internal/domain"
)

// Normalize strips punctuation and whitespace from a free-form phone number
// and returns it in +<digits> storage form. No country-code inference is
// performed beyond requiring at least 8 digits.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 8 || len(digits) > 15 {
		return "", fmt.Errorf("invalid phone number %q: %w", raw, domain.ErrBadRequest)
	}
	return "+" + digits, nil
}

// Digits returns the provider-call form: the normalized number without the
// leading +.
func Digits(normalized string) string {
	return strings.TrimPrefix(normalized, "+")
}

// waPenetration maps country calling codes to an approximate WhatsApp usage
// percentage. Longer prefixes are matched first.
var waPenetration = map[string]int{
	"212": 93, // Morocco
	"971": 80, // UAE
	"966": 73, // Saudi Arabia
	"20":  78, // Egypt
	"33":  65, // France
	"34":  87, // Spain
	"39":  85, // Italy
	"49":  55, // Germany
	"44":  40, // United Kingdom
	"31":  85, // Netherlands
	"55":  96, // Brazil
	"91":  97, // India
	"90":  88, // Turkey
	"7":   60, // Russia
	"81":  25, // Japan
	"86":  10, // China
	"1":   30, // US/Canada
}

// Penetration returns the WhatsApp usage percentage for the number's country
// prefix, or -1 when the prefix is unknown.
func Penetration(normalized string) int {
	digits := Digits(normalized)
	for l := 3; l >= 1; l-- {
		if len(digits) < l {
			continue
		}
		if pct, ok := waPenetration[digits[:l]]; ok {
			return pct
		}
	}
	return -1
}

// RecommendMethod picks a delivery method for the number: WhatsApp when the
// destination country has at least 50% WhatsApp usage, SMS when it is known to
// be lower. Unknown prefixes default to WhatsApp.
func RecommendMethod(normalized string) string {
	pct := Penetration(normalized)
	if pct >= 0 && pct < 50 {
		return domain.MethodSMS
	}
	return domain.MethodWhatsAppCloudAPI
}

package external

import (
	"errors"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number, use format 0712345678 or 254712345678")

// NormalizePhone converts a Kenyan mobile number to the 2547XXXXXXXX form
// Daraja expects.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "0"):
		digits = "254" + digits[1:]
	case !strings.HasPrefix(digits, "254"):
		digits = "254" + digits
	}

	if len(digits) != 12 || !(strings.HasPrefix(digits, "2547") || strings.HasPrefix(digits, "2541")) {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

package payment

import (
	"errors"
	"strings"
)

var (
	// ErrNonDigit is returned when a card field contains non-digit characters
	ErrNonDigit = errors.New("input contains non-digit characters")
	// ErrBadExpiry is returned when an expiry is not a valid MMYY value
	ErrBadExpiry = errors.New("invalid expiry")
)

// FormatCardNumber renders a raw PAN with digit grouping ("4111 1111 1111 1111").
// Spaces in the input are tolerated; any other non-digit is rejected. This is
// format validation only, the number itself is verified by the processor.
func FormatCardNumber(raw string) (string, error) {
	digits := strings.ReplaceAll(raw, " ", "")
	if digits == "" {
		return "", ErrNonDigit
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", ErrNonDigit
		}
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// FormatExpiry renders a raw MMYY expiry as "MM/YY". A "MM/YY" input is
// accepted as-is after validation.
func FormatExpiry(raw string) (string, error) {
	digits := strings.ReplaceAll(raw, "/", "")
	if len(digits) != 4 {
		return "", ErrBadExpiry
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", ErrBadExpiry
		}
	}

	month := (digits[0]-'0')*10 + (digits[1] - '0')
	if month < 1 || month > 12 {
		return "", ErrBadExpiry
	}

	return digits[:2] + "/" + digits[2:], nil
}

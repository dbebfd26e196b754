package mpesa

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/kevin07696/mpesa-stk/internal/domain"
	"github.com/kevin07696/mpesa-stk/pkg/timeutil"
)

// GenerateTimestamp formats t as the 14 digit UTC request timestamp
func GenerateTimestamp(t time.Time) string {
	return timeutil.FormatCompact(t)
}

// NewTimestamp returns the request timestamp for the current instant
func NewTimestamp() string {
	return GenerateTimestamp(timeutil.Now())
}

// IsValidTimestamp checks the YYYYMMDDHHMMSS shape and field ranges.
// Day is checked against 1-31 only; per-month lengths are not enforced.
func IsValidTimestamp(ts string) bool {
	if len(ts) != 14 {
		return false
	}
	for _, r := range ts {
		if r < '0' || r > '9' {
			return false
		}
	}

	field := func(from, to int) int {
		n := 0
		for _, r := range ts[from:to] {
			n = n*10 + int(r-'0')
		}
		return n
	}

	month, day := field(4, 6), field(6, 8)
	hour, minute, second := field(8, 10), field(10, 12), field(12, 14)

	return month >= 1 && month <= 12 &&
		day >= 1 && day <= 31 &&
		hour <= 23 && minute <= 59 && second <= 59
}

// GeneratePassword derives the STK password: base64(shortCode + passkey + timestamp)
func GeneratePassword(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

// FormatPhoneNumber normalizes a Kenyan MSISDN to 254XXXXXXXXX.
// Accepts +254, 254, 0 and bare nine digit forms with any separators.
func FormatPhoneNumber(phone string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	switch {
	case strings.HasPrefix(digits, "254"):
	case strings.HasPrefix(digits, "0"):
		digits = "254" + digits[1:]
	case len(digits) == 9:
		digits = "254" + digits
	}

	if len(digits) != 12 || !strings.HasPrefix(digits, "254") {
		return "", domain.NewDomainError(domain.ErrorCodeValidationError, "invalid phone number format").
			WithDetail("field", "PhoneNumber")
	}
	return digits, nil
}

package mpesa

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/kevin07696/mpesa-stk/internal/domain"
)

var (
	shortCodePattern   = regexp.MustCompile(`^\d{5,6}$`)
	phonePattern       = regexp.MustCompile(`^254\d{9}$`)
	amountPattern      = regexp.MustCompile(`^[1-9]\d*$`)
	callbackURLPattern = regexp.MustCompile(`^https://([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(:\d{1,5})?/[a-zA-Z0-9\-._~:/?#\[\]@!$&'()*+,;=%]*$`)
)

const (
	maxAccountReferenceLen = 12
	maxTransactionDescLen  = 13
)

func invalid(field, format string, args ...interface{}) error {
	return domain.NewDomainError(domain.ErrorCodeValidationError, fmt.Sprintf(format, args...)).
		WithDetail("field", field)
}

// ValidateRequest checks a request against the STK Push field rules.
// The first violation is returned.
func ValidateRequest(req *domain.PaymentRequest) error {
	if req == nil {
		return invalid("", "request is required")
	}
	if !shortCodePattern.MatchString(req.BusinessShortCode) {
		return invalid("BusinessShortCode", "business short code must be 5 or 6 digits, got %q", req.BusinessShortCode)
	}
	if req.Password == "" {
		return invalid("Password", "password is required")
	}
	if !IsValidTimestamp(req.Timestamp) {
		return invalid("Timestamp", "timestamp must be YYYYMMDDHHMMSS, got %q", req.Timestamp)
	}
	if !phonePattern.MatchString(req.PartyA) {
		return invalid("PartyA", "party A must be a phone number in the format 254XXXXXXXXX")
	}
	if !phonePattern.MatchString(req.PhoneNumber) {
		return invalid("PhoneNumber", "phone number must be in the format 254XXXXXXXXX")
	}
	if err := validatePartyB(req); err != nil {
		return err
	}
	if !callbackURLPattern.MatchString(req.CallBackURL) {
		return invalid("CallBackURL", "callback URL must be an HTTPS URL with a valid host and path")
	}
	if !amountPattern.MatchString(req.Amount) {
		return invalid("Amount", "amount must be a positive whole number, got %q", req.Amount)
	}
	if n := utf8.RuneCountInString(req.AccountReference); n < 1 || n > maxAccountReferenceLen {
		return invalid("AccountReference", "account reference must be 1-%d characters", maxAccountReferenceLen)
	}
	if n := utf8.RuneCountInString(req.TransactionDesc); n < 1 || n > maxTransactionDescLen {
		return invalid("TransactionDesc", "transaction description must be 1-%d characters", maxTransactionDescLen)
	}
	return nil
}

// validatePartyB requires the PayBill receiver to be the business itself.
// A BuyGoods till differs from the head office short code, so only its format is checked.
func validatePartyB(req *domain.PaymentRequest) error {
	switch req.TransactionType {
	case domain.TransactionTypePayBillOnline:
		if req.PartyB != req.BusinessShortCode {
			return invalid("PartyB", "party B must match the business short code")
		}
	case domain.TransactionTypeBuyGoodsOnline:
		if !shortCodePattern.MatchString(req.PartyB) {
			return invalid("PartyB", "party B must be a 5 or 6 digit till number")
		}
	default:
		return invalid("TransactionType", "unsupported transaction type %d", int(req.TransactionType))
	}
	return nil
}

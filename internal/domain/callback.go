package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Metadata item names delivered in a successful STK callback
const (
	MetadataAmount          = "Amount"
	MetadataReceiptNumber   = "MpesaReceiptNumber"
	MetadataTransactionDate = "TransactionDate"
	MetadataPhoneNumber     = "PhoneNumber"
	MetadataBalance         = "Balance"
)

// MetadataKind is the shape a callback metadata value arrived in
type MetadataKind int

const (
	MetadataText MetadataKind = iota
	MetadataInteger
	MetadataFloat
)

func (k MetadataKind) String() string {
	switch k {
	case MetadataInteger:
		return "integer"
	case MetadataFloat:
		return "float"
	default:
		return "text"
	}
}

// MetadataValue is a tagged union over the value shapes M-Pesa sends.
// Only the field matching Kind is meaningful.
type MetadataValue struct {
	Kind    MetadataKind
	Text    string
	Integer int64
	Float   float64
}

// TextValue builds a text metadata value
func TextValue(s string) MetadataValue { return MetadataValue{Kind: MetadataText, Text: s} }

// IntegerValue builds an integer metadata value
func IntegerValue(n int64) MetadataValue { return MetadataValue{Kind: MetadataInteger, Integer: n} }

// FloatValue builds a floating-point metadata value
func FloatValue(f float64) MetadataValue { return MetadataValue{Kind: MetadataFloat, Float: f} }

// String renders the value regardless of its kind
func (v MetadataValue) String() string {
	switch v.Kind {
	case MetadataInteger:
		return strconv.FormatInt(v.Integer, 10)
	case MetadataFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	default:
		return v.Text
	}
}

// CallbackItem is one name/value pair from CallbackMetadata.Item
type CallbackItem struct {
	Name  string
	Value MetadataValue
}

// PaymentCallback is the asynchronous outcome of an STK Push
type PaymentCallback struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResultCode        ResultCode
	ResultDesc        string
	Items             []CallbackItem // in delivery order; empty when the customer did not pay
}

// Succeeded reports whether the customer completed the payment
func (c *PaymentCallback) Succeeded() bool {
	return c.ResultCode.IsSuccess()
}

// Metadata returns the first item with the given name
func (c *PaymentCallback) Metadata(name string) (MetadataValue, bool) {
	for _, item := range c.Items {
		if item.Name == name {
			return item.Value, true
		}
	}
	return MetadataValue{}, false
}

// Amount returns the paid amount. Integer values are widened to float64.
func (c *PaymentCallback) Amount() (float64, bool) {
	v, ok := c.Metadata(MetadataAmount)
	if !ok {
		return 0, false
	}
	switch v.Kind {
	case MetadataFloat:
		return v.Float, true
	case MetadataInteger:
		return float64(v.Integer), true
	default:
		return 0, false
	}
}

// AmountDecimal returns the paid amount as an exact decimal
func (c *PaymentCallback) AmountDecimal() (decimal.Decimal, bool) {
	v, ok := c.Metadata(MetadataAmount)
	if !ok {
		return decimal.Zero, false
	}
	switch v.Kind {
	case MetadataFloat:
		return decimal.NewFromFloat(v.Float), true
	case MetadataInteger:
		return decimal.NewFromInt(v.Integer), true
	default:
		return decimal.Zero, false
	}
}

// ReceiptNumber returns the M-Pesa receipt, e.g. NLJ7RT61SV
func (c *PaymentCallback) ReceiptNumber() (string, bool) {
	v, ok := c.Metadata(MetadataReceiptNumber)
	if !ok || v.Kind != MetadataText {
		return "", false
	}
	return v.Text, true
}

// TransactionDate returns the YYYYMMDDHHMMSS date as delivered (an integer)
func (c *PaymentCallback) TransactionDate() (int64, bool) {
	v, ok := c.Metadata(MetadataTransactionDate)
	if !ok || v.Kind != MetadataInteger {
		return 0, false
	}
	return v.Integer, true
}

// PhoneNumber returns the paying phone number. M-Pesa sends it as a number,
// so integers are rendered in base 10.
func (c *PaymentCallback) PhoneNumber() (string, bool) {
	v, ok := c.Metadata(MetadataPhoneNumber)
	if !ok {
		return "", false
	}
	switch v.Kind {
	case MetadataText:
		return v.Text, true
	case MetadataInteger:
		return strconv.FormatInt(v.Integer, 10), true
	default:
		return "", false
	}
}

// ResultCode is the STK callback result code
type ResultCode int

// Known STK callback result codes
const (
	ResultSuccess                ResultCode = 0
	ResultInsufficientBalance    ResultCode = 1
	ResultTransactionInProgress  ResultCode = 1001
	ResultTransactionExpired     ResultCode = 1019
	ResultPushRequestError       ResultCode = 1025
	ResultCancelledByUser        ResultCode = 1032
	ResultUserUnreachable        ResultCode = 1037
	ResultInvalidInitiator       ResultCode = 2001
	ResultPushRequestErrorLegacy ResultCode = 9999
)

var resultCodeDescriptions = map[ResultCode]string{
	ResultSuccess:                "The service request is processed successfully",
	ResultInsufficientBalance:    "Insufficient balance for the transaction",
	ResultTransactionInProgress:  "A transaction is already in process for the subscriber",
	ResultTransactionExpired:     "Transaction has expired",
	ResultPushRequestError:       "An error occurred while sending the push request",
	ResultCancelledByUser:        "Request cancelled by user",
	ResultUserUnreachable:        "DS timeout, user cannot be reached",
	ResultInvalidInitiator:       "The initiator information is invalid",
	ResultPushRequestErrorLegacy: "An error occurred while sending the push request",
}

// Description returns a human readable description of the code
func (r ResultCode) Description() string {
	if desc, ok := resultCodeDescriptions[r]; ok {
		return desc
	}
	return "Unknown result code"
}

// IsKnown reports whether the code is in the documented table
func (r ResultCode) IsKnown() bool {
	_, ok := resultCodeDescriptions[r]
	return ok
}

// IsSuccess reports whether the code signals a completed payment
func (r ResultCode) IsSuccess() bool {
	return r == ResultSuccess
}

// IsRetryable reports whether the customer may be prompted again.
// Callers decide; the client never retries on its own.
func (r ResultCode) IsRetryable() bool {
	switch r {
	case ResultTransactionInProgress, ResultTransactionExpired, ResultUserUnreachable, ResultPushRequestError, ResultPushRequestErrorLegacy:
		return true
	default:
		return false
	}
}

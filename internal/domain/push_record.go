package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPushNotFound is returned when no record exists for a checkout request ID
var ErrPushNotFound = errors.New("stk push not found")

// PushStatus tracks an STK Push from acknowledgement to callback
type PushStatus string

const (
	PushStatusPending   PushStatus = "pending"   // acknowledged, no callback yet
	PushStatusCompleted PushStatus = "completed" // callback with ResultCode 0
	PushStatusFailed    PushStatus = "failed"    // callback with any other ResultCode
)

// PushRecord is the persisted view of one STK Push keyed by CheckoutRequestID
type PushRecord struct {
	CheckoutRequestID string
	MerchantRequestID string
	DispatchID        string
	BusinessShortCode string
	PhoneNumber       string
	AccountReference  string
	RequestedAmount   string
	Status            PushStatus
	ResultCode        *int
	ResultDesc        *string
	ReceiptNumber     *string
	PaidAmount        *decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StatusForResult maps a callback result code to a record status
func StatusForResult(code ResultCode) PushStatus {
	if code.IsSuccess() {
		return PushStatusCompleted
	}
	return PushStatusFailed
}

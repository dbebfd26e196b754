package domain

import (
	"encoding/json"
	"fmt"
)

// TransactionType is the STK Push transaction kind
type TransactionType int

const (
	TransactionTypePayBillOnline TransactionType = iota
	TransactionTypeBuyGoodsOnline
)

// String returns the protocol name of the transaction type
func (t TransactionType) String() string {
	switch t {
	case TransactionTypeBuyGoodsOnline:
		return "CustomerBuyGoodsOnline"
	default:
		return "CustomerPayBillOnline"
	}
}

// ParseTransactionType maps a protocol name to a TransactionType
func ParseTransactionType(value string) (TransactionType, error) {
	switch value {
	case "", "CustomerPayBillOnline":
		return TransactionTypePayBillOnline, nil
	case "CustomerBuyGoodsOnline":
		return TransactionTypeBuyGoodsOnline, nil
	default:
		return TransactionTypePayBillOnline, fmt.Errorf("unsupported transaction type %q", value)
	}
}

// MarshalJSON encodes the protocol name
func (t TransactionType) MarshalJSON() ([]byte, error) {
	if t != TransactionTypePayBillOnline && t != TransactionTypeBuyGoodsOnline {
		return nil, fmt.Errorf("unsupported transaction type %d", int(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the protocol name
func (t *TransactionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTransactionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// PaymentRequest is a single STK Push initiation.
// Password and Timestamp are derived by the client and overwritten on dispatch.
type PaymentRequest struct {
	BusinessShortCode string          `json:"BusinessShortCode"`
	Password          string          `json:"Password"`
	Timestamp         string          `json:"Timestamp"`
	TransactionType   TransactionType `json:"TransactionType"`
	Amount            string          `json:"Amount"`
	PartyA            string          `json:"PartyA"` // payer phone, 254XXXXXXXXX
	PartyB            string          `json:"PartyB"` // receiving short code
	PhoneNumber       string          `json:"PhoneNumber"`
	CallBackURL       string          `json:"CallBackURL"`
	AccountReference  string          `json:"AccountReference"`
	TransactionDesc   string          `json:"TransactionDesc"`
}

// PaymentAck is the synchronous acknowledgement of an accepted STK Push
type PaymentAck struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

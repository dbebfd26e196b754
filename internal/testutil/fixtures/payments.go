package fixtures

import (
	"encoding/json"
	"fmt"

	"github.com/kevin07696/mpesa-stk/internal/domain"
)

// Sandbox test credentials published in the Daraja documentation
const (
	SandboxShortCode = "174379"
	SandboxPasskey   = "bfb279f9aa9bdbcf158e97dd71a467cd2e0c893059b10f78e6b72ada1ed2c919"
	SandboxPhone     = "254708374149"
)

// PaymentRequestBuilder provides fluent API for building test STK requests.
type PaymentRequestBuilder struct {
	req domain.PaymentRequest
}

// NewPaymentRequest creates a builder with a valid PayBill request.
func NewPaymentRequest() *PaymentRequestBuilder {
	return &PaymentRequestBuilder{
		req: domain.PaymentRequest{
			BusinessShortCode: SandboxShortCode,
			TransactionType:   domain.TransactionTypePayBillOnline,
			Amount:            "1",
			PartyA:            SandboxPhone,
			PartyB:            SandboxShortCode,
			PhoneNumber:       SandboxPhone,
			CallBackURL:       "https://example.co.ke/mpesa/callback",
			AccountReference:  "INV-001",
			TransactionDesc:   "Payment",
		},
	}
}

func (b *PaymentRequestBuilder) WithShortCode(code string) *PaymentRequestBuilder {
	b.req.BusinessShortCode = code
	b.req.PartyB = code
	return b
}

func (b *PaymentRequestBuilder) WithAmount(amount string) *PaymentRequestBuilder {
	b.req.Amount = amount
	return b
}

func (b *PaymentRequestBuilder) WithPhone(phone string) *PaymentRequestBuilder {
	b.req.PartyA = phone
	b.req.PhoneNumber = phone
	return b
}

func (b *PaymentRequestBuilder) WithCallbackURL(url string) *PaymentRequestBuilder {
	b.req.CallBackURL = url
	return b
}

func (b *PaymentRequestBuilder) WithBuyGoods(till string) *PaymentRequestBuilder {
	b.req.TransactionType = domain.TransactionTypeBuyGoodsOnline
	b.req.PartyB = till
	return b
}

// WithCredentials sets the derived fields, for validator tests that bypass the dispatcher.
func (b *PaymentRequestBuilder) WithCredentials(password, timestamp string) *PaymentRequestBuilder {
	b.req.Password = password
	b.req.Timestamp = timestamp
	return b
}

func (b *PaymentRequestBuilder) Build() domain.PaymentRequest {
	return b.req
}

// AckBody returns a Daraja acknowledgement body for the given checkout ID.
func AckBody(checkoutRequestID string) []byte {
	return []byte(fmt.Sprintf(`{
		"MerchantRequestID": "29115-34620561-1",
		"CheckoutRequestID": %q,
		"ResponseCode": "0",
		"ResponseDescription": "Success. Request accepted for processing",
		"CustomerMessage": "Success. Request accepted for processing"
	}`, checkoutRequestID))
}

// TokenBody returns an OAuth success body.
func TokenBody(token string, expiresIn int) []byte {
	return []byte(fmt.Sprintf(`{"access_token":%q,"expires_in":"%d"}`, token, expiresIn))
}

// CallbackItem is a metadata entry for CallbackBody.
type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// CallbackBody builds an STK webhook body.
func CallbackBody(checkoutRequestID string, resultCode int, items ...CallbackItem) []byte {
	cb := map[string]interface{}{
		"MerchantRequestID": "29115-34620561-1",
		"CheckoutRequestID": checkoutRequestID,
		"ResultCode":        resultCode,
		"ResultDesc":        "The service request is processed successfully.",
	}
	if len(items) > 0 {
		cb["CallbackMetadata"] = map[string]interface{}{"Item": items}
	}

	body, err := json.Marshal(map[string]interface{}{
		"Body": map[string]interface{}{"stkCallback": cb},
	})
	if err != nil {
		panic(err)
	}
	return body
}

// SuccessfulCallbackItems returns the metadata M-Pesa sends for a completed payment.
func SuccessfulCallbackItems() []CallbackItem {
	return []CallbackItem{
		{Name: "Amount", Value: json.Number("1.00")},
		{Name: "MpesaReceiptNumber", Value: "NLJ7RT61SV"},
		{Name: "Balance"},
		{Name: "TransactionDate", Value: 20191219102115},
		{Name: "PhoneNumber", Value: 254708374149},
	}
}

package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/mpesa-stk/internal/domain"
	"github.com/kevin07696/mpesa-stk/internal/testutil/fixtures"
)

const successfulCallback = `{
	"Body": {
		"stkCallback": {
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_191220191020363925",
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"CallbackMetadata": {
				"Item": [
					{"Name": "Amount", "Value": 10.0},
					{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
					{"Name": "Balance"},
					{"Name": "TransactionDate", "Value": 20191219102115},
					{"Name": "PhoneNumber", "Value": 254708374149}
				]
			}
		}
	}
}`

func TestParseCallback_Success(t *testing.T) {
	cb, err := ParseCallback([]byte(successfulCallback))
	require.NoError(t, err)

	assert.Equal(t, "29115-34620561-1", cb.MerchantRequestID)
	assert.Equal(t, "ws_CO_191220191020363925", cb.CheckoutRequestID)
	assert.Equal(t, domain.ResultSuccess, cb.ResultCode)
	assert.True(t, cb.Succeeded())
	require.Len(t, cb.Items, 5)

	amount, ok := cb.Amount()
	assert.True(t, ok)
	assert.Equal(t, 10.0, amount)

	receipt, ok := cb.ReceiptNumber()
	assert.True(t, ok)
	assert.Equal(t, "NLJ7RT61SV", receipt)

	date, ok := cb.TransactionDate()
	assert.True(t, ok)
	assert.Equal(t, int64(20191219102115), date)

	phone, ok := cb.PhoneNumber()
	assert.True(t, ok)
	assert.Equal(t, "254708374149", phone)

	balance, ok := cb.Metadata(domain.MetadataBalance)
	assert.True(t, ok)
	assert.Equal(t, domain.TextValue("null"), balance)

	assert.Equal(t, "Amount", cb.Items[0].Name)
	assert.Equal(t, "PhoneNumber", cb.Items[4].Name)
}

func TestParseCallback_CancelledWithoutMetadata(t *testing.T) {
	body := fixtures.CallbackBody("ws_CO_cancelled", 1032)

	cb, err := ParseCallback(body)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultCancelledByUser, cb.ResultCode)
	assert.False(t, cb.Succeeded())
	assert.Empty(t, cb.Items)

	_, ok := cb.Amount()
	assert.False(t, ok)
}

func TestParseCallback_UnknownResultCodeKept(t *testing.T) {
	cb, err := ParseCallback(fixtures.CallbackBody("ws_CO_x", 4999))
	require.NoError(t, err)
	assert.Equal(t, domain.ResultCode(4999), cb.ResultCode)
	assert.False(t, cb.ResultCode.IsKnown())
}

func TestParseCallback_FixtureItems(t *testing.T) {
	cb, err := ParseCallback(fixtures.CallbackBody("ws_CO_fixture", 0, fixtures.SuccessfulCallbackItems()...))
	require.NoError(t, err)

	amount, ok := cb.Metadata(domain.MetadataAmount)
	require.True(t, ok)
	assert.Equal(t, domain.MetadataFloat, amount.Kind)
	assert.Equal(t, 1.0, amount.Float)
}

func TestParseCallback_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"Body":`},
		{"empty object", `{}`},
		{"missing stkCallback", `{"Body":{}}`},
		{"missing merchant id", `{"Body":{"stkCallback":{"CheckoutRequestID":"c","ResultCode":0,"ResultDesc":"d"}}}`},
		{"missing checkout id", `{"Body":{"stkCallback":{"MerchantRequestID":"m","ResultCode":0,"ResultDesc":"d"}}}`},
		{"missing result code", `{"Body":{"stkCallback":{"MerchantRequestID":"m","CheckoutRequestID":"c","ResultDesc":"d"}}}`},
		{"string result code", `{"Body":{"stkCallback":{"MerchantRequestID":"m","CheckoutRequestID":"c","ResultCode":"0","ResultDesc":"d"}}}`},
		{"fractional result code", `{"Body":{"stkCallback":{"MerchantRequestID":"m","CheckoutRequestID":"c","ResultCode":1.5,"ResultDesc":"d"}}}`},
		{"missing result desc", `{"Body":{"stkCallback":{"MerchantRequestID":"m","CheckoutRequestID":"c","ResultCode":0}}}`},
		{"wrong id type", `{"Body":{"stkCallback":{"MerchantRequestID":7,"CheckoutRequestID":"c","ResultCode":0,"ResultDesc":"d"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := ParseCallback([]byte(tt.body))
			require.Error(t, err)
			assert.Nil(t, cb)
			assert.Equal(t, domain.ErrorCodeParseError, domain.GetErrorCode(err))
		})
	}
}

func TestMetadataValue_Typing(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.MetadataValue
	}{
		{`10.0`, domain.FloatValue(10)},
		{`1e3`, domain.FloatValue(1000)},
		{`-2.5E-1`, domain.FloatValue(-0.25)},
		{`42`, domain.IntegerValue(42)},
		{`-7`, domain.IntegerValue(-7)},
		{`99999999999999999999`, domain.FloatValue(1e20)},
		{`"NLJ7RT61SV"`, domain.TextValue("NLJ7RT61SV")},
		{`""`, domain.TextValue("")},
		{`true`, domain.TextValue("true")},
		{`null`, domain.TextValue("null")},
		{`{ "a" : [1, 2] }`, domain.TextValue(`{"a":[1,2]}`)},
		{``, domain.TextValue("null")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, metadataValue([]byte(tt.raw)))
		})
	}
}

package mpesa

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/kevin07696/mpesa-stk/internal/domain"
)

type callbackEnvelope struct {
	Body *struct {
		STKCallback *stkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type stkCallback struct {
	MerchantRequestID *string          `json:"MerchantRequestID"`
	CheckoutRequestID *string          `json:"CheckoutRequestID"`
	ResultCode        *json.RawMessage `json:"ResultCode"`
	ResultDesc        *string          `json:"ResultDesc"`
	CallbackMetadata  *struct {
		Item []struct {
			Name  string          `json:"Name"`
			Value json.RawMessage `json:"Value"`
		} `json:"Item"`
	} `json:"CallbackMetadata"`
}

func parseFailure(msg string) error {
	return domain.NewDomainError(domain.ErrorCodeParseError, msg)
}

// ParseCallback decodes the STK webhook body found at Body.stkCallback.
// Metadata values are typed by their JSON shape; accessors never fail the parse.
func ParseCallback(raw []byte) (*domain.PaymentCallback, error) {
	var envelope callbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeParseError, "invalid callback JSON", err)
	}
	if envelope.Body == nil || envelope.Body.STKCallback == nil {
		return nil, parseFailure("callback missing Body.stkCallback")
	}
	cb := envelope.Body.STKCallback

	switch {
	case cb.MerchantRequestID == nil:
		return nil, parseFailure("callback missing MerchantRequestID")
	case cb.CheckoutRequestID == nil:
		return nil, parseFailure("callback missing CheckoutRequestID")
	case cb.ResultCode == nil:
		return nil, parseFailure("callback missing ResultCode")
	case cb.ResultDesc == nil:
		return nil, parseFailure("callback missing ResultDesc")
	}

	resultCode, err := strconv.Atoi(string(bytes.TrimSpace(*cb.ResultCode)))
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeParseError, "callback ResultCode is not an integer", err)
	}

	result := &domain.PaymentCallback{
		MerchantRequestID: *cb.MerchantRequestID,
		CheckoutRequestID: *cb.CheckoutRequestID,
		ResultCode:        domain.ResultCode(resultCode),
		ResultDesc:        *cb.ResultDesc,
	}

	if cb.CallbackMetadata != nil {
		result.Items = make([]domain.CallbackItem, 0, len(cb.CallbackMetadata.Item))
		for _, item := range cb.CallbackMetadata.Item {
			result.Items = append(result.Items, domain.CallbackItem{
				Name:  item.Name,
				Value: metadataValue(item.Value),
			})
		}
	}

	return result, nil
}

// metadataValue types a raw JSON value: numbers with a fraction or exponent
// are floats, other numbers integers, strings text, anything else its compact JSON.
func metadataValue(raw json.RawMessage) domain.MetadataValue {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return domain.TextValue("null")
	}

	switch c := trimmed[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return domain.TextValue(s)
		}
	case c == '-' || (c >= '0' && c <= '9'):
		text := string(trimmed)
		if !bytes.ContainsAny(trimmed, ".eE") {
			if n, err := strconv.ParseInt(text, 10, 64); err == nil {
				return domain.IntegerValue(n)
			}
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return domain.FloatValue(f)
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return domain.TextValue(string(trimmed))
	}
	return domain.TextValue(compact.String())
}

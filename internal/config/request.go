package config

import (
	"encoding/json"
	"os"

	"github.com/kevin07696/mpesa-stk/internal/adapters/mpesa"
	"github.com/kevin07696/mpesa-stk/internal/domain"
)

// requestFile accepts Amount as a JSON number or a numeric string
type requestFile struct {
	domain.PaymentRequest
	Amount json.Number `json:"Amount"`
}

// LoadPaymentRequestFromFile reads a protocol-named STK Push request.
// Both phone fields are normalized to 254XXXXXXXXX; Password and Timestamp
// are ignored since the client derives them.
func LoadPaymentRequestFromFile(path string) (*domain.PaymentRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeConfigError, "unable to read request file: "+path, err)
	}

	var f requestFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeParseError, "failed to parse request file", err)
	}

	req := f.PaymentRequest
	req.Amount = f.Amount.String()
	req.Password = ""
	req.Timestamp = ""

	if req.PartyA, err = mpesa.FormatPhoneNumber(req.PartyA); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeValidationError, "invalid PartyA", err).
			WithDetail("field", "PartyA")
	}
	if req.PhoneNumber, err = mpesa.FormatPhoneNumber(req.PhoneNumber); err != nil {
		return nil, err
	}

	return &req, nil
}

package mpesa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kevin07696/mpesa-stk/internal/adapters/ports"
	"github.com/kevin07696/mpesa-stk/internal/domain"
)

// apiErrorCodes maps Daraja errorCode values to the taxonomy
var apiErrorCodes = map[string]domain.ErrorCode{
	"400.008.02":   domain.ErrorCodeInvalidGrantType,
	"400.008.01":   domain.ErrorCodeInvalidAuthType,
	"401.002.01":   domain.ErrorCodeInvalidCredentials,
	"500.001.1001": domain.ErrorCodeServerError,
	"404.001.03":   domain.ErrorCodeTokenExpired, // Invalid Access Token
}

// ClassifyAPIError maps a Daraja errorCode. Unknown codes are ErrorCodeAPIError, never success.
func ClassifyAPIError(code string) domain.ErrorCode {
	if mapped, ok := apiErrorCodes[code]; ok {
		return mapped
	}
	return domain.ErrorCodeAPIError
}

// ClassifyTransportError maps a failed exchange to the network band
func ClassifyTransportError(err error) domain.ErrorCode {
	var tErr *ports.TransportError
	if errors.As(err, &tErr) {
		switch tErr.Kind {
		case ports.TransportErrorDNS:
			return domain.ErrorCodeDNSError
		case ports.TransportErrorConnect:
			return domain.ErrorCodeConnectionError
		case ports.TransportErrorTimeout:
			return domain.ErrorCodeTimeoutError
		case ports.TransportErrorTLS:
			return domain.ErrorCodeTLSError
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorCodeTimeoutError
	}
	return domain.ErrorCodeNetworkError
}

// apiErrorBody is the Daraja failure payload
type apiErrorBody struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// parseAPIError extracts an API error from a body, reporting false when none is present
func parseAPIError(body []byte) (*apiErrorBody, bool) {
	var apiErr apiErrorBody
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return nil, false
	}
	if apiErr.ErrorCode == "" {
		return nil, false
	}
	return &apiErr, true
}

// transportFailure wraps a transport error with its taxonomy code
func transportFailure(op string, err error) *domain.DomainError {
	return domain.WrapError(ClassifyTransportError(err), op+" failed", err)
}

// apiFailure builds the error for a Daraja error payload
func apiFailure(apiErr *apiErrorBody) *domain.DomainError {
	return domain.NewDomainError(
		ClassifyAPIError(apiErr.ErrorCode),
		fmt.Sprintf("API error: %s (code: %s)", apiErr.ErrorMessage, apiErr.ErrorCode),
	).WithDetail("error_code", apiErr.ErrorCode).WithDetail("request_id", apiErr.RequestID)
}

package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is the closed failure taxonomy shared by every M-Pesa operation.
// Codes are grouped in bands of one hundred.
type ErrorCode int

const (
	ErrorCodeSuccess ErrorCode = 0

	// Network and transport errors (100-199)
	ErrorCodeNetworkError    ErrorCode = 100
	ErrorCodeDNSError        ErrorCode = 101
	ErrorCodeConnectionError ErrorCode = 102
	ErrorCodeTimeoutError    ErrorCode = 103
	ErrorCodeTLSError        ErrorCode = 104

	// Authentication and protocol errors (200-299)
	ErrorCodeInvalidCredentials ErrorCode = 200 // 401.002.01
	ErrorCodeInvalidGrantType   ErrorCode = 201 // 400.008.02
	ErrorCodeInvalidAuthType    ErrorCode = 202 // 400.008.01
	ErrorCodeTokenExpired       ErrorCode = 203

	// Server-side errors (300-399)
	ErrorCodeServerError ErrorCode = 300 // 500.001.1001
	ErrorCodeHTTPError   ErrorCode = 301
	ErrorCodeAPIError    ErrorCode = 302 // unrecognized API error code

	// Client-side errors (400-499)
	ErrorCodeInitializationError ErrorCode = 400
	ErrorCodeConfigError         ErrorCode = 401
	ErrorCodeParseError          ErrorCode = 402
	ErrorCodeValidationError     ErrorCode = 403

	// Internal errors (500-599)
	ErrorCodeInternalError ErrorCode = 500
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCodeSuccess:             "SUCCESS",
	ErrorCodeNetworkError:        "NETWORK_ERROR",
	ErrorCodeDNSError:            "DNS_ERROR",
	ErrorCodeConnectionError:     "CONNECTION_ERROR",
	ErrorCodeTimeoutError:        "TIMEOUT_ERROR",
	ErrorCodeTLSError:            "TLS_ERROR",
	ErrorCodeInvalidCredentials:  "INVALID_CREDENTIALS",
	ErrorCodeInvalidGrantType:    "INVALID_GRANT_TYPE",
	ErrorCodeInvalidAuthType:     "INVALID_AUTH_TYPE",
	ErrorCodeTokenExpired:        "TOKEN_EXPIRED",
	ErrorCodeServerError:         "SERVER_ERROR",
	ErrorCodeHTTPError:           "HTTP_ERROR",
	ErrorCodeAPIError:            "API_ERROR",
	ErrorCodeInitializationError: "INITIALIZATION_ERROR",
	ErrorCodeConfigError:         "CONFIG_ERROR",
	ErrorCodeParseError:          "PARSE_ERROR",
	ErrorCodeValidationError:     "VALIDATION_ERROR",
	ErrorCodeInternalError:       "INTERNAL_ERROR",
}

// String returns the upper snake case name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ERROR_%d", int(c))
}

// Band returns the taxonomy band the code belongs to
func (c ErrorCode) Band() string {
	switch {
	case c == ErrorCodeSuccess:
		return "success"
	case c >= 100 && c < 200:
		return "network"
	case c >= 200 && c < 300:
		return "auth"
	case c >= 300 && c < 400:
		return "server"
	case c >= 400 && c < 500:
		return "client"
	default:
		return "internal"
	}
}

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the taxonomy code from an error.
// nil maps to success; errors outside the taxonomy map to ErrorCodeInternalError.
func GetErrorCode(err error) ErrorCode {
	if err == nil {
		return ErrorCodeSuccess
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrorCodeInternalError
}

// IsNetworkError reports whether err belongs to the network band
func IsNetworkError(err error) bool {
	return err != nil && GetErrorCode(err).Band() == "network"
}

// IsAuthError reports whether err belongs to the authentication band
func IsAuthError(err error) bool {
	return err != nil && GetErrorCode(err).Band() == "auth"
}

// IsValidationError checks if an error is a request validation error
func IsValidationError(err error) bool {
	return IsDomainError(err, ErrorCodeValidationError)
}

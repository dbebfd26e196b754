package ports

import (
	"context"
	"net/http"
)

// HTTPClient is a minimal HTTP client interface for making requests
// This allows for easy mocking and testing of adapters
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPRequest is a single outbound exchange
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse carries the status and fully read body of an exchange
type HTTPResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string][]string
}

// Transport performs one blocking request/response exchange.
// Implementations release every per-call resource before returning and
// report transport-level failures as *TransportError.
type Transport interface {
	Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error)
}

// TransportErrorKind identifies why an exchange never produced a response
type TransportErrorKind int

const (
	TransportErrorOther TransportErrorKind = iota
	TransportErrorDNS
	TransportErrorConnect
	TransportErrorTimeout
	TransportErrorTLS
)

func (k TransportErrorKind) String() string {
	switch k {
	case TransportErrorDNS:
		return "dns"
	case TransportErrorConnect:
		return "connect"
	case TransportErrorTimeout:
		return "timeout"
	case TransportErrorTLS:
		return "tls"
	default:
		return "network"
	}
}

// TransportError is a failure below the HTTP layer
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return e.Kind.String() + " failure: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

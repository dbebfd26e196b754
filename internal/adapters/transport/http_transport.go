package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/mpesa-stk/internal/adapters/ports"
	pkghttp "github.com/kevin07696/mpesa-stk/pkg/http"
)

// maxResponseBytes caps how much of a Daraja response body is read
const maxResponseBytes = 1 << 20

// Config holds transport configuration
type Config struct {
	Timeout time.Duration // Total per-exchange budget
}

// DefaultConfig returns the ~30s total budget used against M-Pesa
func DefaultConfig() *Config {
	return &Config{Timeout: 30 * time.Second}
}

// HTTPTransport implements ports.Transport over net/http
type HTTPTransport struct {
	client ports.HTTPClient
	closer interface{ CloseIdleConnections() }
	logger *zap.Logger
}

// NewHTTPTransport creates a transport with the M-Pesa tuned client
func NewHTTPTransport(cfg *Config, logger *zap.Logger) *HTTPTransport {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	client := pkghttp.NewHTTPClient(pkghttp.MpesaClientConfig(), cfg.Timeout)
	return NewHTTPTransportWithClient(client, logger)
}

// NewHTTPTransportWithClient creates a transport with a custom HTTP client (for testing)
func NewHTTPTransportWithClient(client ports.HTTPClient, logger *zap.Logger) *HTTPTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &HTTPTransport{
		client: client,
		logger: logger,
	}
	if c, ok := client.(interface{ CloseIdleConnections() }); ok {
		t.closer = c
	}
	return t
}

// Do performs one exchange. The response body is always drained and closed.
func (t *HTTPTransport) Do(ctx context.Context, req *ports.HTTPRequest) (*ports.HTTPResponse, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		tErr := &ports.TransportError{Kind: ClassifyError(err), Err: err}
		t.logger.Warn("HTTP exchange failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.String("kind", tErr.Kind.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, tErr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ports.TransportError{Kind: ClassifyError(err), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	t.logger.Debug("HTTP exchange completed",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &ports.HTTPResponse{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    resp.Header,
	}, nil
}

// Close releases idle pooled connections
func (t *HTTPTransport) Close() error {
	if t.closer != nil {
		t.closer.CloseIdleConnections()
	}
	return nil
}

// ClassifyError determines the transport failure kind of a client error
func ClassifyError(err error) ports.TransportErrorKind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ports.TransportErrorTimeout
		}
		return ports.TransportErrorDNS
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ports.TransportErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ports.TransportErrorTimeout
	}

	if isTLSError(err) {
		return ports.TransportErrorTLS
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return ports.TransportErrorConnect
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ports.TransportErrorConnect
	}

	return ports.TransportErrorOther
}

func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var certInvalid x509.CertificateInvalidError
	return errors.As(err, &certInvalid)
}

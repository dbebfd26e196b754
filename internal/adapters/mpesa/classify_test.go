package mpesa

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kevin07696/mpesa-stk/internal/adapters/ports"
	"github.com/kevin07696/mpesa-stk/internal/domain"
)

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		code string
		want domain.ErrorCode
	}{
		{"400.008.02", domain.ErrorCodeInvalidGrantType},
		{"400.008.01", domain.ErrorCodeInvalidAuthType},
		{"401.002.01", domain.ErrorCodeInvalidCredentials},
		{"500.001.1001", domain.ErrorCodeServerError},
		{"404.001.03", domain.ErrorCodeTokenExpired},
		{"400.002.02", domain.ErrorCodeAPIError},
		{"", domain.ErrorCodeAPIError},
		{"0", domain.ErrorCodeAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := ClassifyAPIError(tt.code)
			assert.Equal(t, tt.want, got)
			assert.NotEqual(t, domain.ErrorCodeSuccess, got)
		})
	}
}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorCode
	}{
		{"dns", &ports.TransportError{Kind: ports.TransportErrorDNS, Err: errors.New("no such host")}, domain.ErrorCodeDNSError},
		{"connect", &ports.TransportError{Kind: ports.TransportErrorConnect, Err: errors.New("refused")}, domain.ErrorCodeConnectionError},
		{"timeout", &ports.TransportError{Kind: ports.TransportErrorTimeout, Err: errors.New("slow")}, domain.ErrorCodeTimeoutError},
		{"tls", &ports.TransportError{Kind: ports.TransportErrorTLS, Err: errors.New("bad cert")}, domain.ErrorCodeTLSError},
		{"other kind", &ports.TransportError{Kind: ports.TransportErrorOther, Err: errors.New("reset")}, domain.ErrorCodeNetworkError},
		{"wrapped", fmt.Errorf("outer: %w", &ports.TransportError{Kind: ports.TransportErrorTLS, Err: errors.New("x")}), domain.ErrorCodeTLSError},
		{"bare deadline", context.DeadlineExceeded, domain.ErrorCodeTimeoutError},
		{"plain error", errors.New("boom"), domain.ErrorCodeNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTransportError(tt.err))
		})
	}
}

func TestParseAPIError(t *testing.T) {
	apiErr, ok := parseAPIError([]byte(`{"requestId":"1-2","errorCode":"404.001.03","errorMessage":"Invalid Access Token"}`))
	assert.True(t, ok)
	assert.Equal(t, "404.001.03", apiErr.ErrorCode)

	_, ok = parseAPIError([]byte(`<html>bad gateway</html>`))
	assert.False(t, ok)

	_, ok = parseAPIError([]byte(`{"errorMessage":"no code"}`))
	assert.False(t, ok)
}

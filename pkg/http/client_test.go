package http

import (
	"crypto/tls"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMpesaClientConfig(t *testing.T) {
	cfg := MpesaClientConfig()
	assert.Equal(t, 10*time.Second, cfg.DialTimeout)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinTLSVersion)
	assert.False(t, cfg.InsecureSkipVerify)
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(MpesaClientConfig(), 30*time.Second)
	assert.Equal(t, 30*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 50, transport.MaxIdleConnsPerHost)
	assert.Equal(t, uint16(tls.VersionTLS12), transport.TLSClientConfig.MinVersion)
}

func TestNewHTTPClient_NilConfigUsesDefault(t *testing.T) {
	client := NewHTTPClient(nil, time.Second)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 10, transport.MaxIdleConnsPerHost)
}

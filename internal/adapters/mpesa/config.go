package mpesa

import (
	"strings"
	"time"

	"github.com/kevin07696/mpesa-stk/internal/domain"
	"github.com/kevin07696/mpesa-stk/pkg/timeutil"
)

const (
	SandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	ProductionBaseURL = "https://api.safaricom.co.ke"

	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"
)

// ClientConfig contains M-Pesa endpoint configuration
type ClientConfig struct {
	BaseURL string           // Daraja host without trailing slash
	Now     func() time.Time // Clock used for token expiry and timestamps
}

// DefaultClientConfig returns the endpoint configuration for an environment
func DefaultClientConfig(env domain.Environment) *ClientConfig {
	baseURL := SandboxBaseURL
	if env == domain.EnvironmentProduction {
		baseURL = ProductionBaseURL
	}
	return &ClientConfig{
		BaseURL: baseURL,
		Now:     timeutil.Now,
	}
}

func (c *ClientConfig) now() time.Time {
	if c.Now == nil {
		return timeutil.Now()
	}
	return c.Now()
}

func (c *ClientConfig) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

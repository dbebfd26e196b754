package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/mpesa-stk/internal/adapters/ports"
	"github.com/kevin07696/mpesa-stk/internal/domain"
	"github.com/kevin07696/mpesa-stk/pkg/observability"
)

// TokenState describes the cached OAuth token
type TokenState int

const (
	TokenUnset TokenState = iota
	TokenValid
	TokenExpired
)

func (s TokenState) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	default:
		return "unset"
	}
}

// TokenManager caches the Daraja OAuth token and refreshes it on expiry.
// One mutex covers the whole GetToken call, so concurrent refreshes serialize
// and waiters reuse the token produced by whichever refresh ran first.
type TokenManager struct {
	auth      domain.AuthConfig
	config    *ClientConfig
	transport ports.Transport
	logger    *zap.Logger

	mu        sync.Mutex
	token     string
	hasToken  bool
	expiresAt time.Time
	lastError domain.ErrorCode
}

// NewTokenManager creates a token manager. A nil cfg selects the endpoint for auth.Environment.
func NewTokenManager(auth domain.AuthConfig, cfg *ClientConfig, transport ports.Transport, logger *zap.Logger) *TokenManager {
	if cfg == nil {
		cfg = DefaultClientConfig(auth.Environment)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenManager{
		auth:      auth,
		config:    cfg,
		transport: transport,
		logger:    logger,
		lastError: domain.ErrorCodeSuccess,
	}
}

// tokenResponse is the OAuth success body. expires_in is documented as a
// string but is accepted as a JSON number too.
type tokenResponse struct {
	AccessToken *string         `json:"access_token"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
}

// GetToken returns a valid bearer token, refreshing it first when needed
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stateLocked() == TokenValid {
		return m.token, nil
	}
	return m.refreshLocked(ctx)
}

// Refresh forces a new token regardless of the cached state
func (m *TokenManager) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refreshLocked(ctx)
}

// IsValid reports whether the cached token is still usable
func (m *TokenManager) IsValid() bool {
	return m.State() == TokenValid
}

// State returns the current token state
func (m *TokenManager) State() TokenState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stateLocked()
}

// LastError returns the outcome of the most recent refresh attempt
func (m *TokenManager) LastError() domain.ErrorCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastError
}

// BaseURL returns the Daraja host in use
func (m *TokenManager) BaseURL() string {
	return m.config.BaseURL
}

// Config returns the credentials the manager was built with
func (m *TokenManager) Config() domain.AuthConfig {
	return m.auth
}

func (m *TokenManager) stateLocked() TokenState {
	if !m.hasToken {
		return TokenUnset
	}
	if m.config.now().Before(m.expiresAt) {
		return TokenValid
	}
	return TokenExpired
}

// refreshLocked performs the token exchange. Cached state only changes on success.
func (m *TokenManager) refreshLocked(ctx context.Context) (string, error) {
	credentials := base64.StdEncoding.EncodeToString([]byte(m.auth.ConsumerKey + ":" + m.auth.ConsumerSecret))

	resp, err := m.transport.Do(ctx, &ports.HTTPRequest{
		Method: http.MethodGet,
		URL:    m.config.url(tokenPath),
		Headers: map[string]string{
			"Authorization": "Basic " + credentials,
		},
	})
	if err != nil {
		return "", m.fail(transportFailure("token request", err))
	}

	if resp.StatusCode >= 400 {
		domainErr := domain.NewDomainError(domain.ErrorCodeHTTPError, fmt.Sprintf("HTTP error: %d", resp.StatusCode)).
			WithDetail("status_code", resp.StatusCode)
		if apiErr, ok := parseAPIError(resp.Body); ok {
			domainErr.WithDetail("error_code", apiErr.ErrorCode).WithDetail("error_message", apiErr.ErrorMessage)
		}
		return "", m.fail(domainErr)
	}

	if apiErr, ok := parseAPIError(resp.Body); ok {
		return "", m.fail(apiFailure(apiErr))
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", m.fail(domain.WrapError(domain.ErrorCodeParseError, "failed to parse token response", err))
	}
	if body.AccessToken == nil || *body.AccessToken == "" {
		return "", m.fail(domain.NewDomainError(domain.ErrorCodeParseError, "token response missing access_token"))
	}
	expiresIn, err := parseExpiresIn(body.ExpiresIn)
	if err != nil {
		return "", m.fail(domain.WrapError(domain.ErrorCodeParseError, "token response has invalid expires_in", err))
	}

	m.token = *body.AccessToken
	m.hasToken = true
	m.expiresAt = m.config.now().Add(expiresIn)
	m.lastError = domain.ErrorCodeSuccess
	observability.RecordTokenRefresh(domain.ErrorCodeSuccess.String())

	m.logger.Info("M-Pesa access token refreshed",
		zap.String("token_prefix", tokenPrefix(m.token)),
		zap.Duration("expires_in", expiresIn),
	)

	return m.token, nil
}

func (m *TokenManager) fail(err *domain.DomainError) error {
	m.lastError = err.Code
	observability.RecordTokenRefresh(err.Code.String())

	m.logger.Error("M-Pesa token refresh failed",
		zap.String("error_code", err.Code.String()),
		zap.Error(err),
	)
	return err
}

func parseExpiresIn(raw json.RawMessage) (time.Duration, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("expires_in is missing")
	}

	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
	}

	seconds, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, err
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("expires_in must be positive, got %d", seconds)
	}
	if seconds > math.MaxInt64/int64(time.Second) {
		return 0, fmt.Errorf("expires_in out of range, got %d", seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

// tokenPrefix returns enough of a token to correlate log lines
func tokenPrefix(token string) string {
	if len(token) <= 6 {
		return "***"
	}
	return token[:6] + "..."
}

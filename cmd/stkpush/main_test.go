package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kevin07696/mpesa-stk/internal/domain"
	"github.com/kevin07696/mpesa-stk/internal/testutil/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const requestJSON = `{
	"BusinessShortCode": "174379",
	"Amount": 1,
	"PartyA": "0708374149",
	"PartyB": "174379",
	"PhoneNumber": "0708374149",
	"CallBackURL": "https://example.co.ke/mpesa/callback",
	"AccountReference": "INV-001",
	"TransactionDesc": "Payment"
}`

func fakeDaraja(t *testing.T, stkStatus int, stkBody []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.True(t, ok)
		_, _ = w.Write(fixtures.TokenBody("tok-1234567890abcdef", 3599))
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1234567890abcdef", r.Header.Get("Authorization"))
		w.WriteHeader(stkStatus)
		_, _ = w.Write(stkBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setEnv(t *testing.T, baseURL string) {
	t.Setenv("MPESA_BASE_URL", baseURL)
	t.Setenv("MPESA_CONSUMER_KEY", "key")
	t.Setenv("MPESA_CONSUMER_SECRET", "secret")
	t.Setenv("MPESA_PASSKEY", fixtures.SandboxPasskey)
	t.Setenv("MPESA_ENVIRONMENT", "sandbox")
	t.Setenv("SECRET_MANAGER", "env")
	t.Setenv("DATABASE_URL", "")
}

func writeRequest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(path, []byte(requestJSON), 0o600))
	return path
}

func TestRun_Push(t *testing.T) {
	srv := fakeDaraja(t, http.StatusOK, fixtures.AckBody("ws_CO_191220191020363925"))
	setEnv(t, srv.URL)

	var out bytes.Buffer
	err := run(context.Background(), options{requestFile: writeRequest(t), timeout: 5 * time.Second}, &out, zap.NewNop())
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"CheckoutRequestID": "ws_CO_191220191020363925"`)
}

func TestRun_TokenOnly(t *testing.T) {
	srv := fakeDaraja(t, http.StatusOK, nil)
	setEnv(t, srv.URL)

	var out bytes.Buffer
	err := run(context.Background(), options{tokenOnly: true}, &out, zap.NewNop())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Token: tok-123456...")
	assert.NotContains(t, out.String(), "tok-1234567890abcdef")
}

func TestRun_APIError(t *testing.T) {
	body := []byte(`{"requestId":"1-2","errorCode":"404.001.03","errorMessage":"Invalid Access Token"}`)
	srv := fakeDaraja(t, http.StatusNotFound, body)
	setEnv(t, srv.URL)

	err := run(context.Background(), options{requestFile: writeRequest(t), timeout: 5 * time.Second}, &bytes.Buffer{}, zap.NewNop())
	assert.Equal(t, domain.ErrorCodeTokenExpired, domain.GetErrorCode(err))
}

func TestRun_MissingCredentials(t *testing.T) {
	setEnv(t, "http://127.0.0.1:1")
	t.Setenv("MPESA_CONSUMER_SECRET", "")

	err := run(context.Background(), options{tokenOnly: true}, &bytes.Buffer{}, zap.NewNop())
	assert.Equal(t, domain.ErrorCodeConfigError, domain.GetErrorCode(err))
}

func TestRun_SaveRequiresDatabase(t *testing.T) {
	srv := fakeDaraja(t, http.StatusOK, fixtures.AckBody("ws_CO_1"))
	setEnv(t, srv.URL)

	err := run(context.Background(), options{requestFile: writeRequest(t), timeout: 5 * time.Second, save: true}, &bytes.Buffer{}, zap.NewNop())
	assert.Equal(t, domain.ErrorCodeConfigError, domain.GetErrorCode(err))
}

func TestInitLogger(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "debug")

	logger, err := initLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestBuildLogger_InvalidOutput(t *testing.T) {
	zapCfg := loggerConfig()
	zapCfg.OutputPaths = []string{filepath.Join(t.TempDir(), "missing", "stkpush.log")}

	logger, err := buildLogger(zapCfg)
	assert.Error(t, err)
	assert.Nil(t, logger)
}

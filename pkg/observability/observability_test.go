package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestHealthChecker_NoDatabase(t *testing.T) {
	h := NewHealthChecker(nil)
	status := h.Check(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "not configured", status.Checks["database"])
}

func TestHealthChecker_Unhealthy(t *testing.T) {
	h := NewHealthChecker(fakePinger{err: errors.New("connection refused")})
	h.AddCheck("mpesa_token", func(ctx context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "unhealthy: connection refused", status.Checks["database"])
	assert.Equal(t, "healthy", status.Checks["mpesa_token"])
}

func TestMetricsMux_Ready(t *testing.T) {
	mux := NewMetricsMux(NewHealthChecker(fakePinger{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordSTKPush(t *testing.T) {
	before := testutil.ToFloat64(stkPushesTotal.WithLabelValues("failure", "VALIDATION_ERROR"))
	RecordSTKPush("failure", "VALIDATION_ERROR", 0.01)
	after := testutil.ToFloat64(stkPushesTotal.WithLabelValues("failure", "VALIDATION_ERROR"))
	assert.Equal(t, before+1, after)
}

func TestRecordCallback_CountsCompletedAmountOnly(t *testing.T) {
	before := testutil.ToFloat64(callbackAmountTotal)
	RecordCallback("completed", "0", 10)
	RecordCallback("failed", "1032", 99)
	assert.Equal(t, before+10, testutil.ToFloat64(callbackAmountTotal))
}

func TestInstrumentHandler_RecordsStatus(t *testing.T) {
	h := InstrumentHandler("/test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/test", "418"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/test", "418")))
}

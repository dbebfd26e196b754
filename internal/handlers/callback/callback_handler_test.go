package callback

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kevin07696/mpesa-stk/internal/domain"
	"github.com/kevin07696/mpesa-stk/internal/testutil/fixtures"
	"github.com/kevin07696/mpesa-stk/internal/testutil/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func postCallback(h *Handler, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mpesa/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleCallback(rec, req)
	return rec
}

func decodeAck(t *testing.T, rec *httptest.ResponseRecorder) ack {
	t.Helper()
	var a ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	return a
}

func TestHandleCallback_Success(t *testing.T) {
	repo := new(mocks.MockPushRepository)
	repo.On("SaveCallback", mock.Anything, mock.MatchedBy(func(cb *domain.PaymentCallback) bool {
		receipt, _ := cb.ReceiptNumber()
		amount, _ := cb.Amount()
		return cb.CheckoutRequestID == "ws_CO_1" && cb.Succeeded() && receipt == "NLJ7RT61SV" && amount == 1.0
	})).Return(nil)

	h := NewHandler(repo, zaptest.NewLogger(t))
	rec := postCallback(h, fixtures.CallbackBody("ws_CO_1", 0, fixtures.SuccessfulCallbackItems()...))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, ack{ResultCode: 0, ResultDesc: "Accepted"}, decodeAck(t, rec))
	repo.AssertExpectations(t)
}

func TestHandleCallback_CancelledByUser(t *testing.T) {
	repo := new(mocks.MockPushRepository)
	repo.On("SaveCallback", mock.Anything, mock.MatchedBy(func(cb *domain.PaymentCallback) bool {
		return cb.ResultCode == domain.ResultCancelledByUser && len(cb.Items) == 0
	})).Return(nil)

	h := NewHandler(repo, zaptest.NewLogger(t))
	rec := postCallback(h, fixtures.CallbackBody("ws_CO_2", 1032))

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestHandleCallback_WithoutRepository(t *testing.T) {
	h := NewHandler(nil, nil)
	rec := postCallback(h, fixtures.CallbackBody("ws_CO_3", 0, fixtures.SuccessfulCallbackItems()...))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleCallback_UnknownResultCodesShareOneSeries(t *testing.T) {
	h := NewHandler(nil, zaptest.NewLogger(t))
	require.Equal(t, http.StatusOK, postCallback(h, fixtures.CallbackBody("ws_CO_5", 987653)).Code)

	before, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "mpesa_callbacks_total")
	require.NoError(t, err)

	for _, code := range []int{987654, 987655, 2147483647} {
		rec := postCallback(h, fixtures.CallbackBody("ws_CO_6", code))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	after, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "mpesa_callbacks_total")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	assert.Equal(t, "unknown", resultCodeLabel(domain.ResultCode(987654)))
	assert.Equal(t, "1032", resultCodeLabel(domain.ResultCancelledByUser))
}

func TestHandleCallback_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"malformed json", http.MethodPost, `{"Body":`, http.StatusBadRequest},
		{"missing stkCallback", http.MethodPost, `{"Body":{}}`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
		{"oversized body", http.MethodPost, strings.Repeat("a", maxCallbackBody+1), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockPushRepository)
			h := NewHandler(repo, zaptest.NewLogger(t))

			req := httptest.NewRequest(tt.method, "/mpesa/callback", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.HandleCallback(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, 1, decodeAck(t, rec).ResultCode)
			repo.AssertNotCalled(t, "SaveCallback", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleCallback_StoreFailure(t *testing.T) {
	repo := new(mocks.MockPushRepository)
	repo.On("SaveCallback", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	h := NewHandler(repo, zaptest.NewLogger(t))
	rec := postCallback(h, fixtures.CallbackBody("ws_CO_4", 0))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, decodeAck(t, rec).ResultCode)
}

func TestHandleGetPush(t *testing.T) {
	paid := decimal.NewFromInt(10)
	code := 0
	receipt := "NLJ7RT61SV"

	repo := new(mocks.MockPushRepository)
	repo.On("Get", mock.Anything, "ws_CO_1").Return(&domain.PushRecord{
		CheckoutRequestID: "ws_CO_1",
		MerchantRequestID: "29115-34620561-1",
		Status:            domain.PushStatusCompleted,
		RequestedAmount:   "10",
		ResultCode:        &code,
		ReceiptNumber:     &receipt,
		PaidAmount:        &paid,
		UpdatedAt:         time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}, nil)
	repo.On("Get", mock.Anything, "missing").Return(nil, domain.ErrPushNotFound)
	repo.On("Get", mock.Anything, "broken").Return(nil, errors.New("db down"))

	mux := http.NewServeMux()
	NewHandler(repo, zaptest.NewLogger(t)).RegisterRoutes(mux, "/mpesa/callback")

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mpesa/pushes/ws_CO_1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var view pushView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, "completed", view.Status)
		require.NotNil(t, view.PaidAmount)
		assert.Equal(t, "10.00", *view.PaidAmount)
		assert.Equal(t, "2026-03-01T10:00:00Z", view.UpdatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mpesa/pushes/missing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mpesa/pushes/broken", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("persistence disabled", func(t *testing.T) {
		disabled := http.NewServeMux()
		NewHandler(nil, nil).RegisterRoutes(disabled, "/mpesa/callback")
		rec := httptest.NewRecorder()
		disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mpesa/pushes/ws_CO_1", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

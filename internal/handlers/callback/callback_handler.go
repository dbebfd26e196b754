package callback

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kevin07696/mpesa-stk/internal/adapters/mpesa"
	"github.com/kevin07696/mpesa-stk/internal/adapters/ports"
	"github.com/kevin07696/mpesa-stk/internal/domain"
	"github.com/kevin07696/mpesa-stk/pkg/observability"
	"go.uber.org/zap"
)

const maxCallbackBody = 1 << 20

// ack is the body M-Pesa expects back from a callback URL
type ack struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// Handler receives STK Push result callbacks from M-Pesa
type Handler struct {
	repo   ports.PushRepository // nil when persistence is disabled
	logger *zap.Logger
}

// NewHandler creates a callback handler. repo may be nil.
func NewHandler(repo ports.PushRepository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// HandleCallback processes an STK Push result
// POST /mpesa/callback
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, ack{ResultCode: 1, ResultDesc: "Method not allowed"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody+1))
	if err != nil {
		h.logger.Warn("Failed to read callback body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, ack{ResultCode: 1, ResultDesc: "Unreadable body"})
		return
	}
	if len(body) > maxCallbackBody {
		writeJSON(w, http.StatusRequestEntityTooLarge, ack{ResultCode: 1, ResultDesc: "Body too large"})
		return
	}

	cb, err := mpesa.ParseCallback(body)
	if err != nil {
		h.logger.Warn("Rejected malformed STK callback",
			zap.Error(err),
			zap.Int("body_size", len(body)),
		)
		observability.RecordCallback("rejected", "parse_error", 0)
		writeJSON(w, http.StatusBadRequest, ack{ResultCode: 1, ResultDesc: "Malformed callback"})
		return
	}

	fields := []zap.Field{
		zap.String("checkout_request_id", cb.CheckoutRequestID),
		zap.String("merchant_request_id", cb.MerchantRequestID),
		zap.Int("result_code", int(cb.ResultCode)),
		zap.String("result_desc", cb.ResultDesc),
	}
	if receipt, ok := cb.ReceiptNumber(); ok {
		fields = append(fields, zap.String("receipt_number", receipt))
	}
	if !cb.Succeeded() {
		fields = append(fields, zap.Bool("retryable", cb.ResultCode.IsRetryable()))
	}
	if !cb.ResultCode.IsKnown() {
		h.logger.Warn("Unknown STK result code", fields...)
	}

	if h.repo != nil {
		if err := h.repo.SaveCallback(r.Context(), cb); err != nil {
			h.logger.Error("Failed to record STK callback", append(fields, zap.Error(err))...)
			observability.RecordCallback("store_error", resultCodeLabel(cb.ResultCode), 0)
			writeJSON(w, http.StatusInternalServerError, ack{ResultCode: 1, ResultDesc: "Temporarily unavailable"})
			return
		}
	}

	status := domain.StatusForResult(cb.ResultCode)
	amount, _ := cb.Amount()
	observability.RecordCallback(string(status), resultCodeLabel(cb.ResultCode), amount)

	h.logger.Info("STK callback received", append(fields, zap.String("status", string(status)))...)
	writeJSON(w, http.StatusOK, ack{ResultCode: 0, ResultDesc: "Accepted"})
}

// resultCodeLabel bounds the metric label to the documented codes
func resultCodeLabel(code domain.ResultCode) string {
	if !code.IsKnown() {
		return "unknown"
	}
	return strconv.Itoa(int(code))
}

// pushView is the JSON shape of a stored push
type pushView struct {
	CheckoutRequestID string  `json:"checkout_request_id"`
	MerchantRequestID string  `json:"merchant_request_id"`
	DispatchID        string  `json:"dispatch_id,omitempty"`
	Status            string  `json:"status"`
	RequestedAmount   string  `json:"requested_amount,omitempty"`
	ResultCode        *int    `json:"result_code,omitempty"`
	ResultDesc        *string `json:"result_desc,omitempty"`
	ReceiptNumber     *string `json:"receipt_number,omitempty"`
	PaidAmount        *string `json:"paid_amount,omitempty"`
	UpdatedAt         string  `json:"updated_at"`
}

// HandleGetPush returns the stored state of a push
// GET /mpesa/pushes/{checkoutRequestID}
func (h *Handler) HandleGetPush(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		http.Error(w, "persistence disabled", http.StatusNotFound)
		return
	}

	id := r.PathValue("checkoutRequestID")
	if id == "" {
		http.Error(w, "checkout request ID is required", http.StatusBadRequest)
		return
	}

	rec, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPushNotFound) {
			http.Error(w, "push not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load STK push",
			zap.String("checkout_request_id", id),
			zap.Error(err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	view := pushView{
		CheckoutRequestID: rec.CheckoutRequestID,
		MerchantRequestID: rec.MerchantRequestID,
		DispatchID:        rec.DispatchID,
		Status:            string(rec.Status),
		RequestedAmount:   rec.RequestedAmount,
		ResultCode:        rec.ResultCode,
		ResultDesc:        rec.ResultDesc,
		ReceiptNumber:     rec.ReceiptNumber,
		UpdatedAt:         rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if rec.PaidAmount != nil {
		s := rec.PaidAmount.StringFixed(2)
		view.PaidAmount = &s
	}
	writeJSON(w, http.StatusOK, view)
}

// RegisterRoutes mounts the handler on mux under callbackPath
func (h *Handler) RegisterRoutes(mux *http.ServeMux, callbackPath string) {
	mux.Handle(callbackPath, observability.InstrumentHandler(callbackPath, http.HandlerFunc(h.HandleCallback)))
	mux.Handle("GET /mpesa/pushes/{checkoutRequestID}",
		observability.InstrumentHandler("/mpesa/pushes", http.HandlerFunc(h.HandleGetPush)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

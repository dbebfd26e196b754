package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/mpesa-stk/internal/adapters/ports"
	"github.com/kevin07696/mpesa-stk/internal/domain"
	"github.com/kevin07696/mpesa-stk/pkg/timeutil"
	"go.uber.org/zap"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS stk_push_requests (
    checkout_request_id TEXT PRIMARY KEY,
    merchant_request_id TEXT NOT NULL DEFAULT '',
    dispatch_id         TEXT NOT NULL DEFAULT '',
    business_short_code TEXT NOT NULL DEFAULT '',
    phone_number        TEXT NOT NULL DEFAULT '',
    account_reference   TEXT NOT NULL DEFAULT '',
    requested_amount    TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL,
    result_code         BIGINT,
    result_desc         TEXT,
    receipt_number      TEXT,
    paid_amount         NUMERIC(19, 2),
    created_at          TIMESTAMPTZ NOT NULL,
    updated_at          TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stk_push_requests_status ON stk_push_requests (status);

ALTER TABLE stk_push_requests ALTER COLUMN result_code TYPE BIGINT;
`

// Status is left alone so a callback that arrives before the ack is kept.
const saveAckSQL = `
INSERT INTO stk_push_requests (
    checkout_request_id, merchant_request_id, dispatch_id, business_short_code,
    phone_number, account_reference, requested_amount, status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (checkout_request_id) DO UPDATE SET
    merchant_request_id = EXCLUDED.merchant_request_id,
    dispatch_id         = EXCLUDED.dispatch_id,
    business_short_code = EXCLUDED.business_short_code,
    phone_number        = EXCLUDED.phone_number,
    account_reference   = EXCLUDED.account_reference,
    requested_amount    = EXCLUDED.requested_amount,
    updated_at          = EXCLUDED.updated_at
`

const saveCallbackSQL = `
INSERT INTO stk_push_requests (
    checkout_request_id, merchant_request_id, status, result_code, result_desc,
    receipt_number, paid_amount, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $8)
ON CONFLICT (checkout_request_id) DO UPDATE SET
    status         = EXCLUDED.status,
    result_code    = EXCLUDED.result_code,
    result_desc    = EXCLUDED.result_desc,
    receipt_number = EXCLUDED.receipt_number,
    paid_amount    = EXCLUDED.paid_amount,
    updated_at     = EXCLUDED.updated_at
`

const getPushSQL = `
SELECT checkout_request_id, merchant_request_id, dispatch_id, business_short_code,
       phone_number, account_reference, requested_amount, status, result_code,
       result_desc, receipt_number, paid_amount::text, created_at, updated_at
FROM stk_push_requests
WHERE checkout_request_id = $1
`

// EnsureSchema creates the push table when it does not exist
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return domain.WrapError(domain.ErrorCodeInternalError, "failed to create stk_push_requests schema", err)
	}
	return nil
}

// PushRepository implements ports.PushRepository on PostgreSQL
type PushRepository struct {
	db     DBTX
	logger *zap.Logger
	now    func() time.Time
}

var _ ports.PushRepository = (*PushRepository)(nil)

// NewPushRepository creates a repository over a pool, connection or transaction
func NewPushRepository(db DBTX, logger *zap.Logger) *PushRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PushRepository{db: db, logger: logger, now: timeutil.Now}
}

// SaveAck records an acknowledged push as pending
func (r *PushRepository) SaveAck(ctx context.Context, dispatchID string, req *domain.PaymentRequest, ack *domain.PaymentAck) error {
	if req == nil || ack == nil {
		return domain.NewDomainError(domain.ErrorCodeValidationError, "save ack: request and ack are required")
	}
	if ack.CheckoutRequestID == "" {
		return domain.NewDomainError(domain.ErrorCodeValidationError, "save ack: checkout request ID is required").
			WithDetail("field", "CheckoutRequestID")
	}

	_, err := r.db.Exec(ctx, saveAckSQL,
		ack.CheckoutRequestID,
		ack.MerchantRequestID,
		dispatchID,
		req.BusinessShortCode,
		req.PhoneNumber,
		req.AccountReference,
		req.Amount,
		string(domain.PushStatusPending),
		r.now(),
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeInternalError, "failed to save stk push ack", err).
			WithDetail("checkout_request_id", ack.CheckoutRequestID)
	}

	r.logger.Debug("Recorded STK push acknowledgement",
		zap.String("checkout_request_id", ack.CheckoutRequestID),
		zap.String("dispatch_id", dispatchID),
	)
	return nil
}

// SaveCallback records the final outcome of a push
func (r *PushRepository) SaveCallback(ctx context.Context, cb *domain.PaymentCallback) error {
	if cb == nil || cb.CheckoutRequestID == "" {
		return domain.NewDomainError(domain.ErrorCodeValidationError, "save callback: checkout request ID is required").
			WithDetail("field", "CheckoutRequestID")
	}

	receipt, _ := cb.ReceiptNumber()
	amount, hasAmount := cb.AmountDecimal()
	status := domain.StatusForResult(cb.ResultCode)

	_, err := r.db.Exec(ctx, saveCallbackSQL,
		cb.CheckoutRequestID,
		cb.MerchantRequestID,
		string(status),
		int64(cb.ResultCode),
		cb.ResultDesc,
		nullText(receipt),
		decimalText(amount, hasAmount),
		r.now(),
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeInternalError, "failed to save stk callback", err).
			WithDetail("checkout_request_id", cb.CheckoutRequestID)
	}

	r.logger.Debug("Recorded STK push callback",
		zap.String("checkout_request_id", cb.CheckoutRequestID),
		zap.Int("result_code", int(cb.ResultCode)),
		zap.String("status", string(status)),
	)
	return nil
}

// Get returns the record for a checkout request ID
func (r *PushRepository) Get(ctx context.Context, checkoutRequestID string) (*domain.PushRecord, error) {
	var (
		rec        domain.PushRecord
		status     string
		resultCode pgtype.Int8
		resultDesc pgtype.Text
		receipt    pgtype.Text
		paidAmount pgtype.Text
	)

	err := r.db.QueryRow(ctx, getPushSQL, checkoutRequestID).Scan(
		&rec.CheckoutRequestID,
		&rec.MerchantRequestID,
		&rec.DispatchID,
		&rec.BusinessShortCode,
		&rec.PhoneNumber,
		&rec.AccountReference,
		&rec.RequestedAmount,
		&status,
		&resultCode,
		&resultDesc,
		&receipt,
		&paidAmount,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPushNotFound
		}
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "failed to load stk push", err).
			WithDetail("checkout_request_id", checkoutRequestID)
	}

	rec.Status = domain.PushStatus(status)
	rec.ResultCode = intPtr(resultCode)
	rec.ResultDesc = textPtr(resultDesc)
	rec.ReceiptNumber = textPtr(receipt)
	rec.PaidAmount, err = textToDecimal(paidAmount)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeParseError, "stored paid amount is not numeric", err).
			WithDetail("checkout_request_id", checkoutRequestID)
	}
	return &rec, nil
}

package ports

import (
	"context"

	"github.com/kevin07696/mpesa-stk/internal/domain"
)

// PushRepository records STK Push acknowledgements and their callbacks
type PushRepository interface {
	// SaveAck records an accepted push as pending
	SaveAck(ctx context.Context, dispatchID string, req *domain.PaymentRequest, ack *domain.PaymentAck) error

	// SaveCallback records the final outcome. Callbacks for unknown checkout
	// IDs are stored too, since M-Pesa may deliver before the ack is saved.
	SaveCallback(ctx context.Context, cb *domain.PaymentCallback) error

	// Get returns the record for a checkout request ID
	Get(ctx context.Context, checkoutRequestID string) (*domain.PushRecord, error)
}

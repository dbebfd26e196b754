package mpesa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevin07696/mpesa-stk/internal/adapters/ports"
	"github.com/kevin07696/mpesa-stk/internal/domain"
	"github.com/kevin07696/mpesa-stk/pkg/observability"
	"github.com/kevin07696/mpesa-stk/pkg/shutdown"
)

// PushResult is the outcome of one dispatch. Exactly one of Ack and Err is set.
type PushResult struct {
	Ack *domain.PaymentAck
	Err error
}

// PendingPush is the handle returned by Dispatch
type PendingPush struct {
	id     string
	done   chan struct{}
	result PushResult
}

func newPendingPush() *PendingPush {
	return &PendingPush{
		id:   uuid.New().String(),
		done: make(chan struct{}),
	}
}

// ID identifies the dispatch in logs and persisted records
func (p *PendingPush) ID() string {
	return p.id
}

// Done is closed once the dispatch has completed
func (p *PendingPush) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the dispatch completes or ctx ends.
// When ctx ends first the dispatch keeps running and can be awaited again.
func (p *PendingPush) Wait(ctx context.Context) (*domain.PaymentAck, error) {
	select {
	case <-p.done:
		return p.result.Ack, p.result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result polls for the outcome without blocking
func (p *PendingPush) Result() (PushResult, bool) {
	select {
	case <-p.done:
		return p.result, true
	default:
		return PushResult{}, false
	}
}

func (p *PendingPush) complete(ack *domain.PaymentAck, err error) {
	p.result = PushResult{Ack: ack, Err: err}
	close(p.done)
}

// STKPushClient dispatches STK Push requests, each in its own goroutine
type STKPushClient struct {
	tokens    *TokenManager
	transport ports.Transport
	logger    *zap.Logger
	inFlight  *shutdown.InFlightTracker

	// Captured once; every dispatch from this client reuses it
	timestamp string

	successCount atomic.Int64
	failureCount atomic.Int64
	closeOnce    sync.Once
}

// NewSTKPushClient creates a dispatcher sharing the token manager's credentials and endpoint
func NewSTKPushClient(tokens *TokenManager, transport ports.Transport, logger *zap.Logger) *STKPushClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &STKPushClient{
		tokens:    tokens,
		transport: transport,
		logger:    logger,
		inFlight:  shutdown.NewInFlightTracker("stk_push", logger),
		timestamp: GenerateTimestamp(tokens.config.now()),
	}
}

// Timestamp returns the timestamp stamped onto every request
func (c *STKPushClient) Timestamp() string {
	return c.timestamp
}

// SuccessCount returns the number of acknowledged dispatches
func (c *STKPushClient) SuccessCount() int64 {
	return c.successCount.Load()
}

// FailureCount returns the number of failed dispatches
func (c *STKPushClient) FailureCount() int64 {
	return c.failureCount.Load()
}

// Dispatch starts an STK Push and returns immediately.
// ctx supplies values only; cancelling it does not stop the dispatch.
func (c *STKPushClient) Dispatch(ctx context.Context, req domain.PaymentRequest) *PendingPush {
	pending := newPendingPush()

	if !c.inFlight.Add() {
		err := domain.NewDomainError(domain.ErrorCodeInternalError, "STK push client is closed")
		c.finish(pending, nil, err, time.Now())
		return pending
	}

	detached := context.WithoutCancel(ctx)
	observability.STKPushStarted()

	go func() {
		defer c.inFlight.Done()
		defer observability.STKPushFinished()

		start := time.Now()
		ack, err := c.dispatch(detached, pending.id, &req)
		c.finish(pending, ack, err, start)
	}()

	return pending
}

// Close waits for in-flight dispatches; later dispatches fail immediately
func (c *STKPushClient) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		err = c.inFlight.Shutdown(ctx)
	})
	return err
}

func (c *STKPushClient) finish(pending *PendingPush, ack *domain.PaymentAck, err error, start time.Time) {
	elapsed := time.Since(start)

	if err != nil {
		c.failureCount.Add(1)
		code := domain.GetErrorCode(err)
		observability.RecordSTKPush("failure", code.String(), elapsed.Seconds())
		c.logger.Warn("STK push failed",
			zap.String("dispatch_id", pending.id),
			zap.String("error_code", code.String()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	} else {
		c.successCount.Add(1)
		observability.RecordSTKPush("success", domain.ErrorCodeSuccess.String(), elapsed.Seconds())
		c.logger.Info("STK push accepted",
			zap.String("dispatch_id", pending.id),
			zap.String("checkout_request_id", ack.CheckoutRequestID),
			zap.String("merchant_request_id", ack.MerchantRequestID),
			zap.Duration("elapsed", elapsed),
		)
	}

	pending.complete(ack, err)
}

func (c *STKPushClient) dispatch(ctx context.Context, dispatchID string, req *domain.PaymentRequest) (*domain.PaymentAck, error) {
	req.Timestamp = c.timestamp
	req.Password = GeneratePassword(req.BusinessShortCode, c.tokens.Config().Passkey, c.timestamp)

	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "failed to encode request", err)
	}

	c.logger.Debug("Sending STK push",
		zap.String("dispatch_id", dispatchID),
		zap.String("business_short_code", req.BusinessShortCode),
		zap.String("transaction_type", req.TransactionType.String()),
		zap.String("account_reference", req.AccountReference),
	)

	resp, err := c.transport.Do(ctx, &ports.HTTPRequest{
		Method: http.MethodPost,
		URL:    c.tokens.config.url(stkPushPath),
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		return nil, transportFailure("STK push request", err)
	}

	return parsePushResponse(resp)
}

// ackBody uses pointers so absent fields can be told apart from empty ones
type ackBody struct {
	MerchantRequestID   *string `json:"MerchantRequestID"`
	CheckoutRequestID   *string `json:"CheckoutRequestID"`
	ResponseCode        *string `json:"ResponseCode"`
	ResponseDescription *string `json:"ResponseDescription"`
	CustomerMessage     *string `json:"CustomerMessage"`
}

func parsePushResponse(resp *ports.HTTPResponse) (*domain.PaymentAck, error) {
	if resp.StatusCode >= 400 {
		if apiErr, ok := parseAPIError(resp.Body); ok {
			return nil, apiFailure(apiErr).WithDetail("status_code", resp.StatusCode)
		}
		return nil, domain.NewDomainError(domain.ErrorCodeHTTPError, fmt.Sprintf("HTTP error: %d", resp.StatusCode)).
			WithDetail("status_code", resp.StatusCode)
	}

	var body ackBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeParseError, "failed to parse STK push response", err)
	}

	fields := []struct {
		name  string
		value *string
	}{
		{"MerchantRequestID", body.MerchantRequestID},
		{"CheckoutRequestID", body.CheckoutRequestID},
		{"ResponseCode", body.ResponseCode},
		{"ResponseDescription", body.ResponseDescription},
		{"CustomerMessage", body.CustomerMessage},
	}
	for _, f := range fields {
		if f.value == nil {
			return nil, domain.NewDomainError(domain.ErrorCodeParseError, "STK push response missing "+f.name).
				WithDetail("field", f.name)
		}
	}

	return &domain.PaymentAck{
		MerchantRequestID:   *body.MerchantRequestID,
		CheckoutRequestID:   *body.CheckoutRequestID,
		ResponseCode:        *body.ResponseCode,
		ResponseDescription: *body.ResponseDescription,
		CustomerMessage:     *body.CustomerMessage,
	}, nil
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kevin07696/mpesa-stk/internal/domain"
)

// MockPushRepository is a testify mock of ports.PushRepository
type MockPushRepository struct {
	mock.Mock
}

func (m *MockPushRepository) SaveAck(ctx context.Context, dispatchID string, req *domain.PaymentRequest, ack *domain.PaymentAck) error {
	args := m.Called(ctx, dispatchID, req, ack)
	return args.Error(0)
}

func (m *MockPushRepository) SaveCallback(ctx context.Context, cb *domain.PaymentCallback) error {
	args := m.Called(ctx, cb)
	return args.Error(0)
}

func (m *MockPushRepository) Get(ctx context.Context, checkoutRequestID string) (*domain.PushRecord, error) {
	args := m.Called(ctx, checkoutRequestID)
	if rec, ok := args.Get(0).(*domain.PushRecord); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

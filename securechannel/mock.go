package securechannel

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/waqasraz/ockam/interfaces"
)

// MockSecureChannels mocks the SecureChannels interface
type MockSecureChannels struct {
	mock.Mock
}

// Open mocks the Open method
func (m *MockSecureChannels) Open(ctx context.Context, route interfaces.Route) (interfaces.Channel, error) {
	args := m.Called(ctx, route)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.Channel), args.Error(1)
}

// MockChannel mocks the Channel interface
type MockChannel struct {
	mock.Mock
}

// Call mocks the Call method
func (m *MockChannel) Call(ctx context.Context, service string, request []byte) ([]byte, error) {
	args := m.Called(ctx, service, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Close mocks the Close method
func (m *MockChannel) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

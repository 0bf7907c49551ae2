package interfaces

import (
	"context"
	"errors"

	"github.com/waqasraz/ockam/enroll"
)

// Channel-layer errors. Implementations wrap these so callers can
// classify failures without knowing the transport.
var (
	// ErrRouteUnreachable reports that the route could not be dialed.
	ErrRouteUnreachable = errors.New("route unreachable")

	// ErrNegotiationFailed reports a secure channel handshake failure.
	ErrNegotiationFailed = errors.New("secure channel negotiation failed")

	// ErrChannelClosed reports use of an already-closed channel.
	ErrChannelClosed = errors.New("secure channel closed")
)

// Channel is an established secure channel to one remote node. Call
// sends exactly one request to the named service behind the channel
// and awaits exactly one response. Close releases the channel; the
// owner calls it exactly once per opened channel, after which the
// channel must not be used.
type Channel interface {
	Call(ctx context.Context, service string, request []byte) ([]byte, error)
	Close(ctx context.Context) error
}

// SecureChannels establishes ephemeral secure channels on demand. Open
// fails with a wrapped ErrRouteUnreachable or ErrNegotiationFailed when
// the route cannot be reached or the handshake does not complete.
type SecureChannels interface {
	Open(ctx context.Context, route Route) (Channel, error)
}

// TokenProvider supplies the pre-issued bearer credential a caller
// submits through the bearer authentication flow.
type TokenProvider interface {
	AccessToken(ctx context.Context) (enroll.BearerToken, error)
}

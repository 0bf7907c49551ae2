package securechannel

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/waqasraz/ockam/interfaces"
)

const defaultDialTimeout = 10 * time.Second

// DialerConfig configures how channels to the cloud are established.
type DialerConfig struct {
	// PinnedIdentity, when set, is the only listener identity the
	// dialer will complete a handshake with.
	PinnedIdentity *ecdsa.PublicKey

	// DialTimeout bounds connecting and the handshake together.
	// Zero selects a default of ten seconds.
	DialTimeout time.Duration

	// Resolver resolves srv+ routes. Nil selects the default resolver.
	Resolver *Resolver

	Log *slog.Logger
}

// Dialer opens secure channels over TCP. It implements
// interfaces.SecureChannels and is safe for concurrent use; every
// Open yields an independent connection.
type Dialer struct {
	pinned   *ecdsa.PublicKey
	timeout  time.Duration
	resolver *Resolver
	log      *slog.Logger
}

// NewDialer creates a dialer from the given configuration.
func NewDialer(cfg DialerConfig) *Dialer {
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = NewResolver(ResolverConfig{})
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Dialer{
		pinned:   cfg.PinnedIdentity,
		timeout:  timeout,
		resolver: resolver,
		log:      log,
	}
}

// Open resolves the route, connects and performs the handshake.
// Failures to reach the peer wrap interfaces.ErrRouteUnreachable;
// handshake failures wrap interfaces.ErrNegotiationFailed.
func (d *Dialer) Open(ctx context.Context, route interfaces.Route) (interfaces.Channel, error) {
	if err := route.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrRouteUnreachable, err)
	}

	addr := route.String()
	if route.IsSRV() {
		resolved, err := d.resolver.Resolve(ctx, route.SRVName())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", interfaces.ErrRouteUnreachable, err)
		}
		addr = resolved
	}

	dialer := net.Dialer{Timeout: d.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrRouteUnreachable, err)
	}

	// The handshake must finish within the same dial timeout.
	if err := conn.SetDeadline(time.Now().Add(d.timeout)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", interfaces.ErrNegotiationFailed, err)
	}
	seal, open, err := dialHandshake(conn, d.pinned)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", interfaces.ErrNegotiationFailed, err)
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", interfaces.ErrNegotiationFailed, err)
	}

	channel := &Channel{
		id:   uuid.New().String(),
		conn: conn,
		seal: seal,
		open: open,
	}
	d.log.Debug("opened secure channel", "channel", channel.id, "route", route.String(), "addr", addr)
	return channel, nil
}

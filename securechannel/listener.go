package securechannel

import (
	"context"
	"crypto/ecdsa"
	"log/slog"
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const handshakeTimeout = 10 * time.Second

// Handler consumes one request payload addressed to a registered
// service and returns the response payload. A returned error tears
// down the connection instead of producing a response frame.
type Handler func(ctx context.Context, request []byte) ([]byte, error)

// Listener accepts secure channel connections and dispatches sealed
// request frames to handlers by service name. Connections addressing
// an unregistered service are closed, which the dialing side observes
// as a failed call.
type Listener struct {
	identity *ecdsa.PrivateKey
	log      *slog.Logger

	mu       sync.RWMutex
	services map[string]Handler
	ln       net.Listener
	closed   atomic.Bool
}

// NewListener creates a listener that authenticates with the given
// identity key.
func NewListener(identity *ecdsa.PrivateKey, log *slog.Logger) *Listener {
	if log == nil {
		log = slog.Default()
	}
	return &Listener{
		identity: identity,
		log:      log,
		services: make(map[string]Handler),
	}
}

// PublicKey reports the identity dialers should pin.
func (l *Listener) PublicKey() *ecdsa.PublicKey {
	return &l.identity.PublicKey
}

// Register exposes a handler under a service name. Registering the
// same name twice replaces the earlier handler.
func (l *Listener) Register(service string, handler Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services[service] = handler
}

func (l *Listener) handler(service string) Handler {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.services[service]
}

// Serve accepts connections until Close is called or the network
// listener fails. Each connection is served on its own goroutine.
func (l *Listener) Serve(ln net.Listener) error {
	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if l.closed.Load() {
				return nil
			}
			return err
		}
		go l.serveConn(conn)
	}
}

// Addr reports the network address Serve is accepting on.
func (l *Listener) Addr() net.Addr {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Close stops accepting connections. Connections already being served
// run to completion.
func (l *Listener) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.mu.RLock()
	ln := l.ln
	l.mu.RUnlock()
	if ln == nil {
		return nil
	}
	return ln.Close()
}

func (l *Listener) serveConn(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()

	if err := conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		l.log.Warn("failed to set handshake deadline", "remote", remote, "err", err)
		return
	}
	seal, open, err := acceptHandshake(conn, l.identity)
	if err != nil {
		l.log.Warn("channel handshake failed", "remote", remote, "err", err)
		return
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		l.log.Warn("failed to clear handshake deadline", "remote", remote, "err", err)
		return
	}
	l.log.Debug("established secure channel", "remote", remote)

	for {
		frame, err := readSealedFrame(conn, open)
		if err != nil {
			// Includes the orderly EOF when the dialer closes.
			return
		}
		handler := l.handler(frame.Service)
		if handler == nil {
			l.log.Warn("no handler for requested service", "service", frame.Service, "remote", remote)
			return
		}
		response, err := handler(context.Background(), frame.Data)
		if err != nil {
			l.log.Error("service handler failed", "service", frame.Service, "remote", remote, "err", err)
			return
		}
		if err := writeSealedFrame(conn, seal, channelFrame{Data: response}); err != nil {
			l.log.Warn("failed to send response frame", "service", frame.Service, "remote", remote, "err", err)
			return
		}
	}
}

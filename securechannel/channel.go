package securechannel

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/waqasraz/ockam/interfaces"
	"go.uber.org/atomic"
)

// Channel is one end of an established secure channel. It implements
// interfaces.Channel. Calls are serialized; Close may race a pending
// call and unblocks it by closing the underlying connection.
type Channel struct {
	id   string
	conn net.Conn
	seal *sealer
	open *sealer

	mu     sync.Mutex
	closed atomic.Bool
}

// ID reports the channel's identifier, unique per dialed channel.
func (c *Channel) ID() string {
	return c.id
}

// Call sends one sealed request frame addressed to service and waits
// for the single response frame. Context cancellation interrupts the
// exchange by poisoning the connection deadline, after which the
// channel is only good for closing.
func (c *Channel) Call(ctx context.Context, service string, request []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return nil, interfaces.ErrChannelClosed
	}

	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := writeSealedFrame(c.conn, c.seal, channelFrame{Service: service, Data: request}); err != nil {
		return nil, c.callError("send", ctx, err)
	}
	frame, err := readSealedFrame(c.conn, c.open)
	if err != nil {
		return nil, c.callError("receive", ctx, err)
	}
	return frame.Data, nil
}

// callError prefers the context's verdict over the transport error it
// caused, so cancelled callers see context.Canceled rather than a
// deadline error.
func (c *Channel) callError(op string, ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("failed to %s on channel %s: %w", op, c.id, ctxErr)
	}
	return fmt.Errorf("failed to %s on channel %s: %w", op, c.id, err)
}

// Close releases the channel's connection. Closing an already closed
// channel reports interfaces.ErrChannelClosed.
func (c *Channel) Close(ctx context.Context) error {
	if c.closed.Swap(true) {
		return interfaces.ErrChannelClosed
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close channel %s: %w", c.id, err)
	}
	return nil
}

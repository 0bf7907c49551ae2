package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/waqasraz/ockam/api"
	"github.com/waqasraz/ockam/interfaces"
)

// forward sends one request over the channel to the named service and
// awaits one response. The outbound request reuses the inbound request
// id, so the downstream response already echoes the id the local
// caller expects and its bytes pass through unmodified.
//
// A downstream failure is not an error here: it is converted into an
// internal-server-error envelope addressed to the request id and
// returned as a successful result. The error return covers encoding
// failures of the outbound request, which are the gateway's own.
func (g *Gateway) forward(ctx context.Context, ch interfaces.Channel, service, path string, id api.Id, body any) ([]byte, error) {
	payload, err := api.EncodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encoding outbound %s body: %w", service, err)
	}
	data, err := api.NewRequest(id, api.Post, path, payload).Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding outbound %s envelope: %w", service, err)
	}

	res, err := ch.Call(ctx, service, data)
	if err != nil {
		g.log.Warn("Downstream call failed", slog.String("service", service), "err", err)
		return encodeFailure(id, err)
	}
	return res, nil
}

// encodeStatus encodes a body-less response envelope.
func encodeStatus(id api.Id, status api.Status) ([]byte, error) {
	data, err := api.NewResponse(id, status).Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding %s response: %w", status, err)
	}
	return data, nil
}

// encodeFailure encodes an internal-server-error envelope whose body is
// the stringified cause.
func encodeFailure(id api.Id, cause error) ([]byte, error) {
	resp, err := api.NewResponse(id, api.StatusInternalServerError).WithBody(cause.Error())
	if err != nil {
		return nil, err
	}
	data, err := resp.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding failure response: %w", err)
	}
	return data, nil
}

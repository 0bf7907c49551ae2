package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/waqasraz/ockam/api"
	"github.com/waqasraz/ockam/enroll"
	"github.com/waqasraz/ockam/interfaces"
)

// Gateway mediates enrollment operations between local callers and the
// remote authenticators behind one cloud route. Each handled request
// opens its own request-scoped secure channel and holds no state
// shared with other requests.
type Gateway struct {
	channels interfaces.SecureChannels
	route    interfaces.Route
	log      *slog.Logger
}

// New returns a gateway forwarding over channels to the cloud at route.
func New(channels interfaces.SecureChannels, route interfaces.Route, log *slog.Logger) *Gateway {
	return &Gateway{channels: channels, route: route, log: log}
}

// Route returns the cloud route this gateway forwards to.
func (g *Gateway) Route() interfaces.Route {
	return g.route
}

// HandleMessage decodes one request envelope, dispatches it, and
// returns the encoded response envelope. An undecodable envelope is
// answered with a bad-request response addressed to id 0, since no id
// could be recovered. The error return is reserved for failures
// encoding the gateway's own responses.
func (g *Gateway) HandleMessage(ctx context.Context, data []byte) ([]byte, error) {
	req, err := api.DecodeRequest(data)
	if err != nil {
		g.log.Warn("Rejecting undecodable request envelope", "err", err)
		return encodeStatus(0, api.StatusBadRequest)
	}
	return g.Handle(ctx, req)
}

// Handle dispatches one decoded request:
//
//	POST /       mint an enrollment token bound to the body's attributes
//	POST /enroll authenticate a bearer token or redeem an enrollment token
//
// Any other method, path or missing body is answered with bad-request.
// Downstream failures come back inside internal-server-error envelopes
// addressed to the request id, never as Go errors; the error return is
// reserved for failures encoding the gateway's own responses.
func (g *Gateway) Handle(ctx context.Context, req *api.Request) ([]byte, error) {
	switch {
	case req.Method == api.Post && req.Path == "/" && req.HasBody():
		return g.handleRequestEnrollmentToken(ctx, req)
	case req.Method == api.Post && req.Path == "/enroll" && req.HasBody():
		return g.handleAuthenticate(ctx, req)
	default:
		g.log.Warn("Rejecting unrecognized request",
			slog.String("method", req.Method.String()),
			slog.String("path", req.Path))
		return encodeStatus(req.ID, api.StatusBadRequest)
	}
}

func (g *Gateway) handleRequestEnrollmentToken(ctx context.Context, req *api.Request) ([]byte, error) {
	body, err := enroll.DecodeRequestEnrollmentToken(req.Body)
	if err != nil {
		g.log.Warn("Rejecting enrollment token request", "err", err)
		return encodeStatus(req.ID, api.StatusBadRequest)
	}

	res, err := g.requestEnrollmentToken(ctx, req.ID, body)
	if err != nil {
		g.log.Error("Enrollment token request failed", "err", err)
		return encodeFailure(req.ID, err)
	}
	return res, nil
}

func (g *Gateway) handleAuthenticate(ctx context.Context, req *api.Request) ([]byte, error) {
	flow, err := decodeAuthenticationFlow(req.Body)
	if err != nil {
		g.log.Warn("Rejecting authentication request", "err", err)
		return encodeStatus(req.ID, api.StatusBadRequest)
	}

	res, err := g.authenticateToken(ctx, req.ID, flow)
	if err != nil {
		g.log.Error("Token authentication failed", slog.String("flow", flow.Name()), "err", err)
		return encodeFailure(req.ID, err)
	}
	return res, nil
}

// decodeAuthenticationFlow tries the bearer schema first and falls back
// to the enrollment token schema only when bearer decoding fails, so a
// payload satisfying both resolves to the bearer flow.
func decodeAuthenticationFlow(body []byte) (enroll.AuthenticationFlow, error) {
	if bearer, err := enroll.DecodeAuthenticateBearerToken(body); err == nil {
		return enroll.BearerFlow(*bearer), nil
	}
	redeem, err := enroll.DecodeAuthenticateEnrollmentToken(body)
	if err != nil {
		return enroll.AuthenticationFlow{}, fmt.Errorf("body matches no authentication schema: %w", err)
	}
	return enroll.EnrollmentFlow(*redeem), nil
}

// requestEnrollmentToken forwards a minting request to the enrollment
// authenticator over a fresh channel. The returned bytes are a complete
// response envelope; the error covers channel-open and local encoding
// failures only.
func (g *Gateway) requestEnrollmentToken(ctx context.Context, id api.Id, body *enroll.RequestEnrollmentToken) ([]byte, error) {
	g.log.Debug("Requesting enrollment token", slog.String("route", g.route.String()))

	ch, err := g.channels.Open(ctx, g.route)
	if err != nil {
		return nil, fmt.Errorf("opening secure channel to %s: %w", g.route, err)
	}
	defer g.closeChannel(ctx, ch)

	return g.forward(ctx, ch, enroll.EnrollmentAuthenticatorService, "/", id, body)
}

// authenticateToken forwards a credential to the authenticator selected
// by the flow over a fresh channel.
func (g *Gateway) authenticateToken(ctx context.Context, id api.Id, flow enroll.AuthenticationFlow) ([]byte, error) {
	service, path, body := flow.Target()
	g.log.Debug("Authenticating token",
		slog.String("flow", flow.Name()),
		slog.String("service", service),
		slog.String("route", g.route.String()))

	ch, err := g.channels.Open(ctx, g.route)
	if err != nil {
		return nil, fmt.Errorf("opening secure channel to %s: %w", g.route, err)
	}
	defer g.closeChannel(ctx, ch)

	return g.forward(ctx, ch, service, path, id, body)
}

// closeChannel releases a channel on every exit path of a flow. It
// drops the request context's cancellation so the release still runs
// after the request is cancelled. A close failure is logged and never
// overrides the computed response.
func (g *Gateway) closeChannel(ctx context.Context, ch interfaces.Channel) {
	if err := ch.Close(context.WithoutCancel(ctx)); err != nil {
		g.log.Warn("Failed to close secure channel", "err", err)
	}
}

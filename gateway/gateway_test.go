package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/waqasraz/ockam/api"
	"github.com/waqasraz/ockam/enroll"
	"github.com/waqasraz/ockam/interfaces"
	"github.com/waqasraz/ockam/securechannel"
)

const testRoute = interfaces.Route("127.0.0.1:4100")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func encodeBody(t *testing.T, payload any) []byte {
	t.Helper()
	body, err := api.EncodeBody(payload)
	require.NoError(t, err)
	return body
}

func encodeResponse(t *testing.T, id api.Id, status api.Status, payload any) []byte {
	t.Helper()
	resp := api.NewResponse(id, status)
	if payload != nil {
		var err error
		resp, err = resp.WithBody(payload)
		require.NoError(t, err)
	}
	data, err := resp.Encode()
	require.NoError(t, err)
	return data
}

func decodeResponse(t *testing.T, data []byte) *api.Response {
	t.Helper()
	resp, err := api.DecodeResponse(data)
	require.NoError(t, err)
	return resp
}

// outboundRequest matches the envelope the gateway sends downstream.
func outboundRequest(t *testing.T, id api.Id, path string) any {
	t.Helper()
	return mock.MatchedBy(func(data []byte) bool {
		req, err := api.DecodeRequest(data)
		return err == nil && req.ID == id && req.Method == api.Post && req.Path == path
	})
}

func TestIssueTokenScenario(t *testing.T) {
	downstream := encodeResponse(t, 1, api.StatusOk, enroll.NewEnrollmentToken("tok-123"))

	ch := new(securechannel.MockChannel)
	ch.On("Call", mock.Anything, enroll.EnrollmentAuthenticatorService, outboundRequest(t, 1, "/")).
		Return(downstream, nil).Once()
	ch.On("Close", mock.Anything).Return(nil).Once()

	channels := new(securechannel.MockSecureChannels)
	channels.On("Open", mock.Anything, testRoute).Return(ch, nil).Once()

	g := New(channels, testRoute, testLogger())
	req := api.NewRequest(1, api.Post, "/", encodeBody(t, enroll.NewRequestEnrollmentToken(enroll.Attributes{"role": "admin"})))

	out, err := g.Handle(context.Background(), &req)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, api.Id(1), resp.ID)
	require.Equal(t, api.StatusOk, resp.Status)

	minted, err := enroll.DecodeEnrollmentToken(resp.Body)
	require.NoError(t, err)
	require.Equal(t, enroll.Token("tok-123"), minted.Token)

	channels.AssertExpectations(t)
	ch.AssertExpectations(t)
}

func TestRedeemTokenScenario(t *testing.T) {
	downstream := encodeResponse(t, 2, api.StatusOk, nil)

	ch := new(securechannel.MockChannel)
	ch.On("Call", mock.Anything, enroll.EnrollmentAuthenticatorService, outboundRequest(t, 2, "/enroll")).
		Return(downstream, nil).Once()
	ch.On("Close", mock.Anything).Return(nil).Once()

	channels := new(securechannel.MockSecureChannels)
	channels.On("Open", mock.Anything, testRoute).Return(ch, nil).Once()

	g := New(channels, testRoute, testLogger())
	req := api.NewRequest(2, api.Post, "/enroll", encodeBody(t, enroll.NewAuthenticateEnrollmentToken("tok-123")))

	out, err := g.Handle(context.Background(), &req)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, api.Id(2), resp.ID)
	require.Equal(t, api.StatusOk, resp.Status)
	require.False(t, resp.HasBody())

	channels.AssertExpectations(t)
	ch.AssertExpectations(t)
}

func TestBearerFlowTargetsBearerAuthenticator(t *testing.T) {
	downstream := encodeResponse(t, 5, api.StatusOk, nil)

	ch := new(securechannel.MockChannel)
	ch.On("Call", mock.Anything, enroll.BearerAuthenticatorService, outboundRequest(t, 5, "/enroll")).
		Return(downstream, nil).Once()
	ch.On("Close", mock.Anything).Return(nil).Once()

	channels := new(securechannel.MockSecureChannels)
	channels.On("Open", mock.Anything, testRoute).Return(ch, nil).Once()

	g := New(channels, testRoute, testLogger())
	bearer := enroll.NewAuthenticateBearerToken(enroll.NewBearerToken("at-77"))
	req := api.NewRequest(5, api.Post, "/enroll", encodeBody(t, bearer))

	out, err := g.Handle(context.Background(), &req)
	require.NoError(t, err)
	require.True(t, decodeResponse(t, out).IsOk())

	channels.AssertExpectations(t)
	ch.AssertExpectations(t)
}

func TestBearerDecodePrecedence(t *testing.T) {
	bearer := enroll.NewAuthenticateBearerToken(enroll.NewBearerToken("at-77"))
	flow, err := decodeAuthenticationFlow(encodeBody(t, bearer))
	require.NoError(t, err)
	require.Equal(t, "bearer", flow.Name())

	redeem := enroll.NewAuthenticateEnrollmentToken("tok-123")
	flow, err = decodeAuthenticationFlow(encodeBody(t, redeem))
	require.NoError(t, err)
	require.Equal(t, "enrollment", flow.Name())

	_, err = decodeAuthenticationFlow(encodeBody(t, "free-form string"))
	require.Error(t, err)
}

func TestUnrecognizedRequestsRejected(t *testing.T) {
	validBody := encodeBody(t, enroll.NewRequestEnrollmentToken(enroll.Attributes{"role": "admin"}))

	cases := []struct {
		name string
		req  api.Request
	}{
		{"unknown path", api.NewRequest(3, api.Post, "/unknown", validBody)},
		{"get root", api.NewRequest(4, api.Get, "/", validBody)},
		{"get enroll", api.NewRequest(5, api.Get, "/enroll", validBody)},
		{"missing body", api.NewRequest(6, api.Post, "/", nil)},
		{"delete enroll", api.NewRequest(7, api.Delete, "/enroll", validBody)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			channels := new(securechannel.MockSecureChannels)
			g := New(channels, testRoute, testLogger())

			out, err := g.Handle(context.Background(), &tc.req)
			require.NoError(t, err)

			resp := decodeResponse(t, out)
			require.Equal(t, api.StatusBadRequest, resp.Status)
			require.Equal(t, tc.req.ID, resp.ID)
			channels.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
		})
	}
}

func TestUndecodableBodyRejectedWithoutChannel(t *testing.T) {
	channels := new(securechannel.MockSecureChannels)
	g := New(channels, testRoute, testLogger())

	// A minting payload is not an authentication payload.
	req := api.NewRequest(8, api.Post, "/enroll", encodeBody(t, enroll.NewRequestEnrollmentToken(nil)))
	out, err := g.Handle(context.Background(), &req)
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	require.Equal(t, api.StatusBadRequest, resp.Status)
	require.Equal(t, api.Id(8), resp.ID)

	// And a redemption payload cannot mint.
	req = api.NewRequest(9, api.Post, "/", encodeBody(t, enroll.NewAuthenticateEnrollmentToken("tok-123")))
	out, err = g.Handle(context.Background(), &req)
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	require.Equal(t, api.StatusBadRequest, resp.Status)
	require.Equal(t, api.Id(9), resp.ID)

	channels.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}

func TestDownstreamFailureConvertedToResponse(t *testing.T) {
	ch := new(securechannel.MockChannel)
	ch.On("Call", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset by peer")).Once()
	ch.On("Close", mock.Anything).Return(nil).Once()

	channels := new(securechannel.MockSecureChannels)
	channels.On("Open", mock.Anything, testRoute).Return(ch, nil).Once()

	g := New(channels, testRoute, testLogger())
	req := api.NewRequest(2, api.Post, "/enroll", encodeBody(t, enroll.NewAuthenticateEnrollmentToken("tok-123")))

	out, err := g.Handle(context.Background(), &req)
	require.NoError(t, err, "downstream failures must not surface as local errors")

	resp := decodeResponse(t, out)
	require.Equal(t, api.Id(2), resp.ID)
	require.Equal(t, api.StatusInternalServerError, resp.Status)

	msg, err := api.DecodeStringBody(resp.Body)
	require.NoError(t, err)
	require.Contains(t, msg, "connection reset")

	// The channel is still released on the failure path.
	channels.AssertExpectations(t)
	ch.AssertExpectations(t)
}

func TestOpenFailureSurfacesFailureResponse(t *testing.T) {
	channels := new(securechannel.MockSecureChannels)
	channels.On("Open", mock.Anything, testRoute).
		Return(nil, interfaces.ErrRouteUnreachable).Once()

	g := New(channels, testRoute, testLogger())
	req := api.NewRequest(2, api.Post, "/enroll", encodeBody(t, enroll.NewAuthenticateEnrollmentToken("tok-123")))

	out, err := g.Handle(context.Background(), &req)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, api.Id(2), resp.ID)
	require.Equal(t, api.StatusInternalServerError, resp.Status)

	msg, err := api.DecodeStringBody(resp.Body)
	require.NoError(t, err)
	require.Contains(t, msg, "route unreachable")

	channels.AssertExpectations(t)
}

func TestCloseFailureDoesNotOverrideResponse(t *testing.T) {
	downstream := encodeResponse(t, 11, api.StatusOk, nil)

	ch := new(securechannel.MockChannel)
	ch.On("Call", mock.Anything, mock.Anything, mock.Anything).Return(downstream, nil).Once()
	ch.On("Close", mock.Anything).Return(errors.New("already torn down")).Once()

	channels := new(securechannel.MockSecureChannels)
	channels.On("Open", mock.Anything, testRoute).Return(ch, nil).Once()

	g := New(channels, testRoute, testLogger())
	req := api.NewRequest(11, api.Post, "/enroll", encodeBody(t, enroll.NewAuthenticateEnrollmentToken("tok-123")))

	out, err := g.Handle(context.Background(), &req)
	require.NoError(t, err)
	require.True(t, decodeResponse(t, out).IsOk())

	ch.AssertExpectations(t)
}

func TestChannelClosedAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ch := new(securechannel.MockChannel)
	ch.On("Call", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).Once()
	// The release must still run with a live context once the request
	// context is dead.
	ch.On("Close", mock.MatchedBy(func(closeCtx context.Context) bool {
		return closeCtx.Err() == nil
	})).Return(nil).Once()

	channels := new(securechannel.MockSecureChannels)
	channels.On("Open", mock.Anything, testRoute).Return(ch, nil).Once()

	g := New(channels, testRoute, testLogger())
	req := api.NewRequest(12, api.Post, "/enroll", encodeBody(t, enroll.NewAuthenticateEnrollmentToken("tok-123")))

	out, err := g.Handle(ctx, &req)
	require.NoError(t, err)
	require.Equal(t, api.StatusInternalServerError, decodeResponse(t, out).Status)

	ch.AssertExpectations(t)
}

func TestHandleMessage(t *testing.T) {
	channels := new(securechannel.MockSecureChannels)
	g := New(channels, testRoute, testLogger())

	// Garbage that fails envelope decoding is answered, not dropped.
	out, err := g.HandleMessage(context.Background(), []byte("not an envelope"))
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	require.Equal(t, api.StatusBadRequest, resp.Status)
	require.Equal(t, api.Id(0), resp.ID)

	// A decodable envelope goes through the dispatch table.
	req := api.NewRequest(13, api.Post, "/unknown", nil)
	raw, err := req.Encode()
	require.NoError(t, err)

	out, err = g.HandleMessage(context.Background(), raw)
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	require.Equal(t, api.StatusBadRequest, resp.Status)
	require.Equal(t, api.Id(13), resp.ID)
}

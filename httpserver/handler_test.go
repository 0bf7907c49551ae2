package httpserver

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/waqasraz/ockam/api"
	"github.com/waqasraz/ockam/enroll"
	"github.com/waqasraz/ockam/gateway"
	"github.com/waqasraz/ockam/interfaces"
	"github.com/waqasraz/ockam/securechannel"
)

const testRoute = interfaces.Route("127.0.0.1:4100")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(channels interfaces.SecureChannels) *Handler {
	logger := testLogger()
	return NewHandler(gateway.New(channels, testRoute, logger), logger)
}

func envelopeRouter(handler *Handler) http.Handler {
	mux := chi.NewRouter()
	mux.Post("/api/v0/*", handler.HandleEnvelope)
	return mux
}

func encodeBody(t *testing.T, payload any) []byte {
	t.Helper()
	body, err := api.EncodeBody(payload)
	require.NoError(t, err)
	return body
}

// downstreamOk builds the encoded response envelope a cloud
// authenticator would answer with.
func downstreamOk(t *testing.T, id api.Id, payload any) []byte {
	t.Helper()
	resp := api.NewResponse(id, api.StatusOk)
	if payload != nil {
		var err error
		resp, err = resp.WithBody(payload)
		require.NoError(t, err)
	}
	raw, err := resp.Encode()
	require.NoError(t, err)
	return raw
}

func TestHandleEnvelope_MintToken(t *testing.T) {
	mockChannels := new(securechannel.MockSecureChannels)
	mockChannel := new(securechannel.MockChannel)
	mockChannels.On("Open", mock.Anything, testRoute).Return(mockChannel, nil)
	mockChannel.On("Call", mock.Anything, enroll.EnrollmentAuthenticatorService, mock.Anything).
		Return(downstreamOk(t, 9, enroll.NewEnrollmentToken("tok-123")), nil)
	mockChannel.On("Close", mock.Anything).Return(nil)

	handler := newTestHandler(mockChannels)

	body := encodeBody(t, enroll.NewRequestEnrollmentToken(enroll.Attributes{"role": "admin"}))
	req := httptest.NewRequest(http.MethodPost, "/api/v0/", bytes.NewReader(body))
	req.Header.Set(RequestIdHeader, "9")
	w := httptest.NewRecorder()

	envelopeRouter(handler).ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, envelopeContentType, resp.Header.Get("Content-Type"))
	assert.Equal(t, "9", resp.Header.Get(RequestIdHeader))

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	envelope, err := api.DecodeResponse(respBody)
	require.NoError(t, err)
	assert.Equal(t, api.Id(9), envelope.ID)
	require.Equal(t, api.StatusOk, envelope.Status)

	issued, err := enroll.DecodeEnrollmentToken(envelope.Body)
	require.NoError(t, err)
	assert.Equal(t, enroll.Token("tok-123"), issued.Token)

	mockChannels.AssertExpectations(t)
	mockChannel.AssertExpectations(t)
	mockChannel.AssertNumberOfCalls(t, "Close", 1)
}

func TestHandleEnvelope_AssignsRequestIds(t *testing.T) {
	mockChannels := new(securechannel.MockSecureChannels)
	mockChannel := new(securechannel.MockChannel)
	mockChannels.On("Open", mock.Anything, testRoute).Return(mockChannel, nil)
	mockChannel.On("Call", mock.Anything, enroll.EnrollmentAuthenticatorService, mock.Anything).
		Return(downstreamOk(t, 1, enroll.NewEnrollmentToken("tok-a")), nil).Once()
	mockChannel.On("Call", mock.Anything, enroll.EnrollmentAuthenticatorService, mock.Anything).
		Return(downstreamOk(t, 2, enroll.NewEnrollmentToken("tok-b")), nil).Once()
	mockChannel.On("Close", mock.Anything).Return(nil)

	handler := newTestHandler(mockChannels)
	router := envelopeRouter(handler)
	body := encodeBody(t, enroll.NewRequestEnrollmentToken(nil))

	for _, wantId := range []string{"1", "2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v0/", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		resp := w.Result()
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, wantId, resp.Header.Get(RequestIdHeader))
	}
}

func TestHandleEnvelope_MalformedRequestIdAssigned(t *testing.T) {
	mockChannels := new(securechannel.MockSecureChannels)
	mockChannel := new(securechannel.MockChannel)
	mockChannels.On("Open", mock.Anything, testRoute).Return(mockChannel, nil)
	mockChannel.On("Call", mock.Anything, enroll.EnrollmentAuthenticatorService, mock.Anything).
		Return(downstreamOk(t, 1, enroll.NewEnrollmentToken("tok-a")), nil)
	mockChannel.On("Close", mock.Anything).Return(nil)

	handler := newTestHandler(mockChannels)

	body := encodeBody(t, enroll.NewRequestEnrollmentToken(nil))
	req := httptest.NewRequest(http.MethodPost, "/api/v0/", bytes.NewReader(body))
	req.Header.Set(RequestIdHeader, "not-a-number")
	w := httptest.NewRecorder()

	envelopeRouter(handler).ServeHTTP(w, req)

	resp := w.Result()
	resp.Body.Close()
	assert.Equal(t, "1", resp.Header.Get(RequestIdHeader))
}

func TestHandleEnvelope_UnknownPathRejected(t *testing.T) {
	mockChannels := new(securechannel.MockSecureChannels)
	handler := newTestHandler(mockChannels)

	req := httptest.NewRequest(http.MethodPost, "/api/v0/unknown", bytes.NewReader([]byte("ignored")))
	req.Header.Set(RequestIdHeader, "12")
	w := httptest.NewRecorder()

	envelopeRouter(handler).ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	envelope, err := api.DecodeResponse(respBody)
	require.NoError(t, err)
	assert.Equal(t, api.Id(12), envelope.ID)
	assert.Equal(t, api.StatusBadRequest, envelope.Status)

	// No channel is opened for requests the gateway rejects outright.
	mockChannels.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}

func TestHandleEnvelope_UnreachableCloud(t *testing.T) {
	mockChannels := new(securechannel.MockSecureChannels)
	mockChannels.On("Open", mock.Anything, testRoute).Return(nil, interfaces.ErrRouteUnreachable)

	handler := newTestHandler(mockChannels)

	body := encodeBody(t, enroll.NewRequestEnrollmentToken(nil))
	req := httptest.NewRequest(http.MethodPost, "/api/v0/", bytes.NewReader(body))
	w := httptest.NewRecorder()

	envelopeRouter(handler).ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	envelope, err := api.DecodeResponse(respBody)
	require.NoError(t, err)
	require.Equal(t, api.StatusInternalServerError, envelope.Status)

	message, err := api.DecodeStringBody(envelope.Body)
	require.NoError(t, err)
	assert.Contains(t, message, "route unreachable")
}

func TestServerDrainCycle(t *testing.T) {
	handler := newTestHandler(new(securechannel.MockSecureChannels))
	srv, err := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      testLogger(),
		DrainDuration:            10 * time.Millisecond,
		GracefulShutdownDuration: time.Second,
		ReadTimeout:              time.Second,
		WriteTimeout:             time.Second,
	}, handler)
	require.NoError(t, err)

	router := srv.getRouter()

	get := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		resp := w.Result()
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, get("/livez"))
	assert.Equal(t, http.StatusOK, get("/readyz"))
	assert.Equal(t, http.StatusOK, get("/drain"))
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz"))
	assert.Equal(t, http.StatusOK, get("/undrain"))
	assert.Equal(t, http.StatusOK, get("/readyz"))
}

package httpserver

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/waqasraz/ockam/api"
	"github.com/waqasraz/ockam/gateway"
	"go.uber.org/atomic"
)

// Header and content type constants used in HTTP requests and responses.
const (
	// RequestIdHeader carries the caller-chosen envelope request id as
	// a decimal 32-bit value. Requests without it get a server-assigned
	// id, echoed back in the response header.
	RequestIdHeader = "X-Request-Id"

	// envelopeContentType is the media type of encoded envelopes.
	envelopeContentType = "application/cbor"

	// maxBodySize is the maximum allowed request body size (1MB).
	maxBodySize = 1024 * 1024
)

var envelopeRequests = metrics.GetOrCreateCounter(`enrollment_gateway_requests_total`)

// Handler adapts HTTP requests to the gateway's envelope protocol.
// The request body becomes the envelope body unchanged, so the same
// CBOR payloads work over HTTP and over the message transport.
type Handler struct {
	gateway *gateway.Gateway
	log     *slog.Logger
	nextId  atomic.Uint32
}

// NewHandler creates a handler forwarding through the given gateway.
func NewHandler(gw *gateway.Gateway, log *slog.Logger) *Handler {
	return &Handler{gateway: gw, log: log}
}

// HandleEnvelope processes one enrollment operation.
//
// URL format: POST /api/v0/{gateway_path...}
//
// The wildcard remainder maps onto the gateway dispatcher's path, so
// /api/v0/ requests an enrollment token and /api/v0/enroll
// authenticates a credential. The response body is the encoded
// response envelope and the HTTP status mirrors the envelope status.
func (h *Handler) HandleEnvelope(w http.ResponseWriter, r *http.Request) {
	envelopeRequests.Inc()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.log.Error("Failed to read request body", "err", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	id := h.requestId(r)
	path := "/" + chi.URLParam(r, "*")

	req := api.NewRequest(id, api.Post, path, body)
	out, err := h.gateway.Handle(r.Context(), &req)
	if err != nil {
		h.log.Error("Failed to encode gateway response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp, err := api.DecodeResponse(out)
	if err != nil {
		h.log.Error("Gateway produced an undecodable response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`enrollment_gateway_responses_total{status=%q}`, resp.Status.String())).Inc()

	w.Header().Set("Content-Type", envelopeContentType)
	w.Header().Set(RequestIdHeader, strconv.FormatUint(uint64(resp.ID), 10))
	w.WriteHeader(int(resp.Status))
	if _, err := w.Write(out); err != nil {
		h.log.Error("Failed to write response", "err", err)
	}
}

// requestId takes the caller's id from the header when present and
// valid, otherwise assigns the next one from the counter.
func (h *Handler) requestId(r *http.Request) api.Id {
	if header := r.Header.Get(RequestIdHeader); header != "" {
		id, err := strconv.ParseUint(header, 10, 32)
		if err == nil {
			return api.Id(id)
		}
		h.log.Warn("Ignoring malformed request id header", slog.String("value", header))
	}
	return api.Id(h.nextId.Add(1))
}

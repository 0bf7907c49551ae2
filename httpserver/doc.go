/*
Package httpserver exposes the enrollment gateway over HTTP for local
callers that do not speak the envelope transport natively.

Every enrollment endpoint accepts a CBOR payload, wraps it in a request
envelope, hands it to the gateway, and mirrors the resulting response
envelope back: the envelope's status becomes the HTTP status and the
encoded envelope travels as the response body. Callers can pick their
own request identifier through the X-Request-Id header; without it the
server assigns one from a process-wide counter.

# Endpoints

  - POST /api/v0/*  - Enrollment envelope operations. The wildcard
    remainder selects the gateway path: /api/v0/ mints an enrollment
    token, /api/v0/enroll authenticates a credential. Unrecognized
    remainders are answered by the gateway with a bad-request envelope.
  - GET /livez      - Liveness check
  - GET /readyz     - Readiness check
  - GET /drain      - Gracefully mark server as not ready
  - GET /undrain    - Mark server as ready

# Example Usage

	cfg := &httpserver.HTTPServerConfig{
		ListenAddr:  ":8080",
		MetricsAddr: ":9090",
		Log:         logger,
		DrainDuration:            30 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	handler := httpserver.NewHandler(gw, logger)
	server, err := httpserver.New(cfg, handler)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	server.RunInBackground()
	defer server.Shutdown()

A metrics server runs alongside the API listener and reports request
and response counters per envelope status.
*/
package httpserver

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/waqasraz/ockam/api"
	"github.com/waqasraz/ockam/enroll"
	"github.com/waqasraz/ockam/httpserver"
	"go.uber.org/atomic"
)

// GatewayClient talks to an enrollment gateway over its HTTP envelope
// API. Request ids are assigned from a per-client counter and echoed
// back by the gateway; payloads and responses use the same CBOR
// schemas the gateway forwards to the cloud.
type GatewayClient struct {
	// ServerAddr is the base URL of the gateway, e.g. http://127.0.0.1:8080.
	ServerAddr string

	httpClient *http.Client
	nextId     atomic.Uint32
}

// NewGatewayClient creates a client for the gateway at serverAddr with
// an optional request timeout (default 30 seconds).
func NewGatewayClient(serverAddr string, timeout ...time.Duration) *GatewayClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &GatewayClient{
		ServerAddr: serverAddr,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// RequestEnrollmentToken asks the cloud, through the gateway, to mint a
// single-use enrollment token bound to the given attributes.
func (c *GatewayClient) RequestEnrollmentToken(ctx context.Context, attrs enroll.Attributes) (*enroll.EnrollmentToken, error) {
	resp, err := c.call(ctx, "/", enroll.NewRequestEnrollmentToken(attrs))
	if err != nil {
		return nil, err
	}

	token, err := enroll.DecodeEnrollmentToken(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not parse enrollment token response: %w", err)
	}
	return token, nil
}

// AuthenticateBearer presents a bearer token for authentication and
// returns the attributes the cloud associated with it.
func (c *GatewayClient) AuthenticateBearer(ctx context.Context, token enroll.BearerToken) (enroll.Attributes, error) {
	resp, err := c.call(ctx, "/enroll", enroll.NewAuthenticateBearerToken(token))
	if err != nil {
		return nil, err
	}

	if !resp.HasBody() {
		return enroll.Attributes{}, nil
	}
	var attrs enroll.Attributes
	if err := api.DecodeBody(resp.Body, &attrs); err != nil {
		return nil, fmt.Errorf("could not parse attributes response: %w", err)
	}
	return attrs, nil
}

// AuthenticateEnrollmentToken redeems a previously minted enrollment
// token. Redeeming consumes the token; a second call fails.
func (c *GatewayClient) AuthenticateEnrollmentToken(ctx context.Context, token enroll.Token) error {
	_, err := c.call(ctx, "/enroll", enroll.NewAuthenticateEnrollmentToken(token))
	return err
}

// call posts one CBOR payload to the gateway and returns the decoded
// response envelope. Envelopes with a non-ok status are turned into
// errors carrying the status and, when present, the stringified cause.
func (c *GatewayClient) call(ctx context.Context, path string, payload any) (*api.Response, error) {
	body, err := api.EncodeBody(payload)
	if err != nil {
		return nil, fmt.Errorf("could not encode request payload: %w", err)
	}

	id := api.Id(c.nextId.Add(1))
	url := fmt.Sprintf("%s/api/v0%s", c.ServerAddr, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/cbor")
	req.Header.Set(httpserver.RequestIdHeader, strconv.FormatUint(uint64(id), 10))

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not request gateway endpoint: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read gateway response: %w", err)
	}

	resp, err := api.DecodeResponse(respBody)
	if err != nil {
		return nil, fmt.Errorf("gateway endpoint returned %d with unparsable body: %w", httpResp.StatusCode, err)
	}
	if resp.ID != id {
		return nil, fmt.Errorf("gateway response addressed to request %d, expected %d", resp.ID, id)
	}
	if !resp.IsOk() {
		if cause, err := api.DecodeStringBody(resp.Body); err == nil && cause != "" {
			return nil, fmt.Errorf("gateway returned %s: %s", resp.Status, cause)
		}
		return nil, fmt.Errorf("gateway returned %s", resp.Status)
	}
	return resp, nil
}

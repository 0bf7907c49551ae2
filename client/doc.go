/*
Package client provides an HTTP client for the enrollment gateway's
envelope API.

GatewayClient wraps the CBOR payloads of the enrollment operations,
posts them to the gateway's /api/v0 endpoints, and decodes the response
envelopes, surfacing non-ok envelope statuses as errors. It is the
client side of the httpserver package and what the enroll command is
built on.
*/
package client

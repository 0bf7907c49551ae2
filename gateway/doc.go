/*
Package gateway implements the enrollment protocol gateway: the local
node component that mediates access to the remote identity cloud.

It accepts three operations, each arriving as one request envelope:

 1. POST / with a RequestEnrollmentToken body mints a short-lived
    enrollment token bound to the caller's attributes.
 2. POST /enroll with an AuthenticateBearerToken body proves possession
    of a pre-issued bearer credential.
 3. POST /enroll with an AuthenticateEnrollmentToken body redeems a
    previously minted enrollment token.

Every handled request opens its own secure channel to the configured
cloud route, forwards exactly one call to the authenticator selected
for the operation, and releases the channel on every exit path,
including cancellation. The gateway holds no state across requests and
no locks; concurrent requests ride independent channels.

# Failure Policy

Callers always receive a well-formed response envelope. A body that
matches no schema for its path yields a bad-request response. A
downstream failure (unreachable authenticator, dropped channel, remote
error) yields an internal-server-error response whose body carries the
stringified cause, addressed to the original request id; it is never
surfaced as a Go error, so a remote outage looks the same to transports
as any other answered request. The error returns of
Handle and HandleMessage are reserved for failures encoding the
gateway's own responses.

For /enroll bodies the bearer schema is tried before the enrollment
token schema, so a payload satisfying both resolves to the bearer flow.
*/
package gateway

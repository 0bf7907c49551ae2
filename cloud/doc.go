/*
Package cloud implements the identity-cloud side of the enrollment
protocol: the two authenticator services the gateway forwards to over
secure channels.

The bearer authenticator verifies project-member access tokens, issued
as HS256 JWTs by the identity provider. The enrollment token
authenticator issues one-time enrollment tokens bound to the attributes
a project member requested, and later redeems them exactly once within
their time-to-live.

Both services consume and produce the same request and response
envelopes the gateway speaks, so a response produced here passes
through the gateway unchanged.

The package is a reference deployment target for development and
tests. Production clouds implement the same wire contract.
*/
package cloud

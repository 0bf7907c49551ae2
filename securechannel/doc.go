/*
Package securechannel provides the transport the enrollment gateway
forwards over: ephemeral, authenticated, encrypted point-to-point
channels between a local node and the cloud.

A channel lives on one TCP connection. The dialer and listener perform
an ephemeral ECDH (P-256) handshake in which the listener proves its
identity by signing the handshake transcript with its long-term ECDSA
key; the dialer can pin the expected identity. HKDF-SHA256 stretches
the agreed secret into two directional AES-256-GCM keys, and every
subsequent frame travels sealed under a monotonic nonce counter.

Frames are addressed: each request frame names the remote service it is
for, and the listener dispatches to handlers registered by service
name. One request frame is answered by exactly one response frame,
matching the one-shot way the gateway uses channels (open, one call,
close). A channel tolerates sequential calls but not concurrent ones;
callers that need parallelism open parallel channels.

Routes of the form "srv+name" are resolved to concrete endpoints
through DNS SRV lookups before dialing; plain "host:port" routes dial
directly.

MockSecureChannels and MockChannel mock the corresponding interfaces
for tests of channel consumers.
*/
package securechannel

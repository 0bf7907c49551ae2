// Package interfaces defines the contracts between the enrollment
// gateway's components, separating interface definitions from
// implementations.
//
// # Channel Interfaces
//
// SecureChannels: Establishes ephemeral secure channels to a cloud
// route on demand. The gateway core consumes this as scoped-resource
// acquisition and never sees how channels are built; the securechannel
// package provides the production implementation and mocks for tests.
//
// Channel: One established channel. Carries exactly one request to a
// named remote service and one response back per call, and is released
// with Close.
//
// # Addressing
//
// Route: Addresses the remote cloud service a channel connects to,
// either directly (host:port) or through DNS SRV discovery (srv+name).
//
// # Credential Sources
//
// TokenProvider: The boundary to whatever supplies a pre-issued bearer
// credential (static configuration, a secrets store, an external
// identity provider flow running elsewhere). The gateway itself never
// calls it; client tooling does.
package interfaces

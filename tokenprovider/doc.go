/*
Package tokenprovider supplies the bearer credentials the enroll
command authenticates with.

Two providers are available. Static wraps a token handed in directly,
for example from a flag or environment variable. Vault fetches the
token from a HashiCorp Vault KV v2 secret at request time, so rotating
the secret in Vault rotates the credential without restarting anything.
*/
package tokenprovider

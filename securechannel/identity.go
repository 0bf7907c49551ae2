package securechannel

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// GenerateIdentity creates a long-term P-256 identity key for a
// listener. Dialers pin the corresponding public key.
func GenerateIdentity() (*ecdsa.PrivateKey, error) {
	identity, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate identity key: %w", err)
	}
	return identity, nil
}

// MarshalPublicKey serializes an identity public key in PKIX form, the
// shape it travels in during the handshake.
func MarshalPublicKey(key *ecdsa.PublicKey) []byte {
	// MarshalPKIXPublicKey only fails for key types we never produce.
	raw, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		panic(fmt.Sprintf("marshaling ECDSA public key: %v", err))
	}
	return raw
}

// UnmarshalPublicKey parses a PKIX-encoded identity public key and
// rejects anything that is not ECDSA.
func UnmarshalPublicKey(raw []byte) (*ecdsa.PublicKey, error) {
	parsed, err := x509.ParsePKIXPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, not ECDSA", parsed)
	}
	return key, nil
}

// EncodeIdentityPEM serializes an identity private key for storage.
func EncodeIdentityPEM(identity *ecdsa.PrivateKey) ([]byte, error) {
	raw, err := x509.MarshalECPrivateKey(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal identity key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: raw}), nil
}

// DecodeIdentityPEM parses a stored identity private key.
func DecodeIdentityPEM(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "EC PRIVATE KEY" {
		return nil, fmt.Errorf("no EC private key found in PEM data")
	}
	identity, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse identity key: %w", err)
	}
	return identity, nil
}

// EncodePublicKeyPEM serializes an identity public key for
// distribution to dialers that pin it.
func EncodePublicKeyPEM(key *ecdsa.PublicKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: MarshalPublicKey(key)})
}

// DecodePublicKeyPEM parses a distributed identity public key.
func DecodePublicKeyPEM(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("no public key found in PEM data")
	}
	return UnmarshalPublicKey(block.Bytes)
}

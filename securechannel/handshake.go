package securechannel

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"net"

	"github.com/waqasraz/ockam/api"
	"golang.org/x/crypto/hkdf"
)

// channelVersion is the handshake version both sides must agree on.
const channelVersion = 1

// hkdfInfo binds derived keys to this protocol and version.
const hkdfInfo = "enrollment-secure-channel v1"

// clientHello opens the handshake. It carries only ephemeral material,
// so nothing in it identifies the dialer.
type clientHello struct {
	Version   uint8  `cbor:"0,keyasint"`
	Ephemeral []byte `cbor:"1,keyasint"`
}

// serverHello answers with the listener's ephemeral share, its
// long-term identity key and a signature over the transcript proving
// possession of that key.
type serverHello struct {
	Version   uint8  `cbor:"0,keyasint"`
	Ephemeral []byte `cbor:"1,keyasint"`
	Identity  []byte `cbor:"2,keyasint"`
	Signature []byte `cbor:"3,keyasint"`
}

// transcript digests both ephemeral shares in wire order. The listener
// signs this digest; a mismatch on either side aborts the handshake.
func transcript(clientEphemeral, serverEphemeral []byte) []byte {
	h := sha256.New()
	h.Write(clientEphemeral)
	h.Write(serverEphemeral)
	return h.Sum(nil)
}

// deriveKeys stretches the ECDH shared secret into two directional
// AES-256 keys. The dialer seals with the initiator key and opens with
// the responder key; the listener does the reverse.
func deriveKeys(sharedSecret, clientEphemeral, serverEphemeral []byte) (initiatorKey, responderKey []byte, err error) {
	salt := transcript(clientEphemeral, serverEphemeral)
	kdf := hkdf.New(sha256.New, sharedSecret, salt, []byte(hkdfInfo))

	initiatorKey = make([]byte, 32)
	if _, err := io.ReadFull(kdf, initiatorKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive initiator key: %w", err)
	}
	responderKey = make([]byte, 32)
	if _, err := io.ReadFull(kdf, responderKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive responder key: %w", err)
	}
	return initiatorKey, responderKey, nil
}

// dialHandshake runs the initiator side on a fresh connection and
// returns the directional sealers. If expected is non-nil the
// listener's identity must match it exactly.
func dialHandshake(conn net.Conn, expected *ecdsa.PublicKey) (seal, open *sealer, err error) {
	// Generate an ephemeral key pair for this channel only.
	ephemeral, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}

	hello, err := api.EncodeBody(clientHello{
		Version:   channelVersion,
		Ephemeral: ephemeral.PublicKey().Bytes(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode client hello: %w", err)
	}
	if err := writeFrame(conn, hello); err != nil {
		return nil, nil, fmt.Errorf("failed to send client hello: %w", err)
	}

	raw, err := readFrame(conn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read server hello: %w", err)
	}
	var answer serverHello
	if err := api.DecodeBody(raw, &answer); err != nil {
		return nil, nil, fmt.Errorf("failed to decode server hello: %w", err)
	}
	if answer.Version != channelVersion {
		return nil, nil, fmt.Errorf("unsupported channel version %d", answer.Version)
	}

	// Verify the listener signed this handshake with its identity key.
	identity, err := UnmarshalPublicKey(answer.Identity)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse listener identity: %w", err)
	}
	if expected != nil && !expected.Equal(identity) {
		return nil, nil, fmt.Errorf("listener identity does not match the pinned key")
	}
	digest := transcript(ephemeral.PublicKey().Bytes(), answer.Ephemeral)
	if !ecdsa.VerifyASN1(identity, digest, answer.Signature) {
		return nil, nil, fmt.Errorf("invalid handshake signature")
	}

	remote, err := ecdh.P256().NewPublicKey(answer.Ephemeral)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse listener ephemeral key: %w", err)
	}
	sharedSecret, err := ephemeral.ECDH(remote)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute shared secret: %w", err)
	}

	initiatorKey, responderKey, err := deriveKeys(sharedSecret, ephemeral.PublicKey().Bytes(), answer.Ephemeral)
	if err != nil {
		return nil, nil, err
	}
	if seal, err = newSealer(initiatorKey); err != nil {
		return nil, nil, err
	}
	if open, err = newSealer(responderKey); err != nil {
		return nil, nil, err
	}
	return seal, open, nil
}

// acceptHandshake runs the responder side on an accepted connection,
// signing the transcript with the listener's identity key.
func acceptHandshake(conn net.Conn, identity *ecdsa.PrivateKey) (seal, open *sealer, err error) {
	raw, err := readFrame(conn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read client hello: %w", err)
	}
	var hello clientHello
	if err := api.DecodeBody(raw, &hello); err != nil {
		return nil, nil, fmt.Errorf("failed to decode client hello: %w", err)
	}
	if hello.Version != channelVersion {
		return nil, nil, fmt.Errorf("unsupported channel version %d", hello.Version)
	}
	remote, err := ecdh.P256().NewPublicKey(hello.Ephemeral)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse client ephemeral key: %w", err)
	}

	ephemeral, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}
	sharedSecret, err := ephemeral.ECDH(remote)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute shared secret: %w", err)
	}

	digest := transcript(hello.Ephemeral, ephemeral.PublicKey().Bytes())
	signature, err := ecdsa.SignASN1(rand.Reader, identity, digest)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sign handshake transcript: %w", err)
	}
	answer, err := api.EncodeBody(serverHello{
		Version:   channelVersion,
		Ephemeral: ephemeral.PublicKey().Bytes(),
		Identity:  MarshalPublicKey(&identity.PublicKey),
		Signature: signature,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode server hello: %w", err)
	}
	if err := writeFrame(conn, answer); err != nil {
		return nil, nil, fmt.Errorf("failed to send server hello: %w", err)
	}

	initiatorKey, responderKey, err := deriveKeys(sharedSecret, hello.Ephemeral, ephemeral.PublicKey().Bytes())
	if err != nil {
		return nil, nil, err
	}
	if seal, err = newSealer(responderKey); err != nil {
		return nil, nil, err
	}
	if open, err = newSealer(initiatorKey); err != nil {
		return nil, nil, err
	}
	return seal, open, nil
}

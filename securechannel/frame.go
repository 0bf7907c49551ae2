package securechannel

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/waqasraz/ockam/api"
)

// maxFrameSize caps a single frame, sealed or plain. Oversized frames
// abort the connection before any allocation.
const maxFrameSize = 1 << 20

// channelFrame is the plaintext unit exchanged after the handshake.
// Request frames name the service they address; response frames leave
// it empty. Data carries an opaque payload the channel never inspects.
type channelFrame struct {
	Service string `cbor:"0,keyasint,omitempty"`
	Data    []byte `cbor:"1,keyasint"`
}

// writeFrame sends one length-prefixed frame.
func writeFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds the %d byte limit", len(payload), maxFrameSize)
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readFrame reads one length-prefixed frame.
func readFrame(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds the %d byte limit", size, maxFrameSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// sealer encrypts or decrypts one direction of a channel. Nonces are a
// monotonic counter, so the two directions must use distinct keys and
// a sealer must never be shared between them.
type sealer struct {
	aead    cipher.AEAD
	counter uint64
}

func newSealer(key []byte) (*sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &sealer{aead: aead}, nil
}

// nextNonce returns the counter as a big-endian suffix of a zeroed
// 12-byte nonce and advances it.
func (s *sealer) nextNonce() []byte {
	nonce := make([]byte, s.aead.NonceSize())
	binary.BigEndian.PutUint64(nonce[len(nonce)-8:], s.counter)
	s.counter++
	return nonce
}

func (s *sealer) seal(plaintext []byte) []byte {
	nonce := s.nextNonce()
	return s.aead.Seal(nonce, nonce, plaintext, nil)
}

func (s *sealer) open(sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, fmt.Errorf("sealed frame shorter than its nonce")
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open sealed frame: %w", err)
	}
	return plaintext, nil
}

// writeSealedFrame seals one channel frame and sends it.
func writeSealedFrame(w io.Writer, s *sealer, frame channelFrame) error {
	plaintext, err := api.EncodeBody(frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return writeFrame(w, s.seal(plaintext))
}

// readSealedFrame reads one frame and opens it.
func readSealedFrame(r io.Reader, s *sealer) (channelFrame, error) {
	sealed, err := readFrame(r)
	if err != nil {
		return channelFrame{}, err
	}
	plaintext, err := s.open(sealed)
	if err != nil {
		return channelFrame{}, err
	}
	var frame channelFrame
	if err := api.DecodeBody(plaintext, &frame); err != nil {
		return channelFrame{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	return frame, nil
}

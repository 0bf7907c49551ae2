package api

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrSchemaTag reports a decoded wire struct whose schema tag does not
// match the tag expected at that position.
var ErrSchemaTag = errors.New("unexpected wire schema tag")

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// EncodeBody serializes a payload for embedding into an envelope body.
func EncodeBody(payload any) ([]byte, error) {
	return encMode.Marshal(payload)
}

// DecodeBody deserializes an envelope body into dst. Schema tag
// validation is the caller's responsibility; tagged payload types ship
// their own decode helpers.
func DecodeBody(body []byte, dst any) error {
	return decMode.Unmarshal(body, dst)
}

// DecodeStringBody decodes a plain string payload, the shape error
// bodies carry.
func DecodeStringBody(body []byte) (string, error) {
	var s string
	if err := decMode.Unmarshal(body, &s); err != nil {
		return "", fmt.Errorf("decoding string body: %w", err)
	}
	return s, nil
}

// CheckTag validates a decoded schema tag against the expected constant.
func CheckTag(got, want TypeTag) error {
	if got != want {
		return fmt.Errorf("%w: got %d, want %d", ErrSchemaTag, got, want)
	}
	return nil
}

// Encode serializes the request envelope.
func (r Request) Encode() ([]byte, error) {
	return encMode.Marshal(r)
}

// DecodeRequest parses a request envelope and validates its schema tag.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := decMode.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decoding request envelope: %w", err)
	}
	if err := CheckTag(req.Tag, TagRequest); err != nil {
		return nil, fmt.Errorf("request envelope: %w", err)
	}
	return &req, nil
}

// Encode serializes the response envelope.
func (r Response) Encode() ([]byte, error) {
	return encMode.Marshal(r)
}

// DecodeResponse parses a response envelope and validates its schema tag.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := decMode.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding response envelope: %w", err)
	}
	if err := CheckTag(resp.Tag, TagResponse); err != nil {
		return nil, fmt.Errorf("response envelope: %w", err)
	}
	return &resp, nil
}

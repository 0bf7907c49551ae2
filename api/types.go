package api

import "fmt"

// Id identifies a request envelope. The response answering a request
// echoes its id.
type Id uint32

// Method enumerates the operations a request envelope can carry.
// Values are wire-stable.
type Method uint8

const (
	Get Method = iota
	Post
	Put
	Delete
	Patch
)

// String returns the method name in HTTP convention.
func (m Method) String() string {
	switch m {
	case Get:
		return "GET"
	case Post:
		return "POST"
	case Put:
		return "PUT"
	case Delete:
		return "DELETE"
	case Patch:
		return "PATCH"
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

// Status is the outcome code of a response envelope. Values follow HTTP
// status semantics and are wire-stable.
type Status uint16

const (
	StatusOk                  Status = 200
	StatusBadRequest          Status = 400
	StatusNotFound            Status = 404
	StatusMethodNotAllowed    Status = 405
	StatusInternalServerError Status = 500
)

// String returns a short lowercase name for the status.
func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusBadRequest:
		return "bad-request"
	case StatusNotFound:
		return "not-found"
	case StatusMethodNotAllowed:
		return "method-not-allowed"
	case StatusInternalServerError:
		return "internal-server-error"
	default:
		return fmt.Sprintf("status(%d)", uint16(s))
	}
}

// TypeTag is a fixed numeric schema discriminant carried in field 0 of
// every tagged wire struct. Encoders write the constant belonging to
// the struct; decoders reject a payload whose tag differs from the
// constant expected at that position.
type TypeTag uint64

// Schema tags for the envelope structs. Payload schemas define their
// own tags next to their types.
const (
	TagRequest  TypeTag = 7586022
	TagResponse TypeTag = 9750358
)

// Request is the envelope for a single operation sent to a node API or
// a remote service.
type Request struct {
	Tag    TypeTag `cbor:"0,keyasint"`
	ID     Id      `cbor:"1,keyasint"`
	Path   string  `cbor:"2,keyasint"`
	Method Method  `cbor:"3,keyasint"`
	Body   []byte  `cbor:"4,keyasint,omitempty"`
}

// NewRequest returns a request envelope carrying an already-encoded
// payload. A nil body is valid for operations without one.
func NewRequest(id Id, method Method, path string, body []byte) Request {
	return Request{Tag: TagRequest, ID: id, Path: path, Method: method, Body: body}
}

// HasBody reports whether the envelope carries a payload.
func (r *Request) HasBody() bool {
	return len(r.Body) > 0
}

// Response is the envelope answering exactly one request.
type Response struct {
	Tag    TypeTag `cbor:"0,keyasint"`
	ID     Id      `cbor:"1,keyasint"`
	Status Status  `cbor:"2,keyasint"`
	Body   []byte  `cbor:"3,keyasint,omitempty"`
}

// NewResponse returns a body-less response envelope answering request
// id re.
func NewResponse(re Id, status Status) Response {
	return Response{Tag: TagResponse, ID: re, Status: status}
}

// WithBody returns a copy of the response carrying the encoded payload.
func (r Response) WithBody(payload any) (Response, error) {
	body, err := EncodeBody(payload)
	if err != nil {
		return Response{}, fmt.Errorf("encoding response body: %w", err)
	}
	r.Body = body
	return r, nil
}

// HasBody reports whether the envelope carries a payload.
func (r *Response) HasBody() bool {
	return len(r.Body) > 0
}

// IsOk reports whether the response signals success.
func (r *Response) IsOk() bool {
	return r.Status == StatusOk
}

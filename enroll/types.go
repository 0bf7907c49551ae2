package enroll

import (
	"errors"
	"fmt"

	"github.com/waqasraz/ockam/api"
)

// Schema tags for the enrollment payload structs.
const (
	TagAuthenticateBearerToken     api.TypeTag = 1058055
	TagRequestEnrollmentToken      api.TypeTag = 8560526
	TagEnrollmentToken             api.TypeTag = 8932763
	TagAuthenticateEnrollmentToken api.TypeTag = 9463780
)

// Names of the remote authenticator services.
const (
	BearerAuthenticatorService     = "auth0_authenticator"
	EnrollmentAuthenticatorService = "enrollment_token_authenticator"
)

// ErrEmptyToken reports a credential with an empty token value.
var ErrEmptyToken = errors.New("empty token")

// Token is an opaque string credential: a bearer access token or an
// enrollment token value. A token is never mutated, only replaced.
type Token string

// NewToken returns a token after checking non-emptiness, the only
// validation tokens receive here.
func NewToken(s string) (Token, error) {
	if s == "" {
		return "", ErrEmptyToken
	}
	return Token(s), nil
}

// String returns the token value.
func (t Token) String() string {
	return string(t)
}

// TokenType tags the kind of an access token. Bearer is the only kind
// currently issued; the value is wire-stable so future kinds can be
// added without renumbering.
type TokenType uint8

// TokenTypeBearer marks a bearer access token.
const TokenTypeBearer TokenType = 0

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenTypeBearer:
		return "Bearer"
	default:
		return fmt.Sprintf("token-type(%d)", uint8(t))
	}
}

func (t TokenType) validate() error {
	if t != TokenTypeBearer {
		return fmt.Errorf("unknown token type %d", uint8(t))
	}
	return nil
}

// Attributes is an opaque key/value mapping bound to an enrollment
// token at issuance. It is passed through to the cloud unmodified and
// never interpreted locally.
type Attributes map[string]string

// BearerToken is a pre-issued access token obtained from an external
// identity provider, the credential the bearer flow proves possession
// of.
type BearerToken struct {
	Type        TokenType
	AccessToken Token
}

// NewBearerToken returns a bearer-typed access token.
func NewBearerToken(accessToken Token) BearerToken {
	return BearerToken{Type: TokenTypeBearer, AccessToken: accessToken}
}

// AuthenticateBearerToken asks a remote authenticator to validate a
// pre-issued bearer credential.
type AuthenticateBearerToken struct {
	Tag         api.TypeTag `cbor:"0,keyasint"`
	Type        TokenType   `cbor:"1,keyasint"`
	AccessToken Token       `cbor:"2,keyasint"`
}

// NewAuthenticateBearerToken wraps a bearer credential for the wire.
func NewAuthenticateBearerToken(token BearerToken) AuthenticateBearerToken {
	return AuthenticateBearerToken{
		Tag:         TagAuthenticateBearerToken,
		Type:        token.Type,
		AccessToken: token.AccessToken,
	}
}

// DecodeAuthenticateBearerToken parses the payload and validates its
// schema tag, token type and token non-emptiness.
func DecodeAuthenticateBearerToken(body []byte) (*AuthenticateBearerToken, error) {
	var v AuthenticateBearerToken
	if err := api.DecodeBody(body, &v); err != nil {
		return nil, fmt.Errorf("decoding authenticate bearer token: %w", err)
	}
	if err := api.CheckTag(v.Tag, TagAuthenticateBearerToken); err != nil {
		return nil, err
	}
	if err := v.Type.validate(); err != nil {
		return nil, err
	}
	if v.AccessToken == "" {
		return nil, fmt.Errorf("authenticate bearer token: %w", ErrEmptyToken)
	}
	return &v, nil
}

// RequestEnrollmentToken asks the enrollment authenticator to mint a
// token bound to the given attributes.
type RequestEnrollmentToken struct {
	Tag        api.TypeTag `cbor:"0,keyasint"`
	Attributes Attributes  `cbor:"1,keyasint"`
}

// NewRequestEnrollmentToken wraps an attribute set for the wire.
func NewRequestEnrollmentToken(attrs Attributes) RequestEnrollmentToken {
	return RequestEnrollmentToken{Tag: TagRequestEnrollmentToken, Attributes: attrs}
}

// DecodeRequestEnrollmentToken parses the payload and validates its
// schema tag. The attribute set itself stays opaque, including when
// empty.
func DecodeRequestEnrollmentToken(body []byte) (*RequestEnrollmentToken, error) {
	var v RequestEnrollmentToken
	if err := api.DecodeBody(body, &v); err != nil {
		return nil, fmt.Errorf("decoding request enrollment token: %w", err)
	}
	if err := api.CheckTag(v.Tag, TagRequestEnrollmentToken); err != nil {
		return nil, err
	}
	return &v, nil
}

// EnrollmentToken is the minted credential the cloud returns to the
// caller.
type EnrollmentToken struct {
	Tag   api.TypeTag `cbor:"0,keyasint"`
	Token Token       `cbor:"1,keyasint"`
}

// NewEnrollmentToken wraps a minted token for the wire.
func NewEnrollmentToken(token Token) EnrollmentToken {
	return EnrollmentToken{Tag: TagEnrollmentToken, Token: token}
}

// DecodeEnrollmentToken parses the payload and validates its schema tag
// and token non-emptiness.
func DecodeEnrollmentToken(body []byte) (*EnrollmentToken, error) {
	var v EnrollmentToken
	if err := api.DecodeBody(body, &v); err != nil {
		return nil, fmt.Errorf("decoding enrollment token: %w", err)
	}
	if err := api.CheckTag(v.Tag, TagEnrollmentToken); err != nil {
		return nil, err
	}
	if v.Token == "" {
		return nil, fmt.Errorf("enrollment token: %w", ErrEmptyToken)
	}
	return &v, nil
}

// AuthenticateEnrollmentToken redeems a previously minted enrollment
// token for authenticated status.
type AuthenticateEnrollmentToken struct {
	Tag   api.TypeTag `cbor:"0,keyasint"`
	Token Token       `cbor:"1,keyasint"`
}

// NewAuthenticateEnrollmentToken wraps the token extracted from a
// minted EnrollmentToken for redemption.
func NewAuthenticateEnrollmentToken(token Token) AuthenticateEnrollmentToken {
	return AuthenticateEnrollmentToken{Tag: TagAuthenticateEnrollmentToken, Token: token}
}

// DecodeAuthenticateEnrollmentToken parses the payload and validates
// its schema tag and token non-emptiness.
func DecodeAuthenticateEnrollmentToken(body []byte) (*AuthenticateEnrollmentToken, error) {
	var v AuthenticateEnrollmentToken
	if err := api.DecodeBody(body, &v); err != nil {
		return nil, fmt.Errorf("decoding authenticate enrollment token: %w", err)
	}
	if err := api.CheckTag(v.Tag, TagAuthenticateEnrollmentToken); err != nil {
		return nil, err
	}
	if v.Token == "" {
		return nil, fmt.Errorf("authenticate enrollment token: %w", ErrEmptyToken)
	}
	return &v, nil
}

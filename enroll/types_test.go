package enroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waqasraz/ockam/api"
)

func TestBearerTokenRoundTrip(t *testing.T) {
	payload := NewAuthenticateBearerToken(NewBearerToken("at-77"))

	body, err := api.EncodeBody(payload)
	require.NoError(t, err)

	decoded, err := DecodeAuthenticateBearerToken(body)
	require.NoError(t, err)
	require.Equal(t, payload, *decoded)
	require.Equal(t, TokenTypeBearer, decoded.Type)
}

func TestEnrollmentTokenRoundTrip(t *testing.T) {
	body, err := api.EncodeBody(NewEnrollmentToken("tok-123"))
	require.NoError(t, err)

	decoded, err := DecodeEnrollmentToken(body)
	require.NoError(t, err)
	require.Equal(t, Token("tok-123"), decoded.Token)
}

func TestAttributesPassThrough(t *testing.T) {
	attrs := Attributes{"role": "admin", "env": "staging"}

	body, err := api.EncodeBody(NewRequestEnrollmentToken(attrs))
	require.NoError(t, err)

	decoded, err := DecodeRequestEnrollmentToken(body)
	require.NoError(t, err)
	require.Equal(t, attrs, decoded.Attributes)
}

func TestEmptyAttributesAreValid(t *testing.T) {
	body, err := api.EncodeBody(NewRequestEnrollmentToken(nil))
	require.NoError(t, err)

	_, err = DecodeRequestEnrollmentToken(body)
	require.NoError(t, err)
}

// EnrollmentToken and AuthenticateEnrollmentToken share a shape; only
// the schema tag keeps them apart.
func TestSiblingSchemaRejectedByTag(t *testing.T) {
	body, err := api.EncodeBody(NewEnrollmentToken("tok-123"))
	require.NoError(t, err)

	_, err = DecodeAuthenticateEnrollmentToken(body)
	require.ErrorIs(t, err, api.ErrSchemaTag)

	body, err = api.EncodeBody(NewAuthenticateEnrollmentToken("tok-123"))
	require.NoError(t, err)

	_, err = DecodeEnrollmentToken(body)
	require.ErrorIs(t, err, api.ErrSchemaTag)
}

func TestBearerDecodeRejectsEnrollmentPayload(t *testing.T) {
	body, err := api.EncodeBody(NewAuthenticateEnrollmentToken("tok-123"))
	require.NoError(t, err)

	_, err = DecodeAuthenticateBearerToken(body)
	require.Error(t, err)
}

func TestDecodeRejectsEmptyToken(t *testing.T) {
	body, err := api.EncodeBody(AuthenticateEnrollmentToken{Tag: TagAuthenticateEnrollmentToken})
	require.NoError(t, err)
	_, err = DecodeAuthenticateEnrollmentToken(body)
	require.ErrorIs(t, err, ErrEmptyToken)

	body, err = api.EncodeBody(AuthenticateBearerToken{Tag: TagAuthenticateBearerToken})
	require.NoError(t, err)
	_, err = DecodeAuthenticateBearerToken(body)
	require.ErrorIs(t, err, ErrEmptyToken)

	body, err = api.EncodeBody(EnrollmentToken{Tag: TagEnrollmentToken})
	require.NoError(t, err)
	_, err = DecodeEnrollmentToken(body)
	require.ErrorIs(t, err, ErrEmptyToken)
}

func TestDecodeRejectsUnknownTokenType(t *testing.T) {
	body, err := api.EncodeBody(AuthenticateBearerToken{
		Tag:         TagAuthenticateBearerToken,
		Type:        TokenType(7),
		AccessToken: "at-77",
	})
	require.NoError(t, err)

	_, err = DecodeAuthenticateBearerToken(body)
	require.ErrorContains(t, err, "unknown token type")
}

func TestNewToken(t *testing.T) {
	tok, err := NewToken("tok-123")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok.String())

	_, err = NewToken("")
	require.ErrorIs(t, err, ErrEmptyToken)
}

package cloud

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/waqasraz/ockam/enroll"
)

// BearerVerifier checks a project member's access token and reports
// the attributes the identity provider vouches for.
type BearerVerifier interface {
	Verify(ctx context.Context, accessToken enroll.Token) (enroll.Attributes, error)
}

// JWTVerifier accepts HS256 JWTs signed with a shared secret. Every
// string-valued claim becomes an attribute.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for tokens signed with secret.
func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

// Verify parses and validates the token, including its expiry.
func (v *JWTVerifier) Verify(_ context.Context, accessToken enroll.Token) (enroll.Attributes, error) {
	token, err := jwt.Parse(accessToken.String(), func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify access token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("access token is not valid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("access token carries no claims")
	}

	attributes := enroll.Attributes{}
	for name, value := range claims {
		if text, ok := value.(string); ok {
			attributes[name] = text
		}
	}
	return attributes, nil
}

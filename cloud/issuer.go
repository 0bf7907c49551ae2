package cloud

import (
	"context"

	"github.com/google/uuid"
	"github.com/waqasraz/ockam/enroll"
)

// TokenIssuer mints the opaque values enrollment tokens carry.
type TokenIssuer interface {
	Issue(ctx context.Context) (enroll.Token, error)
}

// RandomTokenIssuer issues unguessable random tokens. This is the
// issuer production deployments want.
type RandomTokenIssuer struct{}

// Issue returns a fresh random token.
func (RandomTokenIssuer) Issue(context.Context) (enroll.Token, error) {
	return enroll.Token(uuid.New().String()), nil
}

// FixedTokenIssuer issues the same token on every request. Useful for
// tests and demos that need a predictable value.
type FixedTokenIssuer struct {
	Token enroll.Token
}

// Issue returns the configured token.
func (i FixedTokenIssuer) Issue(context.Context) (enroll.Token, error) {
	return i.Token, nil
}

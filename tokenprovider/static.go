package tokenprovider

import (
	"context"

	"github.com/waqasraz/ockam/enroll"
)

// Static hands out one fixed bearer token.
type Static struct {
	token enroll.BearerToken
}

// NewStatic creates a provider for the given access token.
func NewStatic(accessToken enroll.Token) (*Static, error) {
	token, err := enroll.NewToken(accessToken.String())
	if err != nil {
		return nil, err
	}
	return &Static{token: enroll.NewBearerToken(token)}, nil
}

// AccessToken returns the configured token.
func (p *Static) AccessToken(context.Context) (enroll.BearerToken, error) {
	return p.token, nil
}

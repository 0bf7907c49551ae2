package cloud

import (
	"context"
	"log/slog"
	"time"

	"github.com/waqasraz/ockam/api"
	"github.com/waqasraz/ockam/enroll"
	"github.com/waqasraz/ockam/securechannel"
)

// Config configures the reference authenticator.
type Config struct {
	// BearerSecret is the HS256 secret project access tokens are
	// signed with. Ignored when Verifier is set.
	BearerSecret []byte

	// Verifier overrides the default JWT verifier.
	Verifier BearerVerifier

	// Issuer mints enrollment token values. Nil selects random
	// tokens.
	Issuer TokenIssuer

	// TokenTTL bounds how long issued tokens stay redeemable. Zero
	// selects DefaultTokenTTL.
	TokenTTL time.Duration

	Log *slog.Logger
}

// Authenticator serves both cloud-side authenticator services: bearer
// token verification and enrollment token issuance and redemption.
type Authenticator struct {
	verifier BearerVerifier
	issuer   TokenIssuer
	store    *TokenStore
	log      *slog.Logger
}

// New creates an authenticator from the given configuration.
func New(cfg Config) *Authenticator {
	verifier := cfg.Verifier
	if verifier == nil {
		verifier = NewJWTVerifier(cfg.BearerSecret)
	}
	issuer := cfg.Issuer
	if issuer == nil {
		issuer = RandomTokenIssuer{}
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Authenticator{
		verifier: verifier,
		issuer:   issuer,
		store:    NewTokenStore(cfg.TokenTTL),
		log:      log,
	}
}

// Mount registers both authenticator services on the listener.
func (a *Authenticator) Mount(listener *securechannel.Listener) {
	listener.Register(enroll.BearerAuthenticatorService, a.handleBearer)
	listener.Register(enroll.EnrollmentAuthenticatorService, a.handleEnrollment)
}

func respond(id api.Id, status api.Status) ([]byte, error) {
	return api.NewResponse(id, status).Encode()
}

// handleBearer verifies a project member's access token and answers
// with the attributes the identity provider vouches for.
func (a *Authenticator) handleBearer(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := api.DecodeRequest(payload)
	if err != nil {
		a.log.Warn("rejecting undecodable bearer request", "err", err)
		return respond(0, api.StatusBadRequest)
	}
	if req.Method != api.Post {
		return respond(req.ID, api.StatusMethodNotAllowed)
	}
	if req.Path != "/enroll" {
		return respond(req.ID, api.StatusNotFound)
	}

	credential, err := enroll.DecodeAuthenticateBearerToken(req.Body)
	if err != nil {
		a.log.Warn("rejecting malformed bearer credential", "err", err)
		return respond(req.ID, api.StatusBadRequest)
	}
	attributes, err := a.verifier.Verify(ctx, credential.AccessToken)
	if err != nil {
		a.log.Info("rejected access token", "err", err)
		return respond(req.ID, api.StatusBadRequest)
	}

	a.log.Info("authenticated project member", "attributes", len(attributes))
	resp, err := api.NewResponse(req.ID, api.StatusOk).WithBody(attributes)
	if err != nil {
		return nil, err
	}
	return resp.Encode()
}

// handleEnrollment issues enrollment tokens at the root path and
// redeems them at the enrollment path.
func (a *Authenticator) handleEnrollment(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := api.DecodeRequest(payload)
	if err != nil {
		a.log.Warn("rejecting undecodable enrollment request", "err", err)
		return respond(0, api.StatusBadRequest)
	}
	if req.Method != api.Post {
		return respond(req.ID, api.StatusMethodNotAllowed)
	}

	switch req.Path {
	case "/":
		return a.issueToken(ctx, req)
	case "/enroll":
		return a.redeemToken(req)
	default:
		return respond(req.ID, api.StatusNotFound)
	}
}

func (a *Authenticator) issueToken(ctx context.Context, req *api.Request) ([]byte, error) {
	request, err := enroll.DecodeRequestEnrollmentToken(req.Body)
	if err != nil {
		a.log.Warn("rejecting malformed token request", "err", err)
		return respond(req.ID, api.StatusBadRequest)
	}
	token, err := a.issuer.Issue(ctx)
	if err != nil {
		a.log.Error("failed to issue enrollment token", "err", err)
		return respond(req.ID, api.StatusInternalServerError)
	}
	a.store.Put(token, request.Attributes)

	a.log.Info("issued enrollment token", "attributes", len(request.Attributes))
	resp, err := api.NewResponse(req.ID, api.StatusOk).WithBody(enroll.NewEnrollmentToken(token))
	if err != nil {
		return nil, err
	}
	return resp.Encode()
}

func (a *Authenticator) redeemToken(req *api.Request) ([]byte, error) {
	credential, err := enroll.DecodeAuthenticateEnrollmentToken(req.Body)
	if err != nil {
		a.log.Warn("rejecting malformed enrollment credential", "err", err)
		return respond(req.ID, api.StatusBadRequest)
	}
	attributes, ok := a.store.Redeem(credential.Token)
	if !ok {
		a.log.Info("rejected unknown or expired enrollment token")
		return respond(req.ID, api.StatusBadRequest)
	}

	a.log.Info("redeemed enrollment token", "attributes", len(attributes))
	return respond(req.ID, api.StatusOk)
}

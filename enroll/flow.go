package enroll

// AuthenticationFlow selects which remote authenticator validates a
// credential: the bearer flow for identity-provider access tokens, the
// enrollment flow for previously minted enrollment tokens. A flow built
// by one of the constructors carries exactly the payload of its
// variant; the zero value is not a valid flow.
type AuthenticationFlow struct {
	bearer     *AuthenticateBearerToken
	enrollment *AuthenticateEnrollmentToken
}

// BearerFlow returns the flow validating a pre-issued bearer credential.
func BearerFlow(body AuthenticateBearerToken) AuthenticationFlow {
	return AuthenticationFlow{bearer: &body}
}

// EnrollmentFlow returns the flow redeeming a minted enrollment token.
func EnrollmentFlow(body AuthenticateEnrollmentToken) AuthenticationFlow {
	return AuthenticationFlow{enrollment: &body}
}

// Target returns the remote service name, outbound request path and
// payload for the flow. Pure computation, no I/O.
func (f AuthenticationFlow) Target() (service string, path string, body any) {
	if f.bearer != nil {
		return BearerAuthenticatorService, "/enroll", f.bearer
	}
	return EnrollmentAuthenticatorService, "/enroll", f.enrollment
}

// Name returns the flow variant name for logging.
func (f AuthenticationFlow) Name() string {
	if f.bearer != nil {
		return "bearer"
	}
	return "enrollment"
}

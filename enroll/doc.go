/*
Package enroll defines the credential model of the enrollment protocol:
tokens, attribute sets, the tagged wire payloads exchanged with remote
authenticators, and the authentication flow selector.

# Credentials

A Token is an opaque string credential. Two kinds circulate here: a
bearer access token pre-issued by an external identity provider, and an
enrollment token minted by the cloud, bound to caller-supplied
attributes and later redeemed to complete enrollment. Tokens are
immutable values; the only validation this package applies is
non-emptiness.

# Wire Payloads

Four payload schemas cross the wire, each carrying its fixed schema tag
in field 0 (see the api package for tag semantics):

	AuthenticateBearerToken     {0: tag, 1: token_type, 2: access_token}
	RequestEnrollmentToken      {0: tag, 1: attributes}
	EnrollmentToken             {0: tag, 1: token}
	AuthenticateEnrollmentToken {0: tag, 1: token}

EnrollmentToken and AuthenticateEnrollmentToken share a shape on
purpose; their tags are what keep a minted token from being mistaken
for a redemption request during decode.

# Flows

AuthenticationFlow is a two-armed union selecting the remote
authenticator for a credential: the bearer flow targets the identity
provider's authenticator, the enrollment flow targets the enrollment
token authenticator. Constructing a flow fixes its payload; the zero
value is not a valid flow.
*/
package enroll

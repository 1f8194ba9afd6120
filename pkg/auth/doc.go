// Package auth defines the authenticated identity model and credential
// verification.
//
// The decision core never parses credentials itself: it consumes an
// IdentityClaim produced by a Verifier. Two verifiers are provided, an
// opaque API-token verifier (tokens hashed at rest, never stored in the
// clear) and an OIDC ID-token verifier. Any verifier failure means "no
// identity" and maps to 401 at the transport.
//
// A verifier deliberately does not validate the role it extracts: an
// identity carrying an unrecognized role still authenticates, and the
// authorization gate then denies every request for it as a configuration
// fault, which is the signal operators alert on.
package auth

// Package token defines the access-token payload codec and the JWT signer
// that wraps encoded payloads into signed, expiring access tokens.
//
// The payload is a fixed-width user id segment followed by a delimiter-joined
// role list. Encoding is deterministic and reversible; decoding is
// all-or-nothing and rejects anything that does not match the expected
// pattern with [ErrMalformedPayload].
//
// The signer is HS256 over golang-jwt/v5. The signing key is process-wide
// configuration: loaded once at construction and never rotated within a
// process lifetime.
package token

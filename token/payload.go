package token

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// IDLength is the exact length of a user id inside an encoded payload.
// User ids are UUID strings, so the segment is fixed at 36 characters.
const IDLength = 36

// Delimiter separates the id segment from the role list and roles from
// each other. Role names must never contain it.
const Delimiter = ":"

var (
	// ErrMalformedPayload is returned when a payload cannot be encoded or
	// decoded. Decoding never yields a partial result.
	ErrMalformedPayload = errors.New("malformed token payload")

	// ErrExpired is returned by [Signer.Verify] when the token is past its
	// expiry. The signature was valid; the caller may recover by renewing.
	ErrExpired = errors.New("access token expired")

	// ErrInvalidSignature is returned by [Signer.Verify] on any signature or
	// structural failure. It is fatal and must never be retried.
	ErrInvalidSignature = errors.New("invalid access token signature")
)

var (
	idPattern      = regexp.MustCompile(`^[0-9a-zA-Z-]{36}$`)
	rolePattern    = regexp.MustCompile(`^[a-z0-9_-]+$`)
	payloadPattern = regexp.MustCompile(`^[0-9a-zA-Z-]{36}(:[a-z0-9_-]+)*$`)
)

// Payload is the identity snapshot embedded in an access token: the user id
// and the user's role set as of issuance time. It is never persisted.
type Payload struct {
	UserID string
	Roles  []string
}

// HasRole reports whether the payload's role snapshot contains name.
func (p Payload) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// EncodePayload renders p into its canonical string form: the fixed-width
// user id segment followed by the delimiter-joined role list.
//
// Encoding fails when the user id is not exactly [IDLength] characters of
// the id charset, or when any role name falls outside the role charset
// (which excludes the delimiter).
func EncodePayload(p Payload) (string, error) {
	if !idPattern.MatchString(p.UserID) {
		return "", fmt.Errorf("%w: user id must be %d chars of [0-9a-zA-Z-]", ErrMalformedPayload, IDLength)
	}
	for _, role := range p.Roles {
		if !rolePattern.MatchString(role) {
			return "", fmt.Errorf("%w: invalid role name %q", ErrMalformedPayload, role)
		}
	}
	if len(p.Roles) == 0 {
		return p.UserID, nil
	}
	return p.UserID + Delimiter + strings.Join(p.Roles, Delimiter), nil
}

// DecodePayload is the inverse of [EncodePayload]. Any deviation from the
// expected pattern yields [ErrMalformedPayload] and no partial result.
func DecodePayload(s string) (Payload, error) {
	if !payloadPattern.MatchString(s) {
		return Payload{}, fmt.Errorf("%w: %q does not match payload pattern", ErrMalformedPayload, s)
	}

	p := Payload{UserID: s[:IDLength]}
	if len(s) > IDLength {
		p.Roles = strings.Split(s[IDLength+1:], Delimiter)
	}
	return p, nil
}

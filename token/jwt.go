package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minKeySize = 32

type accessClaims struct {
	Payload string `json:"pl"`
	jwt.RegisteredClaims
}

// Signer issues and verifies signed access tokens carrying an encoded
// payload. The HS256 key is fixed for the lifetime of the process.
type Signer struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewSigner creates a Signer. The key must be at least 32 bytes.
func NewSigner(key []byte, issuer string) (*Signer, error) {
	if len(key) < minKeySize {
		return nil, fmt.Errorf("signing key must be at least %d bytes", minKeySize)
	}
	return &Signer{
		key:    append([]byte(nil), key...),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// WithClock replaces the signer's clock. Intended for tests.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// Issue wraps the encoded payload and an expiry ttl from now into a signed
// compact token.
func (s *Signer) Issue(p Payload, ttl time.Duration) (string, error) {
	encoded, err := EncodePayload(p)
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := accessClaims{
		Payload: encoded,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify checks the signature first and the expiry second, returning the
// decoded payload only when both pass. Signature failures surface as
// [ErrInvalidSignature] even when the token is also expired; expiry alone
// surfaces as [ErrExpired]; structurally broken tokens surface as
// [ErrMalformedPayload].
func (s *Signer) Verify(tokenStr string) (Payload, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &accessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Payload{}, fmt.Errorf("%w: %v", ErrExpired, err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		default:
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return Payload{}, ErrInvalidSignature
	}

	return DecodePayload(claims.Payload)
}

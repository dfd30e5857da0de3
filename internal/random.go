package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const refreshTokenSize = 32

// NewLoginCode generates a random numeric login code of the given length.
// Codes are looked up by value; global uniqueness across users is not
// guaranteed and not required.
func NewLoginCode(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid login code digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	code := b.String()
	if len(code) != digits {
		return "", fmt.Errorf("invalid login code generation length")
	}
	return code, nil
}

// NewRefreshToken generates an opaque refresh token: 32 random bytes,
// base64url without padding.
func NewRefreshToken() (string, error) {
	var raw [refreshTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

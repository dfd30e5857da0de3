package authcore

import (
	"errors"

	"github.com/oleanderhq/authcore/token"
)

var (
	// ErrNotFound covers unknown emails, login codes, and refresh tokens.
	// The transport boundary never distinguishes "doesn't exist" from
	// "expired and purged" through this value, to avoid enumeration leaks.
	ErrNotFound = errors.New("not found")

	// ErrExpired marks a time-boxed record past its deadline. Recoverable
	// by re-issuing, never by retrying the same value.
	ErrExpired = errors.New("expired")

	// ErrDelivery marks a notification transport failure. The issued login
	// code remains valid, so the user can be re-notified without re-issuing.
	ErrDelivery = errors.New("code delivery failed")

	// ErrMalformedPayload marks token payload corruption. Always fatal.
	ErrMalformedPayload = token.ErrMalformedPayload

	// ErrInvalidSignature marks token tampering. Always fatal.
	ErrInvalidSignature = token.ErrInvalidSignature
)

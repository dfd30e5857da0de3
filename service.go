package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oleanderhq/authcore/internal"
	"github.com/oleanderhq/authcore/store"
	"github.com/oleanderhq/authcore/token"
)

// Service owns the login-code and session lifecycles: the stateful half of
// the auth core. Each operation reads the clock exactly once. The Service
// is the only component that touches the credential store.
type Service struct {
	cfg    Config
	signer *token.Signer
	store  *store.Store
	now    func() time.Time
}

// NewService wires the service from its validated parts. Most callers go
// through [Builder.Build] instead.
func NewService(cfg Config, signer *token.Signer, st *store.Store) *Service {
	return &Service{
		cfg:    cfg,
		signer: signer,
		store:  st,
		now:    time.Now,
	}
}

// WithClock replaces the service's clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// IssueLoginCode generates a random numeric code for userID and persists it
// with the configured code TTL, overwriting any prior code for that user.
func (s *Service) IssueLoginCode(ctx context.Context, userID string) (string, error) {
	code, err := internal.NewLoginCode(s.cfg.CodeDigits)
	if err != nil {
		return "", err
	}

	now := s.now()
	if err := s.store.PutLoginCode(ctx, userID, code, now.Add(s.cfg.CodeTTL), s.cfg.CodeTTL); err != nil {
		return "", err
	}

	return code, nil
}

// ConsumeLoginCode looks a code up by value, deletes it, and returns the
// owning user id. Absent codes yield [ErrNotFound]; expired codes yield
// [ErrExpired] and are purged, so retrying the same value yields
// [ErrNotFound].
func (s *Service) ConsumeLoginCode(ctx context.Context, code string) (string, error) {
	userID, err := s.store.ConsumeLoginCode(ctx, code)
	if err != nil {
		return "", mapStoreErr(err)
	}
	return userID, nil
}

// IssueSession creates a fresh session for userID: a new opaque refresh
// token persisted with the configured refresh TTL (displacing any prior
// session, one active session per user) and a freshly signed access token
// carrying the given role snapshot.
//
// The access token is signed before the store write: a payload the signer
// rejects must not displace the user's existing session.
func (s *Service) IssueSession(ctx context.Context, userID string, roles []string) (accessToken, refreshToken string, err error) {
	refreshToken, err = internal.NewRefreshToken()
	if err != nil {
		return "", "", err
	}

	accessToken, err = s.signer.Issue(token.Payload{UserID: userID, Roles: roles}, s.cfg.AccessTTL)
	if err != nil {
		return "", "", err
	}

	now := s.now()
	if err := s.store.PutRefreshToken(ctx, userID, refreshToken, now.Add(s.cfg.RefreshTTL), s.cfg.RefreshTTL); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// ValidateAccessToken verifies the signature and expiry of an access token
// and returns the decoded payload. Signature failure is fatal; expiry is
// recoverable through [Service.RenewSession].
func (s *Service) ValidateAccessToken(accessToken string) (token.Payload, error) {
	return s.signer.Verify(accessToken)
}

// RenewSession resolves a refresh token to its owning user id. The refresh
// token itself is not touched: its lifetime is fixed at issuance and only a
// fresh full login extends a session. Expired tokens are purged and a retry
// yields [ErrNotFound].
func (s *Service) RenewSession(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.store.LookupRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", mapStoreErr(err)
	}
	return userID, nil
}

// EndSession deletes the session for refreshToken. Idempotent: absence is
// not an error, logout must always appear to succeed to the caller.
func (s *Service) EndSession(ctx context.Context, refreshToken string) error {
	return s.store.DeleteRefreshToken(ctx, refreshToken)
}

// mapStoreErr translates store sentinels into the package taxonomy. Corrupt
// records surface as not-found: the client learns nothing it can act on.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrCorruptRecord):
		return ErrNotFound
	case errors.Is(err, store.ErrExpired):
		return ErrExpired
	default:
		return fmt.Errorf("credential store: %w", err)
	}
}

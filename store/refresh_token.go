package store

import (
	"context"
	"time"
)

// PutRefreshToken persists an active refresh token for userID, atomically
// replacing any prior token for that user. A user has at most one active
// session: the displaced token stops resolving immediately.
func (s *Store) PutRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time, ttl time.Duration) error {
	return s.put(ctx, s.tokenOwnerPrefix()+userID, s.tokenKeyPrefix(), token, userID, expiresAt, ttl)
}

// LookupRefreshToken resolves a token value to its owner without consuming
// it. The token's lifetime is fixed at issuance and never extended here.
// Expired records are purged in the same atomic step that detects expiry, so
// a retry with the same value reports [ErrNotFound].
func (s *Store) LookupRefreshToken(ctx context.Context, token string) (string, error) {
	return s.resolve(ctx, peekLua, s.tokenKeyPrefix()+token, s.tokenOwnerPrefix(), token)
}

// DeleteRefreshToken removes the record for token, along with the owner
// pointer when it still points at this token. Absence is not an error.
func (s *Store) DeleteRefreshToken(ctx context.Context, token string) error {
	return s.drop(ctx, s.tokenKeyPrefix()+token, s.tokenOwnerPrefix(), token)
}

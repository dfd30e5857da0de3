package store

import (
	"context"
	"time"
)

// PutLoginCode persists a pending login code for userID, atomically
// replacing any prior code for that user. The old code value, if distinct,
// stops resolving immediately.
func (s *Store) PutLoginCode(ctx context.Context, userID, code string, expiresAt time.Time, ttl time.Duration) error {
	return s.put(ctx, s.codeOwnerPrefix()+userID, s.codeKeyPrefix(), code, userID, expiresAt, ttl)
}

// ConsumeLoginCode resolves a code value to its owner and deletes the record
// in the same atomic step. Returns [ErrNotFound] when absent and
// [ErrExpired] when past its deadline (the record is purged either way, so a
// second consumption of the same value always reports [ErrNotFound]).
func (s *Store) ConsumeLoginCode(ctx context.Context, code string) (string, error) {
	return s.resolve(ctx, takeLua, s.codeKeyPrefix()+code, s.codeOwnerPrefix(), code)
}

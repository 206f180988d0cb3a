package store

import (
	"context"
	"time"
)

// TokenStore persists revoked access-token IDs (jti claims) so that logout
// can invalidate a bearer token before its natural expiry.
type TokenStore interface {
	// Revoke records the given token ID as revoked. The expiry is stored so
	// stale rows can be pruned once the token would have expired anyway.
	// Revoking an already-revoked token is a no-op.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error

	// IsRevoked reports whether the given token ID has been revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// DeleteExpired removes revocation records whose tokens have expired.
	// Returns the number of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

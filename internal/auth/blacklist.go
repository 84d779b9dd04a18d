package auth

import (
	"context"
	"time"
)

// TokenBlacklist is the storage contract for revoked tokens.
type TokenBlacklist interface {
	// Add puts the jti on the blacklist until the token's original expiry,
	// after which the entry may be dropped automatically.
	Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error
	// IsBlacklisted reports whether the jti is on the blacklist.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

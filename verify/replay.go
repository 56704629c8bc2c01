package verify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/qolzam/telar-recaptcha/internal/cache"
)

// DuplicateTokenError mirrors the siteverify error code for reused tokens.
const DuplicateTokenError = "timeout-or-duplicate"

// DefaultReplayTTL matches the two-minute lifetime of a reCAPTCHA token.
const DefaultReplayTTL = 2 * time.Minute

// ReplayGuard remembers tokens that already verified successfully.
type ReplayGuard struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewReplayGuard creates a guard storing token hashes in c.
func NewReplayGuard(c cache.Cache, ttl time.Duration) *ReplayGuard {
	if ttl <= 0 {
		ttl = DefaultReplayTTL
	}
	return &ReplayGuard{cache: c, ttl: ttl}
}

// Seen reports whether token was already accepted.
func (g *ReplayGuard) Seen(ctx context.Context, token string) (bool, error) {
	seen, err := g.cache.Exists(ctx, g.key(token))
	if err != nil {
		return false, fmt.Errorf("replay guard lookup failed: %w", err)
	}
	return seen, nil
}

// Remember records token as used. It returns false if another caller
// recorded it first.
func (g *ReplayGuard) Remember(ctx context.Context, token string) (bool, error) {
	stored, err := g.cache.SetNX(ctx, g.key(token), []byte{1}, g.ttl)
	if err != nil {
		return false, fmt.Errorf("replay guard store failed: %w", err)
	}
	return stored, nil
}

// Stats reports the backing cache counters; a hit is a rejected replay.
func (g *ReplayGuard) Stats() cache.CacheStats {
	return g.cache.Stats()
}

func (g *ReplayGuard) key(token string) string {
	return "used:" + HashToken(token)
}

// HashToken returns the hex SHA-256 of token, used wherever a token is persisted or logged.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

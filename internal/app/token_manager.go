package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyTpl = "revoked:%s" // revoked:${jti}

// TokenManager keeps the revocation list for issued tokens in redis. Keys
// expire together with the token they revoke.
type TokenManager struct {
	redis *redis.Client
}

func NewTokenManager(redis *redis.Client) *TokenManager {
	return &TokenManager{redis: redis}
}

func (tm *TokenManager) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := fmt.Sprintf(revokedKeyTpl, tokenID)
	if err := tm.redis.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (tm *TokenManager) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := fmt.Sprintf(revokedKeyTpl, tokenID)
	n, err := tm.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

func (tm *TokenManager) Close() error {
	if tm.redis != nil {
		return tm.redis.Close()
	}
	return nil
}

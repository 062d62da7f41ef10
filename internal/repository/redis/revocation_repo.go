package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

type revocationRepository struct {
	client *goredis.Client
}

func NewRevocationRepository(client *goredis.Client) *revocationRepository {
	return &revocationRepository{client: client}
}

// Revoke marks jti as revoked for ttl. Tokens that are already past expiry
// need no entry.
func (r *revocationRepository) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *revocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := r.client.Get(ctx, revokedKeyPrefix+jti).Err()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return true, nil
}

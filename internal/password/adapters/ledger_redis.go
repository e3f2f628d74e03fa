package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pwreset/pkg/platform/sentinel"
)

const consumedTokenKeyPrefix = "pwreset:jti:"

// RedisLedger is a Redis-backed ports.TokenLedger, shared by every instance
// behind the load balancer.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

// Consume marks tokenID as used with SET NX so concurrent resets with the
// same token cannot both succeed.
func (l *RedisLedger) Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if tokenID == "" || ttl <= 0 {
		return false, fmt.Errorf("consume token: %w", sentinel.ErrInvalidState)
	}
	first, err := l.client.SetNX(ctx, consumedTokenKeyPrefix+tokenID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("consume token: %w: %w", sentinel.ErrUnavailable, err)
	}
	return first, nil
}

// Release deletes the consumed marker for tokenID.
func (l *RedisLedger) Release(ctx context.Context, tokenID string) error {
	if err := l.client.Del(ctx, consumedTokenKeyPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("release token: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

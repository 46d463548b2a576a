package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps presence keys with a server-side TTL, so registrations
// survive process restarts and expire without a janitor. Expiry here has
// no callback; the websocket close path remains the authoritative flag
// writer, with the TTL as a backstop for IsConnected reads.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func key(playerID string) string {
	return "presence:" + playerID
}

func (r *Redis) Connect(ctx context.Context, playerID string) error {
	if err := r.client.Set(ctx, key(playerID), "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("setting presence key: %w", err)
	}
	return nil
}

func (r *Redis) Heartbeat(ctx context.Context, playerID string) error {
	return r.Connect(ctx, playerID)
}

func (r *Redis) Disconnect(ctx context.Context, playerID string) error {
	if err := r.client.Del(ctx, key(playerID)).Err(); err != nil {
		return fmt.Errorf("deleting presence key: %w", err)
	}
	return nil
}

func (r *Redis) IsConnected(ctx context.Context, playerID string) (bool, error) {
	n, err := r.client.Exists(ctx, key(playerID)).Result()
	if err != nil {
		return false, fmt.Errorf("checking presence key: %w", err)
	}
	return n > 0, nil
}

// Close is a no-op: the redis client is owned by the caller.
func (r *Redis) Close() error { return nil }

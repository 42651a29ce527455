package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisBlacklist keeps revoked token ids in Redis with a TTL matching the
// token's remaining lifetime.
type RedisBlacklist struct {
	client *redis.Client
	prefix string
}

// NewRedisBlacklist creates a blacklist over client
func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client, prefix: "scrumban:revoked:"}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.prefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// MemoryBlacklist is a process-local blacklist.
type MemoryBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{revoked: make(map[string]time.Time), now: time.Now}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[tokenID] = until
	return nil
}

func (b *MemoryBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for id, until := range b.revoked {
		if now.After(until) {
			delete(b.revoked, id)
		}
	}
	_, ok := b.revoked[tokenID]
	return ok, nil
}

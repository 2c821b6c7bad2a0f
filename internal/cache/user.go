package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"userhub/internal/model"
)

const (
	// UserCachePrefix is the key prefix for cached user records
	UserCachePrefix = "user:nickname:"

	// DefaultUserTTL bounds staleness; expiry is the only push-free
	// invalidation besides explicit writes.
	DefaultUserTTL = 5 * time.Minute
)

// ErrCacheMiss is returned when the key is absent or expired. Callers
// fall through to the repository; the cache is never the source of
// truth.
var ErrCacheMiss = errors.New("cache miss")

// UserCache is a read-through, write-invalidate cache keyed by
// nickname. Using an interface enables testing with mocks and
// potential future backends.
type UserCache interface {
	// Get returns the cached user for nickname, or ErrCacheMiss.
	Get(ctx context.Context, nickname string) (*model.User, error)

	// Put stores the user under its nickname with the configured TTL.
	Put(ctx context.Context, user *model.User) error

	// Invalidate removes the entries for the given nicknames.
	// Missing keys are not an error.
	Invalidate(ctx context.Context, nicknames ...string) error
}

// RedisUserCache implements UserCache on Redis with JSON values.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUserCache creates a UserCache backed by Redis. A non-positive ttl
// falls back to DefaultUserTTL.
func NewUserCache(client *redis.Client, ttl time.Duration) UserCache {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}
	return &RedisUserCache{client: client, ttl: ttl}
}

// userKey returns the Redis key for a nickname.
func userKey(nickname string) string {
	return UserCachePrefix + nickname
}

// Get fetches and decodes a cached user. A corrupt entry is deleted
// and reported as a miss so the reader repopulates from the store.
func (c *RedisUserCache) Get(ctx context.Context, nickname string) (*model.User, error) {
	key := userKey(nickname)
	startTime := time.Now()

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		log.Printf("[UserCache] Get MISS: nickname=%s", nickname)
		return nil, ErrCacheMiss
	}
	if err != nil {
		log.Printf("[UserCache] Get FAILED: nickname=%s err=%v", nickname, err)
		return nil, fmt.Errorf("get user: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		log.Printf("[UserCache] Get decode error, dropping entry: nickname=%s err=%v", nickname, err)
		c.client.Del(ctx, key)
		return nil, ErrCacheMiss
	}

	log.Printf("[UserCache] Get HIT: nickname=%s duration=%v", nickname, time.Since(startTime))
	return &user, nil
}

// Put stores a JSON-encoded copy of user with the configured TTL.
func (c *RedisUserCache) Put(ctx context.Context, user *model.User) error {
	key := userKey(user.Nickname)
	startTime := time.Now()

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("[UserCache] Put FAILED: nickname=%s err=%v", user.Nickname, err)
		return fmt.Errorf("put user: %w", err)
	}

	log.Printf("[UserCache] Put OK: nickname=%s ttl=%v duration=%v", user.Nickname, c.ttl, time.Since(startTime))
	return nil
}

// Invalidate removes the entries for the given nicknames in one DEL.
func (c *RedisUserCache) Invalidate(ctx context.Context, nicknames ...string) error {
	if len(nicknames) == 0 {
		return nil
	}

	keys := make([]string, len(nicknames))
	for i, n := range nicknames {
		keys[i] = userKey(n)
	}

	removed, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		log.Printf("[UserCache] Invalidate FAILED: keys=%v err=%v", nicknames, err)
		return fmt.Errorf("invalidate user: %w", err)
	}

	log.Printf("[UserCache] Invalidate OK: keys=%v removed=%d", nicknames, removed)
	return nil
}

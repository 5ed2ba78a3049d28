package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/rndvu/internal/config"
)

const (
	blacklistKey = "blacklist:tg_ids"
	productsKey  = "products:catalog"

	// ProductsTTL bounds how stale the cached catalog may get.
	ProductsTTL = time.Hour
)

// ErrMiss is returned by GetJSON when the key is absent.
var ErrMiss = errors.New("cache miss")

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// SetJSON stores v marshalled as JSON under key.
func (c *RedisCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.Client.Set(ctx, key, b, ttl).Err()
}

// GetJSON loads key into v. Returns ErrMiss when the key is absent.
func (c *RedisCache) GetJSON(ctx context.Context, key string, v any) error {
	b, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	} else if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// --- blacklist ---

// IsBlacklisted reports whether tgID is banned from the API.
func (c *RedisCache) IsBlacklisted(ctx context.Context, tgID int64) (bool, error) {
	return c.Client.SIsMember(ctx, blacklistKey, strconv.FormatInt(tgID, 10)).Result()
}

// Blacklist bans tgID. Idempotent.
func (c *RedisCache) Blacklist(ctx context.Context, tgID int64) error {
	return c.Client.SAdd(ctx, blacklistKey, strconv.FormatInt(tgID, 10)).Err()
}

// Unblacklist lifts the ban. Returns false when tgID was not banned.
func (c *RedisCache) Unblacklist(ctx context.Context, tgID int64) (bool, error) {
	n, err := c.Client.SRem(ctx, blacklistKey, strconv.FormatInt(tgID, 10)).Result()
	return n > 0, err
}

// --- product catalog ---

func (c *RedisCache) GetProducts(ctx context.Context, v any) error {
	return c.GetJSON(ctx, productsKey, v)
}

func (c *RedisCache) SetProducts(ctx context.Context, v any) error {
	return c.SetJSON(ctx, productsKey, v, ProductsTTL)
}

func (c *RedisCache) InvalidateProducts(ctx context.Context) error {
	return c.Del(ctx, productsKey)
}

// --- locks ---

// KeyForLock generates the Redis key guarding a scheduled job.
func (c *RedisCache) KeyForLock(name string) string {
	return fmt.Sprintf("lock:job:%s", name)
}

// AcquireLock takes the named lock for ttl. Returns false when another holder has it.
func (c *RedisCache) AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	return c.Client.SetNX(ctx, c.KeyForLock(name), owner, ttl).Result()
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// ReleaseLock drops the lock only if owner still holds it.
func (c *RedisCache) ReleaseLock(ctx context.Context, name, owner string) error {
	return releaseScript.Run(ctx, c.Client, []string{c.KeyForLock(name)}, owner).Err()
}

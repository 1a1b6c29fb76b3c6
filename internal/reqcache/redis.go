package reqcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisExpiration caps how long a session namespace survives in Redis
// after its last write. Entry freshness is still governed by the cache TTL.
const DefaultRedisExpiration = 24 * time.Hour

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL, e.g. "redis://:password@host:6379/0".
	URL string

	// Expiration is the Redis-level key expiry (defaults to 24 hours).
	Expiration time.Duration

	// Namespace isolates one session's entries from every other session
	// sharing the server. Empty stores keys verbatim.
	Namespace string
}

// redisNamespacePrefix is prepended, with the namespace, to stored keys.
const redisNamespacePrefix = "eysh_session:"

// redisCommands is the slice of the go-redis API the storage needs.
type redisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Close() error
}

// RedisStorage keeps entries in Redis under "eysh_session:<namespace>:"
// followed by the cache key.
type RedisStorage struct {
	client     redisCommands
	expiration time.Duration
	prefix     string
}

// NewRedisStorage connects to Redis and verifies the connection.
func NewRedisStorage(ctx context.Context, cfg RedisConfig) (*RedisStorage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	slog.Debug("redis cache storage connected", "addr", opts.Addr, "db", opts.DB, "namespace", cfg.Namespace)
	return newRedisStorage(client, cfg.Expiration, cfg.Namespace), nil
}

func newRedisStorage(client redisCommands, expiration time.Duration, namespace string) *RedisStorage {
	if expiration <= 0 {
		expiration = DefaultRedisExpiration
	}
	r := &RedisStorage{client: client, expiration: expiration}
	if namespace != "" {
		r.prefix = redisNamespacePrefix + namespace + ":"
	}
	return r
}

func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (r *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.expiration).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Keys walks this namespace with SCAN MATCH prefix* and returns the keys
// without the namespace.
func (r *RedisStorage) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	match := escapeGlob(r.prefix+prefix) + "*"
	for {
		batch, next, err := r.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, r.prefix))
		}
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

// Close closes the Redis connection.
func (r *RedisStorage) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

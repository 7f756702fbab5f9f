// Package redis implements cache.Cache on Redis so several server
// processes share one result cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/warp/worktime-engine/cache"
)

// Config holds the connection parameters.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Namespace prefixes every key, so one Redis DB can serve several
	// deployments.
	Namespace string
	TTL       time.Duration
}

// Cache stores results as plain string values with a Redis TTL.
type Cache struct {
	rdb       *goredis.Client
	namespace string
	ttl       time.Duration
}

var _ cache.Cache = (*Cache)(nil)

// New connects and pings Redis.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewWithClient(rdb, cfg.Namespace, cfg.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *goredis.Client, namespace string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	if namespace == "" {
		namespace = "worktime"
	}
	return &Cache{rdb: rdb, namespace: namespace + ":", ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.rdb.Get(ctx, c.namespace+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.rdb.Set(ctx, c.namespace+key, value, ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	return c.deleteMatching(ctx, c.namespace+escapeGlob(cache.UserPrefix(userID))+"*")
}

func (c *Cache) InvalidateAll(ctx context.Context) error {
	return c.deleteMatching(ctx, c.namespace+"*")
}

// deleteMatching walks the keyspace with SCAN; KEYS would block the server.
func (c *Cache) deleteMatching(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

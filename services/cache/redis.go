package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
)

const (
	keyPrefix   = "mailrelay:"
	pingTimeout = 5 * time.Second
)

type RedisCache struct {
	client *goredis.Client
	ttl    time.Duration
	log    logger.Logger
}

// NewRedisCache connects to url and checks the connection with a PING.
func NewRedisCache(url string, ttl time.Duration, log logger.Logger) (*RedisCache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis url")
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	log.Infof("Redis lookup cache connected to %s (ttl %s)", opts.Addr, ttl)
	return &RedisCache{client: client, ttl: ttl, log: log}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "failed to get %s", key)
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, keyPrefix+key, value, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to set %s", key)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

package infrastructure

import (
	"context"
	"time"

	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ saga.Deduplicator = (*RedisDeduplicator)(nil)

const defaultDedupTTL = 24 * time.Hour

// RedisDeduplicator records processed message keys so a redelivered message
// is recognised by every stage replica.
type RedisDeduplicator struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

type RedisDeduplicatorOption func(*RedisDeduplicator)

func WithDedupKeyPrefix(prefix string) RedisDeduplicatorOption {
	return func(d *RedisDeduplicator) {
		d.keyPrefix = prefix
	}
}

func WithDedupTTL(ttl time.Duration) RedisDeduplicatorOption {
	return func(d *RedisDeduplicator) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

func NewRedisDeduplicator(client redis.Cmdable, opts ...RedisDeduplicatorOption) *RedisDeduplicator {
	d := &RedisDeduplicator{
		client:    client,
		keyPrefix: "saga:seen",
		ttl:       defaultDedupTTL,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis url")
	}
	return redis.NewClient(options), nil
}

func (d *RedisDeduplicator) key(k string) string {
	return d.keyPrefix + ":" + k
}

func (d *RedisDeduplicator) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(key)).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check message")
	}
	return n > 0, nil
}

func (d *RedisDeduplicator) Mark(ctx context.Context, key string) error {
	if err := d.client.Set(ctx, d.key(key), 1, d.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to mark message")
	}
	return nil
}

package storage

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
)

const DefaultRedisPrefix = "todo"

// Redis stores values as plain redis strings. Keys share a hash tag so that
// a multi-key Put is a single MSET on one cluster slot.
type Redis struct {
	client rueidis.Client
	prefix string
}

// OpenRedis connects to the redis server at addr
func OpenRedis(addr, prefix string) (*Redis, error) {
	client, err := rueidis.NewClient(
		rueidis.ClientOption{
			InitAddress: []string{addr},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return NewRedis(client, prefix), nil
}

// NewRedis wraps an existing client
func NewRedis(client rueidis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string {
	return "{" + r.prefix + "}:" + k
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := r.client.B().Get().Key(r.key(key)).Build()
	value, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (r *Redis) Put(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	kv := r.client.B().Mset().KeyValue()
	for _, e := range entries {
		kv = kv.KeyValue(r.key(e.Key), string(e.Value))
	}

	if err := r.client.Do(ctx, kv.Build()).Error(); err != nil {
		return fmt.Errorf("mset: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	r.client.Close()
	return nil
}

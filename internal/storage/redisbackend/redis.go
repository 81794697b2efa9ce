package redisbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FranksOps/ranchwatch/internal/storage"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the list findings are pushed onto.
const DefaultKey = "ranchwatch:findings"

// ensure redisBackend implements storage.Backend
var _ storage.Backend = (*redisBackend)(nil)

type redisBackend struct {
	client *redis.Client
	key    string
}

// New connects to the redis server described by dsn, either a redis:// URL
// or a bare host:port, and stores findings as JSON on the list key.
func New(ctx context.Context, dsn, key string) (storage.Backend, error) {
	opts, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = DefaultKey
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisbackend: ping %s: %w", opts.Addr, err)
	}

	return &redisBackend{client: client, key: key}, nil
}

func parseDSN(dsn string) (*redis.Options, error) {
	if strings.Contains(dsn, "://") {
		opts, err := redis.ParseURL(dsn)
		if err != nil {
			return nil, fmt.Errorf("redisbackend: parse dsn: %w", err)
		}
		return opts, nil
	}
	if dsn == "" {
		dsn = "localhost:6379"
	}
	return &redis.Options{Addr: dsn}, nil
}

func (b *redisBackend) Append(ctx context.Context, f *storage.Finding) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("redisbackend: marshal: %w", err)
	}
	if err := b.client.RPush(ctx, b.key, data).Err(); err != nil {
		return fmt.Errorf("redisbackend: rpush: %w", err)
	}
	return nil
}

func (b *redisBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Finding, error) {
	raw, err := b.client.LRange(ctx, b.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redisbackend: lrange: %w", err)
	}

	all := make([]*storage.Finding, 0, len(raw))
	for _, item := range raw {
		var f storage.Finding
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			return nil, fmt.Errorf("redisbackend: decode: %w", err)
		}
		all = append(all, &f)
	}

	return storage.Apply(all, filter), nil
}

func (b *redisBackend) Close() error {
	return b.client.Close()
}

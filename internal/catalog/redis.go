package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kycvault/internal/archive"
	"kycvault/internal/platform/config"
	"kycvault/pkg/platform/sentinel"
)

const keyPrefix = "kycvault:archive:"

// Redis caches records as JSON under a per-archive key with the catalog TTL.
type Redis struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

func (c *Redis) Put(ctx context.Context, record archive.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal catalog record: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+record.Name, payload, config.CatalogTTL).Err(); err != nil {
		return fmt.Errorf("catalog set: %w", err)
	}
	return nil
}

func (c *Redis) Get(ctx context.Context, name string) (archive.Record, error) {
	payload, err := c.client.Get(ctx, keyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return archive.Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return archive.Record{}, fmt.Errorf("catalog get: %w", err)
	}
	var record archive.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return archive.Record{}, fmt.Errorf("unmarshal catalog record: %w", err)
	}
	return record, nil
}

func (c *Redis) Invalidate(ctx context.Context, name string) error {
	if err := c.client.Del(ctx, keyPrefix+name).Err(); err != nil {
		return fmt.Errorf("catalog del: %w", err)
	}
	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"stock-analytics/internal/model"
)

// Get decodes the cached value for key into dst. Misses, decode errors and
// an open breaker all report false.
func (c *Client) Get(ctx context.Context, key string, dst any) bool {
	var data []byte
	err := c.cb.Execute(func() error {
		var err error
		data, err = c.rdb.Get(ctx, key).Bytes()
		return err
	})
	if err != nil {
		if !errors.Is(err, goredis.Nil) && !errors.Is(err, ErrCircuitOpen) {
			log.Printf("[redis] cache get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("[redis] cache decode %s: %v", key, err)
		return false
	}
	return true
}

// Set stores v as JSON under key with ttl. Failures are logged, never returned.
func (c *Client) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[redis] cache encode %s: %v", key, err)
		return
	}
	err = c.cb.Execute(func() error {
		return c.rdb.Set(ctx, key, data, ttl).Err()
	})
	if err != nil && !errors.Is(err, ErrCircuitOpen) {
		log.Printf("[redis] cache set %s: %v", key, err)
	}
}

var _ model.ResultCache = (*Client)(nil)

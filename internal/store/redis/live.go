package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"stock-analytics/internal/model"
)

const (
	defaultLatestTTL = 30 * time.Minute
	liveStreamMaxLen = 2000
)

// Channel names for live updates.
func SentimentChannel(symbol string) string { return "pub:sentiment:" + symbol }
func liveStreamKey(symbol string) string    { return "live:" + symbol }
func liveLatestKey(symbol string) string    { return "live:latest:" + symbol }

// Publish publishes payload on channel through the breaker.
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.cb.Execute(func() error {
		return c.rdb.Publish(ctx, channel, payload).Err()
	})
}

// PublishLive records a live update for symbol in a single pipeline:
// XADD to the symbol's history stream, SET the latest value, and PUBLISH
// to the sentiment channel for real-time subscribers.
func (c *Client) PublishLive(ctx context.Context, symbol string, payload []byte) error {
	return c.cb.Execute(func() error { return c.publishLive(ctx, symbol, payload) })
}

func (c *Client) publishLive(ctx context.Context, symbol string, payload []byte) error {
	pipe := c.rdb.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: liveStreamKey(symbol),
		MaxLen: liveStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": payload},
	})
	pipe.Set(ctx, liveLatestKey(symbol), payload, defaultLatestTTL)
	pipe.Publish(ctx, SentimentChannel(symbol), payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("live pipeline %s: %w", symbol, err)
	}
	return nil
}

// Latest returns the most recent live update for symbol, or model.ErrNotFound.
func (c *Client) Latest(ctx context.Context, symbol string) ([]byte, error) {
	var data []byte
	err := c.cb.Execute(func() error {
		var err error
		data, err = c.rdb.Get(ctx, liveLatestKey(symbol)).Bytes()
		return err
	})
	if errors.Is(err, goredis.Nil) {
		return nil, model.ErrNotFound
	}
	return data, err
}

// Subscribe subscribes to channels and waits for the first confirmation.
// The caller owns the returned PubSub and must Close it.
func (c *Client) Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error) {
	pubsub := c.rdb.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		log.Printf("[redis] subscribe to %v failed: %v", channels, err)
		return nil, err
	}
	return pubsub, nil
}

var _ model.Publisher = (*Client)(nil)

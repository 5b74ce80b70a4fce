package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultMaxFailures  = 5
	defaultResetTimeout = 10 * time.Second
)

// Config configures the Redis client.
type Config struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int

	MaxFailures  int           // consecutive failures before the breaker opens
	ResetTimeout time.Duration // open duration before a probe is allowed
}

// Client wraps go-redis with a circuit breaker. Every command goes through
// the breaker; redis.Nil is treated as an answer, not a failure.
type Client struct {
	rdb *goredis.Client
	cb  *CircuitBreaker
}

// New connects to Redis and pings the server.
func New(cfg Config) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return newClient(rdb, cfg), nil
}

func newClient(rdb *goredis.Client, cfg Config) *Client {
	maxFailures := cfg.MaxFailures
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	reset := cfg.ResetTimeout
	if reset <= 0 {
		reset = defaultResetTimeout
	}
	cb := NewCircuitBreaker(maxFailures, reset)
	cb.IgnoreErrors(func(err error) bool { return errors.Is(err, goredis.Nil) })
	cb.OnStateChange(func(from, to State) {
		log.Printf("[redis] circuit breaker %s -> %s", from, to)
	})
	return &Client{rdb: rdb, cb: cb}
}

// Redis returns the underlying client for health checks.
func (c *Client) Redis() *goredis.Client { return c.rdb }

// Breaker returns the circuit breaker guarding this client.
func (c *Client) Breaker() *CircuitBreaker { return c.cb }

// Close closes the Redis client.
func (c *Client) Close() error {
	return c.rdb.Close()
}

package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// unreachable returns a client pointing at a closed local port.
func unreachable(t *testing.T) *Client {
	t.Helper()
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return newClient(rdb, Config{MaxFailures: 2, ResetTimeout: time.Minute})
}

func TestCacheFailuresAreSilentAndTripBreaker(t *testing.T) {
	c := unreachable(t)
	ctx := context.Background()

	var dst map[string]int
	if c.Get(ctx, "k", &dst) {
		t.Fatal("Get against an unreachable server must miss")
	}
	c.Set(ctx, "k", map[string]int{"a": 1}, time.Minute)

	if c.Breaker().CurrentState() != StateOpen {
		t.Fatalf("expected breaker open after 2 failures, got %v", c.Breaker().CurrentState())
	}
	if err := c.Publish(ctx, "ch", []byte("x")); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBufferedPublisherBuffersWhileOpen(t *testing.T) {
	cb := NewCircuitBreaker(1, 30*time.Millisecond)
	var fail atomic.Bool
	fail.Store(true)
	var delivered atomic.Int32

	bp := newBufferedPublisher(context.Background(), cb, func(ctx context.Context, symbol string, payload []byte) error {
		if fail.Load() {
			return errors.New("down")
		}
		delivered.Add(1)
		return nil
	}, 2)

	flushed := make(chan int, 1)
	bp.OnFlush = func(n int) { flushed <- n }

	ctx := context.Background()
	if err := bp.PublishLive(ctx, "A", []byte("1")); err == nil {
		t.Fatal("first failure should be returned")
	}
	for _, p := range []string{"2", "3", "4"} {
		if err := bp.PublishLive(ctx, "A", []byte(p)); err != nil {
			t.Fatalf("buffered publish returned %v", err)
		}
	}
	if bp.PendingCount() != 2 {
		t.Fatalf("expected buffer capped at 2, got %d", bp.PendingCount())
	}

	fail.Store(false)
	time.Sleep(40 * time.Millisecond)
	if err := bp.PublishLive(ctx, "A", []byte("5")); err != nil {
		t.Fatalf("probe publish: %v", err)
	}

	select {
	case n := <-flushed:
		if n != 2 {
			t.Errorf("expected 2 replayed updates, got %d", n)
		}
	case <-time.After(time.Second):
		t.Fatal("buffer was not flushed after the breaker closed")
	}
	if delivered.Load() != 3 {
		t.Errorf("expected 3 deliveries (probe + 2 replayed), got %d", delivered.Load())
	}
	if bp.PendingCount() != 0 {
		t.Errorf("expected empty buffer, got %d", bp.PendingCount())
	}
}

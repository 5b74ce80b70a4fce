package redis

import (
	"context"
	"errors"
	"log"
	"sync"
)

const defaultMaxBuffered = 10000

type pendingUpdate struct {
	symbol  string
	payload []byte
}

// BufferedPublisher publishes live updates through the breaker. While the
// breaker is open, updates are kept in memory (oldest dropped first once
// full) and replayed when it closes again.
type BufferedPublisher struct {
	publish func(ctx context.Context, symbol string, payload []byte) error
	ctx     context.Context

	mu     sync.Mutex
	buffer []pendingUpdate
	maxBuf int

	OnBuffer func()          // called when an update is buffered
	OnFlush  func(count int) // called after buffered updates are replayed
}

// NewBufferedPublisher wraps c. Buffered updates are replayed with ctx.
func NewBufferedPublisher(ctx context.Context, c *Client, maxBuffered int) *BufferedPublisher {
	return newBufferedPublisher(ctx, c.cb, func(ctx context.Context, symbol string, payload []byte) error {
		return c.publishLive(ctx, symbol, payload)
	}, maxBuffered)
}

func newBufferedPublisher(ctx context.Context, cb *CircuitBreaker, publish func(context.Context, string, []byte) error, maxBuffered int) *BufferedPublisher {
	if maxBuffered <= 0 {
		maxBuffered = defaultMaxBuffered
	}
	bp := &BufferedPublisher{
		publish: func(ctx context.Context, symbol string, payload []byte) error {
			return cb.Execute(func() error { return publish(ctx, symbol, payload) })
		},
		ctx:    ctx,
		buffer: make([]pendingUpdate, 0, 64),
		maxBuf: maxBuffered,
	}
	cb.OnStateChange(func(from, to State) {
		if to == StateClosed {
			go bp.flush()
		}
	})
	return bp
}

// PublishLive publishes payload for symbol, buffering it if the breaker is open.
func (bp *BufferedPublisher) PublishLive(ctx context.Context, symbol string, payload []byte) error {
	err := bp.publish(ctx, symbol, payload)
	if errors.Is(err, ErrCircuitOpen) {
		bp.add(symbol, payload)
		return nil
	}
	return err
}

func (bp *BufferedPublisher) add(symbol string, payload []byte) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if len(bp.buffer) >= bp.maxBuf {
		bp.buffer = bp.buffer[1:]
	}
	bp.buffer = append(bp.buffer, pendingUpdate{symbol: symbol, payload: payload})

	if bp.OnBuffer != nil {
		bp.OnBuffer()
	}
}

func (bp *BufferedPublisher) flush() {
	bp.mu.Lock()
	if len(bp.buffer) == 0 {
		bp.mu.Unlock()
		return
	}
	pending := bp.buffer
	bp.buffer = make([]pendingUpdate, 0, 64)
	bp.mu.Unlock()

	flushed := 0
	for i, u := range pending {
		if err := bp.publish(bp.ctx, u.symbol, u.payload); err != nil {
			if errors.Is(err, ErrCircuitOpen) {
				// reopened mid-replay; keep the rest for the next close
				for _, rest := range pending[i:] {
					bp.add(rest.symbol, rest.payload)
				}
				break
			}
			log.Printf("[redis] replay live update for %s: %v", u.symbol, err)
			continue
		}
		flushed++
	}

	log.Printf("[redis] flushed %d buffered live updates", flushed)
	if bp.OnFlush != nil {
		bp.OnFlush(flushed)
	}
}

// PendingCount returns the number of buffered updates.
func (bp *BufferedPublisher) PendingCount() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.buffer)
}

package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stock-analytics/internal/analytics"
	"stock-analytics/internal/indicator"
	"stock-analytics/internal/markethours"
	"stock-analytics/internal/metrics"
	"stock-analytics/internal/model"
	"stock-analytics/internal/notification"
	"stock-analytics/internal/strategy"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// LivePublisher records live updates for external subscribers.
type LivePublisher interface {
	PublishLive(ctx context.Context, symbol string, payload []byte) error
}

// StreamConfig tunes the live stream.
type StreamConfig struct {
	Interval    time.Duration // poll interval per symbol
	IgnoreHours bool          // poll outside KRX hours too
	Strategy    string        // strategy whose condition is pushed
}

// StreamDeps are optional collaborators of the stream.
type StreamDeps struct {
	Metrics  *metrics.Metrics
	Notifier notification.Notifier
	Live     LivePublisher
	Alerts   model.Publisher
}

// Update is the message pushed to stream clients for one symbol.
type Update struct {
	Type         string                    `json:"type"` // "update"
	Symbol       string                    `json:"symbol"`
	TS           time.Time                 `json:"ts"`
	MarketOpen   bool                      `json:"marketOpen"`
	MarketStatus string                    `json:"marketStatus"`
	Sentiment    analytics.SentimentReport `json:"sentiment"`
	Indicators   []model.IndicatorValue    `json:"indicators"`
	Signal       *strategy.Signal          `json:"signal,omitempty"`
	Shift        bool                      `json:"shift,omitempty"`
}

// Stream fans per-symbol analytics out to websocket clients. One watcher
// goroutine polls each subscribed symbol; it stops when the last
// subscriber leaves.
type Stream struct {
	svc  *analytics.Service
	cfg  StreamConfig
	deps StreamDeps
	ctx  context.Context
	now  func() time.Time

	mu       sync.RWMutex
	clients  map[*streamClient]bool
	watchers map[string]*watcher
	lastMood map[string]model.Sentiment
}

type watcher struct {
	cancel      context.CancelFunc
	subscribers int
}

// NewStream creates a stream whose watchers live until ctx is cancelled.
func NewStream(ctx context.Context, svc *analytics.Service, cfg StreamConfig, deps StreamDeps) *Stream {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &Stream{
		svc:      svc,
		cfg:      cfg,
		deps:     deps,
		ctx:      ctx,
		now:      time.Now,
		clients:  make(map[*streamClient]bool),
		watchers: make(map[string]*watcher),
		lastMood: make(map[string]model.Sentiment),
	}
}

// ServeHTTP upgrades the request and registers the client. An optional
// ?symbol=A,B subscribes immediately.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[stream] ws upgrade error: %v", err)
		return
	}
	c := &streamClient{
		conn:   conn,
		send:   make(chan []byte, 64),
		stream: s,
		subs:   make(map[string]bool),
	}

	s.mu.Lock()
	s.clients[c] = true
	count := len(s.clients)
	s.mu.Unlock()
	if s.deps.Metrics != nil {
		s.deps.Metrics.StreamClients.Inc()
	}
	log.Printf("[stream] client connected (%d total)", count)

	for _, sym := range strings.Split(r.URL.Query().Get("symbol"), ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			s.subscribe(c, sym)
		}
	}

	go c.writePump()
	go c.readPump()
}

// ClientCount returns the number of connected clients.
func (s *Stream) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Watching returns the symbols with an active watcher.
func (s *Stream) Watching() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.watchers))
	for sym := range s.watchers {
		out = append(out, sym)
	}
	return out
}

func (s *Stream) subscribe(c *streamClient, symbol string) {
	s.mu.Lock()
	if c.subs[symbol] {
		s.mu.Unlock()
		return
	}
	c.subs[symbol] = true
	w, ok := s.watchers[symbol]
	if !ok {
		ctx, cancel := context.WithCancel(s.ctx)
		w = &watcher{cancel: cancel}
		s.watchers[symbol] = w
		go s.watch(ctx, symbol)
	}
	w.subscribers++
	s.mu.Unlock()
	log.Printf("[stream] subscribed to %s", symbol)
}

func (s *Stream) unsubscribe(c *streamClient, symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribeLocked(c, symbol)
}

func (s *Stream) unsubscribeLocked(c *streamClient, symbol string) {
	if !c.subs[symbol] {
		return
	}
	delete(c.subs, symbol)
	if w, ok := s.watchers[symbol]; ok {
		w.subscribers--
		if w.subscribers <= 0 {
			w.cancel()
			delete(s.watchers, symbol)
			delete(s.lastMood, symbol)
		}
	}
}

func (s *Stream) removeClient(c *streamClient) {
	s.mu.Lock()
	if !s.clients[c] {
		s.mu.Unlock()
		return
	}
	for sym := range c.subs {
		s.unsubscribeLocked(c, sym)
	}
	delete(s.clients, c)
	close(c.send)
	s.mu.Unlock()
	if s.deps.Metrics != nil {
		s.deps.Metrics.StreamClients.Dec()
	}
	log.Println("[stream] client disconnected")
}

// watch pushes a snapshot immediately, then polls every interval while the
// market is open.
func (s *Stream) watch(ctx context.Context, symbol string) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick(ctx, symbol, true)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, symbol, false)
		}
	}
}

func (s *Stream) tick(ctx context.Context, symbol string, first bool) {
	open := markethours.IsMarketOpen(s.now())
	if s.deps.Metrics != nil {
		if open {
			s.deps.Metrics.MarketState.Set(1)
		} else {
			s.deps.Metrics.MarketState.Set(0)
		}
	}
	if !first && !open && !s.cfg.IgnoreHours {
		return
	}

	u, err := s.poll(ctx, symbol)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[stream] poll %s: %v", symbol, err)
			s.broadcast(symbol, errorEnvelope(symbol, err.Error()))
		}
		return
	}
	payload, err := json.Marshal(u)
	if err != nil {
		log.Printf("[stream] marshal %s: %v", symbol, err)
		return
	}
	if s.deps.Live != nil {
		if err := s.deps.Live.PublishLive(ctx, symbol, payload); err != nil {
			log.Printf("[stream] publish live %s: %v", symbol, err)
		}
	}
	s.broadcast(symbol, payload)
}

// poll computes the update for symbol. The last bar is treated as the
// forming bar: indicators are seeded with the bars before it and previewed
// with its price.
func (s *Stream) poll(ctx context.Context, symbol string) (Update, error) {
	bars, err := s.svc.Load(ctx, analytics.PriceInput{Symbol: symbol})
	if err != nil {
		return Update{}, err
	}
	now := s.now()
	u := Update{
		Type:         "update",
		Symbol:       symbol,
		TS:           now.UTC(),
		MarketOpen:   markethours.IsMarketOpen(now),
		MarketStatus: markethours.StatusString(now),
		Sentiment:    s.svc.SentimentOf(symbol, bars),
		Indicators:   []model.IndicatorValue{},
		Signal:       strategy.Latest(s.svc.Strategy(s.cfg.Strategy, nil), symbol, bars),
	}

	closes := model.Closes(bars)
	if n := len(closes); n > 0 {
		tracker := indicator.NewTracker(symbol, s.svc.IndicatorConfigs())
		tracker.Seed(closes[:n-1])
		u.Indicators = tracker.Peek(closes[n-1])
	}

	u.Shift = s.recordMood(ctx, symbol, u.Sentiment)
	return u, nil
}

// recordMood remembers the sentiment bucket for symbol and reports whether
// it changed. A change notifies and publishes an alert. Polls finishing
// after their watcher was released record nothing.
func (s *Stream) recordMood(ctx context.Context, symbol string, rep analytics.SentimentReport) bool {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	prev, seen := s.lastMood[symbol]
	s.lastMood[symbol] = rep.Sentiment
	s.mu.Unlock()

	if !seen || prev.Class == rep.Sentiment.Class {
		return false
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.SentimentShifts.WithLabelValues(rep.Sentiment.Class).Inc()
	}
	alert := notification.SentimentShift(symbol, prev, rep.Sentiment, rep.LastPrice)
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.Send(ctx, alert); err != nil {
			log.Printf("[stream] notify %s: %v", symbol, err)
		}
	}
	if s.deps.Alerts != nil {
		data, err := json.Marshal(alert)
		if err != nil {
			log.Printf("[stream] marshal alert %s: %v", symbol, err)
		} else if err := s.deps.Alerts.Publish(ctx, AlertChannel(symbol), data); err != nil {
			log.Printf("[stream] publish alert %s: %v", symbol, err)
		}
	}
	return true
}

// AlertChannel is the pub/sub channel carrying sentiment shift alerts.
func AlertChannel(symbol string) string { return "pub:alert:" + symbol }

func (s *Stream) broadcast(symbol string, msg []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		if !c.subs[symbol] {
			continue
		}
		select {
		case c.send <- msg:
			if s.deps.Metrics != nil {
				s.deps.Metrics.StreamMessages.Inc()
			}
		default:
			// slow client; drop rather than block the watcher
		}
	}
}

func errorEnvelope(symbol, msg string) []byte {
	b, _ := json.Marshal(map[string]string{"type": "error", "symbol": symbol, "error": msg})
	return b
}

// streamClient is a single websocket peer. subs is guarded by Stream.mu.
type streamClient struct {
	conn   *websocket.Conn
	send   chan []byte
	stream *Stream
	subs   map[string]bool
}

// clientMsg is a client command: SUBSCRIBE / UNSUBSCRIBE a symbol, or ping.
type clientMsg struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
	Ping   int64  `json:"ping"`
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *streamClient) readPump() {
	defer func() {
		c.stream.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMsg
		if json.Unmarshal(raw, &msg) != nil {
			continue
		}
		sym := strings.TrimSpace(msg.Symbol)

		switch strings.ToUpper(msg.Type) {
		case "SUBSCRIBE":
			if sym == "" {
				c.reply(errorEnvelope("", "symbol is required"))
				continue
			}
			c.stream.subscribe(c, sym)
		case "UNSUBSCRIBE":
			c.stream.unsubscribe(c, sym)
		default:
			if msg.Ping > 0 {
				pong, _ := json.Marshal(map[string]interface{}{
					"type":      "pong",
					"ping":      msg.Ping,
					"server_ts": time.Now().UnixMilli(),
				})
				c.reply(pong)
			}
		}
	}
}

// reply queues msg unless the client is gone or its buffer is full.
func (c *streamClient) reply(msg []byte) {
	c.stream.mu.RLock()
	defer c.stream.mu.RUnlock()
	if !c.stream.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

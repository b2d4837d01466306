package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"crypto-mentor-bot/internal/logging"

	"github.com/gorilla/websocket"
)

// TickListener receives live price updates from the stream.
type TickListener func(pair string, price float64)

// Stream subscribes to Bybit's public spot ticker stream and fans ticks out
// to registered listeners. It reconnects with backoff until the context is
// cancelled.
type Stream struct {
	wsURL string
	pair  string
	log   *logging.Logger

	mu        sync.RWMutex
	listeners []TickListener
	lastPrice float64
}

// NewStream creates a stream for a single trading pair.
func NewStream(wsURL, pair string, log *logging.Logger) *Stream {
	return &Stream{
		wsURL: wsURL,
		pair:  pair,
		log:   log.WithComponent("stream"),
	}
}

// AddListener registers a tick listener. Listeners are called synchronously
// from the read loop and must return quickly.
func (s *Stream) AddListener(fn TickListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// LastPrice returns the most recent streamed price, 0 before the first tick.
func (s *Stream) LastPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPrice
}

// Run connects and consumes the stream until ctx is cancelled.
func (s *Stream) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		err := s.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.log.Warn("stream disconnected, reconnecting", "error", err, "backoff", backoff.String())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

type tickerMessage struct {
	Topic string `json:"topic"`
	Data  struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"lastPrice"`
	} `json:"data"`
}

func (s *Stream) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.wsURL, err)
	}
	defer conn.Close()

	sub := map[string]interface{}{
		"op":   "subscribe",
		"args": []string{"tickers." + Symbol(s.pair)},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	s.log.Info("stream connected", "pair", s.pair)

	// The server drops idle connections; ping on a timer and close the
	// connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				conn.WriteJSON(map[string]string{"op": "ping"})
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg tickerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Data.LastPrice == "" {
			continue
		}

		price := parseFloat(msg.Data.LastPrice)
		if price <= 0 {
			continue
		}

		s.mu.Lock()
		s.lastPrice = price
		listeners := make([]TickListener, len(s.listeners))
		copy(listeners, s.listeners)
		s.mu.Unlock()

		for _, fn := range listeners {
			fn(s.pair, price)
		}
	}
}

package ingestion

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSKlineSource streams exchange klines over a combined-stream WebSocket.
// The stream set is fixed at construction; the exchange pushes updates
// without a subscribe round-trip, so reconnect just redials the same URL.
type WSKlineSource struct {
	url    string
	config WSClientConfig
	logger *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewWSKlineSource builds a source for the given symbols and interval
// against a combined-stream endpoint such as
// wss://stream.example.com/stream.
func NewWSKlineSource(endpoint string, symbols []string, interval string, config *WSClientConfig, logger *log.Logger) (*WSKlineSource, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols to subscribe")
	}

	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	streams := make([]string, len(symbols))
	for i, s := range symbols {
		streams[i] = streamName(s, interval)
	}

	return &WSKlineSource{
		url:    endpoint + "?streams=" + strings.Join(streams, "/"),
		config: cfg,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

var _ KlineSource = (*WSKlineSource)(nil)

// Stream connects and returns a channel of kline events. The channel closes
// when the context is cancelled or Close is called; transient connection
// failures reconnect with exponential backoff behind the scenes.
func (s *WSKlineSource) Stream(ctx context.Context) (<-chan KlineEvent, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("source closed")
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	events := make(chan KlineEvent, 1000)

	s.wg.Add(1)
	go s.readLoop(ctx, events)

	s.wg.Add(1)
	go s.pingLoop()

	return events, nil
}

// Close shuts the source down and waits for its goroutines.
func (s *WSKlineSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *WSKlineSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// readLoop reads messages and pushes parsed kline events until shutdown.
func (s *WSKlineSource) readLoop(ctx context.Context, events chan<- KlineEvent) {
	defer s.wg.Done()
	defer close(events)

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		if ctx.Err() != nil {
			return
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			// A previous reconnect attempt may have failed; keep retrying.
			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
				reconnectDelay = reconnectDelay * 2
				if reconnectDelay > s.config.MaxReconnectDelay {
					reconnectDelay = s.config.MaxReconnectDelay
				}
			}
			select {
			case <-s.done:
				return
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}

			select {
			case <-s.done:
				return
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = s.config.ReconnectDelay

		event, err := parseKlineEvent(message)
		if err != nil {
			s.logger.Printf("skip malformed stream message: %v", err)
			continue
		}
		if event == nil {
			continue
		}

		// Block until the consumer takes it; kline cadence is slow enough
		// that backpressure beats dropping candles.
		select {
		case events <- *event:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// reconnect redials after a delay. The read loop keeps polling until the
// connection reappears.
func (s *WSKlineSource) reconnect(delay time.Duration) {
	defer s.reconnecting.Store(false)

	if s.closed.Load() {
		return
	}

	select {
	case <-s.done:
		return
	case <-time.After(delay):
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		s.logger.Printf("reconnect failed, will retry: %v", err)
		return
	}
	s.logger.Printf("reconnected to %s", s.url)
}

// pingLoop sends periodic ping frames to keep connection alive.
func (s *WSKlineSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				// A failed ping means a dead connection; the read loop
				// notices and reconnects.
				_ = s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}

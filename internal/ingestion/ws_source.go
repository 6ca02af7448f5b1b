package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kalabhaftu/propeval/internal/observability"
)

// WSConfig configures WebSocket fill source behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// HandshakeTimeout is timeout for the WebSocket handshake.
	HandshakeTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

// WSFillSource streams fills from a WebSocket endpoint using
// gorilla/websocket. Disconnects trigger reconnection with exponential
// backoff; malformed messages are dropped with a log line.
type WSFillSource struct {
	endpoint string
	config   WSConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSFillSource creates a WebSocket fill source and connects to the
// endpoint. A nil config uses defaults.
func NewWSFillSource(ctx context.Context, endpoint string, config *WSConfig, logger *log.Logger) (*WSFillSource, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &WSFillSource{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Compile-time interface check.
var _ FillSource = (*WSFillSource)(nil)

// connect establishes the WebSocket connection.
func (s *WSFillSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: s.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// Subscribe starts the read loop and returns the fill channel. The channel
// is buffered to absorb bursts; it is closed on Close or context cancel.
func (s *WSFillSource) Subscribe(ctx context.Context) (<-chan *Fill, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("source closed")
	}

	ch := make(chan *Fill, 1024)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(ch)
		s.readLoop(ctx, ch)
	}()

	return ch, nil
}

// readLoop reads messages until shutdown, reconnecting on failure.
func (s *WSFillSource) readLoop(ctx context.Context, ch chan<- *Fill) {
	delay := s.config.ReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect(ctx, &delay) {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || ctx.Err() != nil {
				return
			}
			s.logger.Printf("[ingestion] websocket read: %v, reconnecting", err)
			s.dropConn()
			if !s.reconnect(ctx, &delay) {
				return
			}
			continue
		}
		delay = s.config.ReconnectDelay

		start := time.Now()
		var fill Fill
		if err := json.Unmarshal(data, &fill); err != nil {
			s.logger.Printf("[ingestion] malformed fill message: %v", err)
			observability.RecordIngestionError("malformed_message")
			continue
		}
		observability.DefaultMetrics.FillsReceived.Inc()
		observability.DefaultMetrics.WSMessageLatency.Observe(time.Since(start).Seconds())

		select {
		case ch <- &fill:
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

// reconnect redials with exponential backoff. Returns false on shutdown.
func (s *WSFillSource) reconnect(ctx context.Context, delay *time.Duration) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-s.done:
			return false
		case <-time.After(*delay):
		}

		if *delay < s.config.MaxReconnectDelay {
			*delay *= 2
			if *delay > s.config.MaxReconnectDelay {
				*delay = s.config.MaxReconnectDelay
			}
		}

		if err := s.connect(ctx); err != nil {
			s.logger.Printf("[ingestion] websocket reconnect: %v", err)
			observability.RecordIngestionError("reconnect_failed")
			continue
		}

		observability.DefaultMetrics.WSReconnects.Inc()
		s.logger.Printf("[ingestion] websocket reconnected to %s", s.endpoint)
		return true
	}
}

func (s *WSFillSource) dropConn() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
}

// Close stops the source and closes the connection.
func (s *WSFillSource) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)
	s.dropConn()
	s.wg.Wait()
	return nil
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Default values for the feed client configuration.
const (
	DefaultMaxRetry         = 10
	DefaultRetryAfter       = time.Second
	DefaultHandshakeTimeout = 10 * time.Second
)

// Configuration errors.
var (
	ErrEmptyURL          = errors.New("feed URL cannot be empty")
	ErrInvalidRetryAfter = errors.New("retry interval must be positive")
	ErrInvalidMaxRetry   = errors.New("max retry must not be negative")
)

// ErrRetriesExhausted is returned by Run when the connection could not be
// re-established within MaxRetry attempts. The condition is resumable: the
// caller may invoke Run again.
var ErrRetriesExhausted = errors.New("reconnect attempts exhausted")

// Config holds configuration for the live feed WebSocket client.
type Config struct {
	// URL is the feed WebSocket endpoint for one room.
	URL string

	// MaxRetry is the number of consecutive reconnection attempts before
	// Run gives up.
	MaxRetry int

	// RetryAfter is the fixed delay between reconnection attempts.
	RetryAfter time.Duration

	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
}

// DefaultConfig returns a Config with default retry behavior. The URL must
// be provided by the caller.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		MaxRetry:         DefaultMaxRetry,
		RetryAfter:       DefaultRetryAfter,
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.URL == "" {
		return ErrEmptyURL
	}
	if c.RetryAfter <= 0 {
		return ErrInvalidRetryAfter
	}
	if c.MaxRetry < 0 {
		return ErrInvalidMaxRetry
	}
	return nil
}

// EventHandler receives each decoded event. Handlers for one room execute
// sequentially on the client's read loop.
type EventHandler func(Event)

// Client is a resilient WebSocket client for one room's live feed. It
// reconnects with a fixed delay up to MaxRetry consecutive failures and
// delivers decoded events to the handler in wire order.
type Client struct {
	config  Config
	handler EventHandler
	logger  *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	// disconnected is set by Disconnect so the run loop stops instead of
	// reconnecting.
	disconnected atomic.Bool

	// retryCount tracks consecutive reconnection attempts.
	retryCount int64
}

// NewClient creates a feed client for the given configuration. The handler
// is called for each decoded event.
func NewClient(config Config, handler EventHandler, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config:  config,
		handler: handler,
		logger:  logger,
	}, nil
}

// Run connects to the feed and blocks until Disconnect is called, the
// context is cancelled, or reconnection attempts are exhausted. Exhaustion
// returns ErrRetriesExhausted; an explicit disconnect returns nil.
func (c *Client) Run(ctx context.Context) error {
	c.disconnected.Store(false)
	atomic.StoreInt64(&c.retryCount, 0)

	for {
		select {
		case <-ctx.Done():
			c.close()
			return ctx.Err()
		default:
		}
		if c.disconnected.Load() {
			return nil
		}

		if err := c.connect(ctx); err != nil {
			attempt := atomic.AddInt64(&c.retryCount, 1)
			if attempt > int64(c.config.MaxRetry) {
				c.logger.Error("live feed reconnect attempts exhausted",
					slog.Int("max_retry", c.config.MaxRetry))
				return fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
			}
			c.logger.Warn("live feed connection failed",
				slog.String("error", err.Error()),
				slog.Int64("attempt", attempt))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RetryAfter):
				continue
			}
		}

		atomic.StoreInt64(&c.retryCount, 0)
		c.readLoop(ctx)
	}
}

// Disconnect closes the connection and makes Run return nil. Safe to call
// from an event handler.
func (c *Client) Disconnect() {
	c.disconnected.Store(true)
	c.close()
}

// connect establishes the WebSocket connection to the feed endpoint.
func (c *Client) connect(ctx context.Context) error {
	c.logger.Info("connecting to live feed", slog.String("url", c.config.URL))

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("connected to live feed")
	return nil
}

// readLoop reads and dispatches frames until the connection closes.
// Cancellation closes the connection so a blocked read returns promptly.
func (c *Client) readLoop(ctx context.Context) {
	stop := context.AfterFunc(ctx, c.close)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !c.disconnected.Load() {
				c.logger.Warn("live feed connection closed",
					slog.String("error", err.Error()))
			}
			c.close()
			return
		}

		event, err := DecodeEvent(payload)
		if err != nil {
			c.logger.Warn("dropping undecodable frame",
				slog.String("error", err.Error()))
			continue
		}
		if c.handler != nil {
			c.handler(event)
		}
	}
}

// close cleanly closes the WebSocket connection.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

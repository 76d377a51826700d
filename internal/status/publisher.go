// Package status publishes live room status to Redis for external
// dashboards. Publishing is strictly best-effort: failures are logged and
// never affect monitoring.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key TTL: a stale key expires if the monitor stops updating it.
const keyTTL = 5 * time.Minute

// Publisher pushes room status and audience numbers to Redis. A nil
// Publisher is a no-op, so callers never branch on whether Redis is
// configured.
type Publisher struct {
	client *redis.Client
	logger *slog.Logger
}

// NewPublisher creates a publisher against the given Redis address. An empty
// address returns nil, the no-op publisher.
func NewPublisher(addr string, logger *slog.Logger) *Publisher {
	if addr == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		logger: logger,
	}
}

// PublishState records the room's lifecycle state.
func (p *Publisher) PublishState(ctx context.Context, roomID int64, state string) {
	if p == nil {
		return
	}
	key := fmt.Sprintf("livesight:room:%d:status", roomID)
	if err := p.client.Set(ctx, key, state, keyTTL).Err(); err != nil {
		p.logger.Warn("failed to publish room state",
			slog.Int64("room_id", roomID),
			slog.String("error", err.Error()))
	}
}

// PublishViewers records the latest viewer count.
func (p *Publisher) PublishViewers(ctx context.Context, roomID int64, viewers int64) {
	if p == nil {
		return
	}
	key := fmt.Sprintf("livesight:room:%d:viewers", roomID)
	if err := p.client.Set(ctx, key, viewers, keyTTL).Err(); err != nil {
		p.logger.Warn("failed to publish viewer count",
			slog.Int64("room_id", roomID),
			slog.String("error", err.Error()))
	}
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.client.Close()
}

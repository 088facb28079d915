package revalidate

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/weaveapp/weave/backend/go-services/pkg/logger"
)

// Revalidator signals that the rendered content at a path may be stale.
// Delivery is fire-and-forget: implementations never return an error to the
// caller and must not block repository operations.
type Revalidator interface {
	Revalidate(ctx context.Context, path string)
}

// RedisPublisher publishes stale paths on a Redis channel so the rendering
// layer can drop its page cache. Messages carry only the path string.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher. Channel may be empty.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = "revalidate"
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Revalidate(ctx context.Context, path string) {
	if p.client == nil || path == "" {
		return
	}
	if err := p.client.Publish(ctx, p.channel, path).Err(); err != nil {
		// stale-page signals are advisory, never fail the mutation
		logger.Warnf("revalidate publish failed for %q: %v", path, err)
	}
}

// Noop discards revalidation signals. Used when Redis is not configured.
type Noop struct{}

func (Noop) Revalidate(ctx context.Context, path string) {}

// Recorder collects paths for tests.
type Recorder struct {
	Paths []string
}

func (r *Recorder) Revalidate(ctx context.Context, path string) {
	r.Paths = append(r.Paths, path)
}

// Package redis mirrors processing events onto a redis pub/sub channel so
// other services can follow pipeline progress.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/croftbox/vidpipe/internal/infrastructure/logger"
	"github.com/croftbox/vidpipe/internal/service"
)

const publishTimeout = 2 * time.Second

type Publisher struct {
	client  *redis.Client
	channel string
}

func NewPublisher(addr, password, channel string, db int) *Publisher {
	return &Publisher{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		channel: channel,
	}
}

// Ping verifies connectivity at wiring time.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Publish is fire-and-forget: failures are logged and swallowed, they must
// never reach the pipeline.
func (p *Publisher) Publish(videoID string, event service.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error.Printf("encode progress event for %s: %v", videoID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		logger.Warn.Printf("publish progress event for %s: %v", videoID, err)
	}
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

var _ service.EventPublisher = (*Publisher)(nil)

// Package pubsub publishes market data on Redis channels.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher fans market-data records out on per-symbol channels:
// ticker.<symbol>, depth.<symbol>, trade.<symbol>.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(addr, password string, db int) *Publisher {
	return &Publisher{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping verifies the connection at startup.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

func (p *Publisher) PublishTicker(ctx context.Context, symbol uint32, v any) error {
	return p.publish(ctx, fmt.Sprintf("ticker.%d", symbol), v)
}

func (p *Publisher) PublishDepth(ctx context.Context, symbol uint32, v any) error {
	return p.publish(ctx, fmt.Sprintf("depth.%d", symbol), v)
}

func (p *Publisher) PublishTrade(ctx context.Context, symbol uint32, v any) error {
	return p.publish(ctx, fmt.Sprintf("trade.%d", symbol), v)
}

func (p *Publisher) publish(ctx context.Context, channel string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, channel, payload).Err()
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}

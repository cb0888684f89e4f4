// Package publisher streams market data from the core's outbound rings
// to Redis pub/sub channels.
package publisher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tradecore/domain/book"
	"tradecore/engine"
	"tradecore/infra/spsc"
)

// Sink is the pub/sub surface the publisher writes to.
type Sink interface {
	PublishTicker(ctx context.Context, symbol uint32, v any) error
	PublishDepth(ctx context.Context, symbol uint32, v any) error
	PublishTrade(ctx context.Context, symbol uint32, v any) error
}

type Publisher struct {
	log       *zap.Logger
	sink      Sink
	trades    *spsc.Ring[engine.TradeEvent]
	tickers   *spsc.Ring[engine.TickerUpdate]
	snapshots *spsc.Ring[book.DepthSnapshot]
	interval  time.Duration
}

func New(
	log *zap.Logger,
	sink Sink,
	trades *spsc.Ring[engine.TradeEvent],
	tickers *spsc.Ring[engine.TickerUpdate],
	snapshots *spsc.Ring[book.DepthSnapshot],
	interval time.Duration,
) *Publisher {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &Publisher{
		log:       log.Named("publisher"),
		sink:      sink,
		trades:    trades,
		tickers:   tickers,
		snapshots: snapshots,
		interval:  interval,
	}
}

// Run drains the rings until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	p.log.Info("market-data publisher started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("market-data publisher stopped")
			return
		case <-ticker.C:
			p.drainOnce(ctx)
		}
	}
}

func (p *Publisher) drainOnce(ctx context.Context) {
	for {
		tr, ok := p.trades.TryPop()
		if !ok {
			break
		}
		if err := p.sink.PublishTrade(ctx, tr.Symbol, tr); err != nil {
			p.log.Warn("publish trade", zap.Uint64("event_id", tr.EventID), zap.Error(err))
		}
	}
	for {
		tk, ok := p.tickers.TryPop()
		if !ok {
			break
		}
		if err := p.sink.PublishTicker(ctx, tk.Symbol, tk); err != nil {
			p.log.Warn("publish ticker", zap.Uint64("event_id", tk.EventID), zap.Error(err))
		}
	}
	for {
		snap, ok := p.snapshots.TryPop()
		if !ok {
			break
		}
		if err := p.sink.PublishDepth(ctx, snap.Symbol, snap); err != nil {
			p.log.Warn("publish depth", zap.Uint64("event_id", snap.EventID), zap.Error(err))
		}
	}
}

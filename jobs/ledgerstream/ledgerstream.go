// Package ledgerstream forwards ledger delta records to Kafka so
// downstream balance caches can replay state.
package ledgerstream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tradecore/domain/ledger"
	"tradecore/infra/spsc"
)

// Producer is the Kafka surface the streamer writes to.
type Producer interface {
	SendJSON(ctx context.Context, userID uint64, v any) error
}

type Streamer struct {
	log      *zap.Logger
	producer Producer
	balances *spsc.Ring[ledger.BalanceDelta]
	holdings *spsc.Ring[ledger.HoldingDelta]
	interval time.Duration
}

func New(
	log *zap.Logger,
	producer Producer,
	balances *spsc.Ring[ledger.BalanceDelta],
	holdings *spsc.Ring[ledger.HoldingDelta],
	interval time.Duration,
) *Streamer {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &Streamer{
		log:      log.Named("ledgerstream"),
		producer: producer,
		balances: balances,
		holdings: holdings,
		interval: interval,
	}
}

func (s *Streamer) Run(ctx context.Context) {
	s.log.Info("ledger delta streamer started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("ledger delta streamer stopped")
			return
		case <-ticker.C:
			s.drainOnce(ctx)
		}
	}
}

func (s *Streamer) drainOnce(ctx context.Context) {
	for {
		d, ok := s.balances.TryPop()
		if !ok {
			break
		}
		if err := s.producer.SendJSON(ctx, d.UserID, d); err != nil {
			s.log.Warn("send balance delta", zap.Uint64("event_id", d.EventID), zap.Error(err))
		}
	}
	for {
		d, ok := s.holdings.TryPop()
		if !ok {
			break
		}
		if err := s.producer.SendJSON(ctx, d.UserID, d); err != nil {
			s.log.Warn("send holding delta", zap.Uint64("event_id", d.EventID), zap.Error(err))
		}
	}
}

// Package broadcaster drains order events into the outbox and replays
// undelivered entries to Kafka. Delivery is at-least-once: an entry is
// marked SENT before the publish, ACKED and deleted after.
package broadcaster

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"tradecore/engine"
	"tradecore/infra/journal"
	"tradecore/infra/spsc"
)

type Broadcaster struct {
	log      *zap.Logger
	outbox   *journal.Outbox
	producer sarama.SyncProducer
	topic    string
	events   *spsc.Ring[engine.OrderEvent]
	interval time.Duration
}

func New(
	log *zap.Logger,
	outbox *journal.Outbox,
	events *spsc.Ring[engine.OrderEvent],
	brokers []string,
	topic string,
	interval time.Duration,
) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	return &Broadcaster{
		log:      log.Named("broadcaster"),
		outbox:   outbox,
		producer: producer,
		topic:    topic,
		events:   events,
		interval: interval,
	}, nil
}

// Run ingests and replays until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", zap.String("topic", b.topic))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.ingest() // one last drain so nothing queued is lost
			b.log.Info("broadcaster stopped")
			return
		case <-ticker.C:
			b.ingest()
			b.replayOnce()
		}
	}
}

// ingest moves queued events into the outbox as NEW entries.
func (b *Broadcaster) ingest() {
	for {
		ev, ok := b.events.TryPop()
		if !ok {
			return
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			b.log.Error("marshal event", zap.Uint64("event_id", ev.EventID), zap.Error(err))
			continue
		}
		if err := b.outbox.Append(ev.EventID, payload); err != nil {
			b.log.Error("outbox append", zap.Uint64("event_id", ev.EventID), zap.Error(err))
		}
	}
}

// replayOnce ships every NEW outbox entry to Kafka.
func (b *Broadcaster) replayOnce() {
	err := b.outbox.ScanByState(journal.StateNew, func(eventID uint64, rec journal.Record) error {
		if err := b.outbox.UpdateState(eventID, journal.StateSent, rec.Retries+1); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Value: sarama.ByteEncoder(rec.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			// back to NEW so the next tick retries it
			b.log.Warn("kafka send failed", zap.Uint64("event_id", eventID), zap.Error(err))
			return b.outbox.UpdateState(eventID, journal.StateNew, rec.Retries+1)
		}

		if err := b.outbox.UpdateState(eventID, journal.StateAcked, rec.Retries+1); err != nil {
			return err
		}
		return b.outbox.Delete(eventID)
	})
	if err != nil {
		b.log.Error("outbox replay", zap.Error(err))
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}

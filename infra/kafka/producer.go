// Package kafka wraps a kafka-go writer for the ledger delta stream.
package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Send(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

// SendJSON marshals v and keys the message by user id so one user's
// deltas land on one partition in order.
func (p *Producer) SendJSON(ctx context.Context, userID uint64, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Send(ctx, []byte(strconv.FormatUint(userID, 10)), payload)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

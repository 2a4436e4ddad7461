package kafka

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one message. A returned error marks the message as
// skipped; it is committed anyway so one bad message cannot stall the group.
type Handler func(ctx context.Context, key, value []byte) error

// Consumer reads a topic within a consumer group and commits every message
// after the handler has seen it.
type Consumer struct {
	r     messageReader
	topic string

	consumed atomic.Int64
	skipped  atomic.Int64
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
		// новые группы не перечитывают всю историю назначений
		StartOffset: kafka.LastOffset,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return &Consumer{r: kafka.NewReader(cfg), topic: topic}
}

func newConsumerWithReader(r messageReader, topic string) *Consumer {
	return &Consumer{r: r, topic: topic}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consume runs until ctx is done or the broker connection fails. It only
// returns fetch and commit errors; handler errors are logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrapf(err, "fetch message from %s", c.topic)
		}

		if err := handle(ctx, msg.Key, msg.Value); err != nil {
			if ctx.Err() != nil {
				// не коммитим: сообщение перечитается после рестарта
				return ctx.Err()
			}
			c.skipped.Add(1)
			slog.Error("skip message after handler failure",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err.Error())
		} else {
			c.consumed.Add(1)
		}

		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrapf(err, "commit offset %d on %s", msg.Offset, c.topic)
		}
	}
}

type ConsumerStats struct {
	Consumed int64 `json:"consumed"`
	Skipped  int64 `json:"skipped"`
}

func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{Consumed: c.consumed.Load(), Skipped: c.skipped.Load()}
}

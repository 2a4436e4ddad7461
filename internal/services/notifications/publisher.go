package notifications

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/BearBump/WorkshopBox/internal/broker/messages"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Publisher hands assignment notifications to Kafka; the worker delivers them.
type Publisher struct {
	producer Producer
	topic    string
}

func NewPublisher(p Producer, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{producer: p, topic: topic}
}

const DefaultTopic = "workshop.task-assigned"

func (p *Publisher) NotifyAssignment(ctx context.Context, msg messages.TaskAssigned) error {
	if msg.EventID == "" {
		msg.EventID = uuid.NewString()
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal task assigned")
	}
	key := []byte(strconv.FormatInt(msg.TaskID, 10))
	return p.producer.Publish(ctx, p.topic, key, b)
}

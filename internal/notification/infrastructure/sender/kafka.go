package sender

import (
	"context"

	"github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/pkg/mq"
)

// KafkaSender publishes a delivery command; the notifier process performs the delivery.
type KafkaSender struct {
	producer mq.Publisher
	topic    string
}

func NewKafkaSender(producer mq.Publisher, topic string) *KafkaSender {
	return &KafkaSender{producer: producer, topic: topic}
}

func (s *KafkaSender) Name() string { return "kafka" }

// Send keys by recipient so messages to one recipient stay ordered.
func (s *KafkaSender) Send(ctx context.Context, n *domain.Notification) error {
	return s.producer.SendMessage(ctx, s.topic, n.Recipient, domain.CommandFor(n))
}

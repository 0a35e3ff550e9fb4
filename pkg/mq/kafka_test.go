package mq

import (
	"context"
	"errors"
	"testing"
)

type capturePublisher struct {
	topic string
	key   string
	value any
}

func (p *capturePublisher) SendMessage(ctx context.Context, topic, key string, value any) error {
	p.topic, p.key, p.value = topic, key, value
	return nil
}

func TestDeadLetterQueueWrapsOriginal(t *testing.T) {
	pub := &capturePublisher{}
	dlq := NewDeadLetterQueue(pub, "distributor.notifications.dlq")
	msg := &Message{Topic: "distributor.notifications", Key: "n-1", Value: []byte(`{"id":"n-1"}`), Offset: 41}

	if err := dlq.Send(context.Background(), msg, "delivery failed", errors.New("smtp timeout")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if pub.topic != "distributor.notifications.dlq" || pub.key != "n-1" {
		t.Fatalf("unexpected destination %s/%s", pub.topic, pub.key)
	}
	dl, ok := pub.value.(DeadLetter)
	if !ok {
		t.Fatalf("expected a DeadLetter, got %T", pub.value)
	}
	if dl.OriginalValue != `{"id":"n-1"}` || dl.OriginalOffset != 41 || dl.FailureError != "smtp timeout" || dl.FailedAt.IsZero() {
		t.Fatalf("unexpected dead letter: %+v", dl)
	}
}

func TestMessageUnmarshalPayload(t *testing.T) {
	var v struct {
		ID string `json:"id"`
	}
	if err := (&Message{Value: []byte(`{"id":"n-2"}`)}).UnmarshalPayload(&v); err != nil || v.ID != "n-2" {
		t.Fatalf("expected n-2, got %q (%v)", v.ID, err)
	}
	if err := (&Message{Value: []byte("not json")}).UnmarshalPayload(&v); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestConstructorsRequireBrokers(t *testing.T) {
	if _, err := NewProducer(KafkaConfig{}); err == nil {
		t.Fatal("expected producer error without brokers")
	}
	if _, err := NewConsumer(KafkaConfig{}, "topic"); err == nil {
		t.Fatal("expected consumer error without brokers")
	}
}

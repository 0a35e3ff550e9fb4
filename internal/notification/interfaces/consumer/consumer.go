// Package consumer drains the notification topic into the relay.
package consumer

import (
	"context"
	"errors"

	"github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/pkg/logger"
	"github.com/wyfcoding/distributorhub/pkg/mq"
)

// Source yields messages and commits handled ones.
type Source interface {
	FetchMessage(ctx context.Context) (*mq.Message, error)
	CommitMessages(ctx context.Context, messages ...*mq.Message) error
}

// Handler delivers one command.
type Handler interface {
	Handle(ctx context.Context, cmd domain.DeliveryCommand) error
}

// DeadLetters parks messages that failed.
type DeadLetters interface {
	Send(ctx context.Context, original *mq.Message, reason string, err error) error
}

// Consumer commits every message after handling; failures go to the dead-letter topic.
type Consumer struct {
	source  Source
	handler Handler
	dlq     DeadLetters
}

func New(source Source, handler Handler, dlq DeadLetters) *Consumer {
	return &Consumer{source: source, handler: handler, dlq: dlq}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	logger.Info(ctx, "notification consumer started")
	for {
		msg, err := c.source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logger.Info(ctx, "notification consumer stopped")
				return nil
			}
			return err
		}

		c.process(ctx, msg)

		if err := c.source.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error(ctx, "failed to commit notification message", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg *mq.Message) {
	var cmd domain.DeliveryCommand
	if err := msg.UnmarshalPayload(&cmd); err != nil || cmd.NotificationID == "" {
		if err == nil {
			err = errors.New("missing notification_id")
		}
		c.deadLetter(ctx, msg, "malformed command", err)
		return
	}

	if err := c.handler.Handle(ctx, cmd); err != nil {
		logger.Error(ctx, "notification delivery failed",
			"notification_id", cmd.NotificationID,
			"reference", cmd.Reference,
			"error", err,
		)
		c.deadLetter(ctx, msg, "delivery failed", err)
		return
	}
	logger.Debug(ctx, "notification delivered", "notification_id", cmd.NotificationID)
}

func (c *Consumer) deadLetter(ctx context.Context, msg *mq.Message, reason string, err error) {
	if c.dlq == nil {
		return
	}
	if dlqErr := c.dlq.Send(ctx, msg, reason, err); dlqErr != nil {
		logger.Error(ctx, "failed to dead-letter notification message", "offset", msg.Offset, "error", dlqErr)
	}
}

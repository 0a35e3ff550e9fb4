package sender

import (
	"context"

	"github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/pkg/logger"
)

// LogSender writes notifications to the log instead of delivering them (development).
type LogSender struct{}

func NewLogSender() *LogSender { return &LogSender{} }

func (LogSender) Name() string { return "log" }

func (LogSender) Send(ctx context.Context, n *domain.Notification) error {
	logger.Info(ctx, "notification",
		"id", n.ID,
		"recipient", n.Recipient,
		"subject", n.Subject,
		"reference", n.Reference,
		"body", n.Body,
	)
	return nil
}

package application

import (
	"context"
	"time"

	"github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/pkg/metrics"
)

// Relay performs the final delivery of commands taken off the broker and updates the
// matching record.
type Relay struct {
	repo    domain.Repository
	sender  domain.Sender
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRelay(repo domain.Repository, sender domain.Sender, m *metrics.Metrics) *Relay {
	return &Relay{
		repo:    repo,
		sender:  sender,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Handle sends cmd. Records already SENT are skipped so redelivered commands are not
// mailed twice. The send error is returned for dead-lettering.
func (r *Relay) Handle(ctx context.Context, cmd domain.DeliveryCommand) error {
	n, err := r.repo.Get(ctx, cmd.NotificationID)
	if err != nil {
		return err
	}
	if n == nil {
		n = &domain.Notification{
			ID:        cmd.NotificationID,
			Channel:   cmd.Channel,
			Recipient: cmd.Recipient,
			Subject:   cmd.Subject,
			Body:      cmd.Body,
			Reference: cmd.Reference,
			Status:    domain.StatusQueued,
		}
		if err := r.repo.Create(ctx, n); err != nil {
			return err
		}
	}
	if n.Status == domain.StatusSent {
		return nil
	}

	n.Attempts++
	sendErr := r.sender.Send(ctx, n)
	if sendErr != nil {
		n.MarkFailed(sendErr)
	} else {
		n.MarkSent(r.now())
	}
	r.metrics.RecordNotification(string(n.Status))

	if err := r.repo.Save(ctx, n); err != nil {
		if sendErr != nil {
			return sendErr
		}
		return err
	}
	return sendErr
}

package application

import (
	"context"
	"errors"
	"testing"

	"github.com/wyfcoding/distributorhub/internal/notification/domain"
)

func TestRelayCompletesQueuedRecord(t *testing.T) {
	repo := newMemoryRepo()
	queued := &domain.Notification{ID: "n-1", Channel: domain.ChannelEmail, Recipient: "a@example.com", Status: domain.StatusQueued, Attempts: 1}
	_ = repo.Create(context.Background(), queued)

	sender := &stubSender{}
	if err := NewRelay(repo, sender, nil).Handle(context.Background(), domain.CommandFor(queued)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	got, _ := repo.Get(context.Background(), "n-1")
	if got.Status != domain.StatusSent || got.Attempts != 2 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestRelaySkipsSentRecord(t *testing.T) {
	repo := newMemoryRepo()
	sent := &domain.Notification{ID: "n-1", Recipient: "a@example.com", Status: domain.StatusSent}
	_ = repo.Create(context.Background(), sent)

	sender := &stubSender{}
	if err := NewRelay(repo, sender, nil).Handle(context.Background(), domain.CommandFor(sent)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("redelivered command must not be sent twice")
	}
}

func TestRelayCreatesMissingRecordAndReportsFailure(t *testing.T) {
	repo := newMemoryRepo()
	cmd := domain.DeliveryCommand{NotificationID: "n-9", Channel: domain.ChannelEmail, Recipient: "b@example.com", Reference: "account:1"}

	err := NewRelay(repo, &stubSender{err: errors.New("refused")}, nil).Handle(context.Background(), cmd)
	if err == nil {
		t.Fatal("expected send error for dead-lettering")
	}
	got, _ := repo.Get(context.Background(), "n-9")
	if got == nil || got.Status != domain.StatusFailed || got.Reference != "account:1" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

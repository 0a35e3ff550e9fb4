// Package application notification dispatch and delivery
package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/logger"
	"github.com/wyfcoding/distributorhub/pkg/metrics"
)

// ErrQueueFull is recorded on messages dropped because the queue was full.
var ErrQueueFull = errors.New("notification queue full")

// ErrDispatcherStopped is logged for messages submitted after Stop.
var ErrDispatcherStopped = errors.New("notification dispatcher stopped")

// DispatcherConfig sizing of the dispatcher
type DispatcherConfig struct {
	QueueSize int
	Workers   int
	// Timeout bounds a single delivery.
	Timeout time.Duration
	// Handoff marks successful sends as QUEUED instead of SENT (broker-backed senders).
	Handoff bool
}

type job struct {
	ctx context.Context
	msg domain.Message
}

// Dispatcher delivers messages on background workers. Notify never blocks the caller and
// delivery failures never reach it.
type Dispatcher struct {
	repo    domain.Repository
	sender  domain.Sender
	metrics *metrics.Metrics
	cfg     DispatcherConfig

	queue   chan job
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewDispatcher(repo domain.Repository, sender domain.Sender, m *metrics.Metrics, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Dispatcher{
		repo:    repo,
		sender:  sender,
		metrics: m,
		cfg:     cfg,
		queue:   make(chan job, cfg.QueueSize),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the workers. They exit once Stop closes the queue and it is drained.
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range d.queue {
				d.handle(j)
			}
		}()
	}
	logger.Info(context.Background(), "notification dispatcher started",
		"sender", d.sender.Name(),
		"workers", d.cfg.Workers,
		"queue_size", d.cfg.QueueSize,
	)
}

// Notify schedules msg for delivery. When the queue is full the message is dropped and
// recorded as FAILED.
func (d *Dispatcher) Notify(ctx context.Context, msg domain.Message) {
	if msg.Channel == "" {
		msg.Channel = domain.ChannelEmail
	}
	// detach from request cancellation, keep request-scoped values for logging
	j := job{ctx: context.WithoutCancel(ctx), msg: msg}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		logger.Warn(j.ctx, "notification dropped",
			"code", apperr.CodeDependencyFailure,
			"reference", msg.Reference,
			"reason", ErrDispatcherStopped.Error(),
		)
		d.metrics.RecordNotification(string(domain.StatusFailed))
		return
	}
	select {
	case d.queue <- j:
	default:
		d.drop(j, ErrQueueFull)
	}
}

// drop records the message as FAILED off the caller's goroutine. Called with d.mu read-locked.
func (d *Dispatcher) drop(j job, reason error) {
	logger.Warn(j.ctx, "notification dropped",
		"code", apperr.CodeDependencyFailure,
		"reference", j.msg.Reference,
		"reason", reason.Error(),
	)
	d.metrics.RecordNotification(string(domain.StatusFailed))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(j.ctx, d.cfg.Timeout)
		defer cancel()

		n := d.newRecord(j.msg)
		n.MarkFailed(reason)
		if err := d.repo.Create(ctx, n); err != nil {
			logger.Error(ctx, "failed to record dropped notification", "error", err)
		}
	}()
}

func (d *Dispatcher) handle(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.cfg.Timeout)
	defer cancel()

	if _, err := d.Deliver(ctx, j.msg); err != nil {
		logger.Error(ctx, "notification delivery failed",
			"code", apperr.CodeDependencyFailure,
			"sender", d.sender.Name(),
			"reference", j.msg.Reference,
			"error", err,
		)
	}
}

func (d *Dispatcher) newRecord(msg domain.Message) *domain.Notification {
	return &domain.Notification{
		ID:        uuid.NewString(),
		Channel:   msg.Channel,
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Reference: msg.Reference,
		Status:    domain.StatusPending,
	}
}

// Deliver persists a PENDING record, sends it and stores the outcome. It is the
// synchronous path the workers run.
func (d *Dispatcher) Deliver(ctx context.Context, msg domain.Message) (*domain.Notification, error) {
	n := d.newRecord(msg)
	if err := d.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	n.Attempts++
	sendErr := d.sender.Send(ctx, n)
	switch {
	case sendErr != nil:
		n.MarkFailed(sendErr)
	case d.cfg.Handoff:
		n.MarkQueued()
	default:
		n.MarkSent(d.now())
	}
	d.metrics.RecordNotification(string(n.Status))

	if err := d.repo.Save(ctx, n); err != nil {
		return n, errors.Join(sendErr, err)
	}
	return n, sendErr
}

// Stop stops accepting messages and waits for queued ones until ctx ends.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(ctx, "notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

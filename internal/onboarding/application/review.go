package application

import (
	"context"
	"time"

	distributordomain "github.com/wyfcoding/distributorhub/internal/distributor/domain"
	notificationdomain "github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/internal/onboarding/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/cache"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/logger"
	"github.com/wyfcoding/distributorhub/pkg/metrics"
)

// Provisioner creates the distributor account of an approved application.
type Provisioner interface {
	Provision(ctx context.Context, req distributordomain.ProvisionRequest) (*distributordomain.ProvisionResult, error)
}

// Notifier schedules a notification without waiting for delivery.
type Notifier interface {
	Notify(ctx context.Context, msg notificationdomain.Message)
}

// TransitionCommand review decision
type TransitionCommand struct {
	ApplicationID string
	Status        string
	Notes         string
	Reviewer      string
}

// TransitionResult updated application and, for a first approval, the new credentials.
type TransitionResult struct {
	Application *domain.Application
	Account     *distributordomain.Account
	Created     bool
	Password    string
}

// ReviewService moves applications through their lifecycle.
type ReviewService struct {
	repo        domain.Repository
	provisioner Provisioner
	tx          db.Transactor
	notifier    Notifier
	cache       cache.Cache
	metrics     *metrics.Metrics
	portalURL   string
	now         func() time.Time
}

func NewReviewService(
	repo domain.Repository,
	provisioner Provisioner,
	tx db.Transactor,
	notifier Notifier,
	c cache.Cache,
	m *metrics.Metrics,
	portalURL string,
) *ReviewService {
	return &ReviewService{
		repo:        repo,
		provisioner: provisioner,
		tx:          tx,
		notifier:    notifier,
		cache:       c,
		metrics:     m,
		portalURL:   portalURL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Transition applies a review decision. Approval provisions the distributor account in
// the same transaction as the status change; notification is scheduled after commit.
func (s *ReviewService) Transition(ctx context.Context, cmd TransitionCommand) (*TransitionResult, error) {
	status, ok := domain.ParseStatus(cmd.Status)
	if !ok {
		return nil, apperr.Validation("invalid status transition").WithField("status", "unknown status "+cmd.Status)
	}
	if cmd.Reviewer == "" {
		return nil, apperr.Unauthenticated("reviewer identity is required")
	}

	result, err := s.apply(ctx, cmd.ApplicationID, status, cmd.Notes, cmd.Reviewer, nil)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, result)
	return result, nil
}

// Cancel rejects a PENDING application with a fixed note. Any other status is an
// InvalidState error and leaves the record untouched.
func (s *ReviewService) Cancel(ctx context.Context, applicationID, actor string) (*domain.Application, error) {
	result, err := s.apply(ctx, applicationID, domain.StatusRejected, domain.CancelNote, actor, (*domain.Application).CheckCancel)
	if err != nil {
		return nil, err
	}
	return result.Application, nil
}

func (s *ReviewService) apply(
	ctx context.Context,
	id string,
	status domain.Status,
	notes, actor string,
	guard func(*domain.Application) error,
) (*TransitionResult, error) {
	result := &TransitionResult{}
	var from domain.Status
	err := s.tx.Transaction(ctx, func(txCtx context.Context) error {
		app, err := s.repo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if app == nil {
			return apperr.NotFound("application not found")
		}
		if guard != nil {
			if err := guard(app); err != nil {
				return err
			}
		}
		from = app.Status

		if status == domain.StatusApproved {
			prov, err := s.provisioner.Provision(txCtx, app.ToProvisionRequest(actor))
			if err != nil {
				return err
			}
			result.Account = prov.Account
			result.Created = prov.Created
			result.Password = prov.Password
		}

		entry := app.Review(status, notes, actor, s.now())
		if err := s.repo.UpdateReview(txCtx, app); err != nil {
			return err
		}
		if entry != nil {
			if err := s.repo.AppendHistory(txCtx, entry); err != nil {
				return err
			}
			app.History = append(app.History, *entry)
		}
		result.Application = app
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(status))
	invalidateStats(ctx, s.cache)
	logger.Info(ctx, "application status changed",
		"application_id", id,
		"from", from,
		"to", status,
		"reviewer", actor,
		"account_created", result.Created,
	)
	return result, nil
}

func (s *ReviewService) notify(ctx context.Context, result *TransitionResult) {
	msg, ok := decisionMessage(result, s.portalURL)
	if !ok {
		return
	}
	s.notifier.Notify(ctx, msg)
}

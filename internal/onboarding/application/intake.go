// Package application onboarding use cases: intake, review and queries
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/distributorhub/internal/onboarding/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/cache"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/logger"
	"github.com/wyfcoding/distributorhub/pkg/metrics"
)

// StatsCacheKey Redis key of the cached stats
const StatsCacheKey = "onboarding:stats"

// SubmitCommand submission with its file parts. CreatedBy is set when a staff member
// keyed the application.
type SubmitCommand struct {
	Request   SubmitRequest
	Uploads   []domain.Upload
	CreatedBy *string
}

// IntakeService accepts new applications.
type IntakeService struct {
	repo    domain.Repository
	store   domain.DocumentStore
	tx      db.Transactor
	cache   cache.Cache
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewIntakeService(repo domain.Repository, store domain.DocumentStore, tx db.Transactor, c cache.Cache, m *metrics.Metrics) *IntakeService {
	return &IntakeService{
		repo:    repo,
		store:   store,
		tx:      tx,
		cache:   c,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores the uploads, then writes the application, its children and the initial
// PENDING history entry in one transaction. Stored files are removed if the write fails.
func (s *IntakeService) Submit(ctx context.Context, cmd SubmitCommand) (*domain.Application, error) {
	app := cmd.Request.toDomain()
	if app.PersonalDetails.FullName == "" {
		return nil, apperr.Validation("invalid application payload").WithField("personalDetails.fullName", "is required")
	}

	var stored []string
	cleanup := func() {
		for _, path := range stored {
			if err := s.store.Remove(context.WithoutCancel(ctx), path); err != nil {
				logger.Warn(ctx, "failed to remove orphaned upload", "path", path, "error", err)
			}
		}
	}
	for _, u := range cmd.Uploads {
		path, err := s.store.Save(ctx, u.Kind, u.Filename, u.Content)
		if err != nil {
			cleanup()
			return nil, err
		}
		stored = append(stored, path)
		app.Documents = append(app.Documents, domain.Document{Kind: u.Kind, Path: path})
	}

	app.Open(uuid.NewString(), cmd.CreatedBy, s.now())

	err := s.tx.Transaction(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, app)
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	s.metrics.RecordSubmission()
	invalidateStats(ctx, s.cache)
	logger.Info(ctx, "application submitted",
		"application_id", app.ID,
		"documents", len(app.Documents),
		"keyed_by_staff", cmd.CreatedBy != nil,
	)
	return app, nil
}

func invalidateStats(ctx context.Context, c cache.Cache) {
	if err := c.Delete(ctx, StatsCacheKey); err != nil {
		logger.Warn(ctx, "failed to invalidate stats cache", "error", err)
	}
}

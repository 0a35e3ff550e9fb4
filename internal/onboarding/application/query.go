package application

import (
	"context"
	"time"

	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
	"github.com/wyfcoding/distributorhub/internal/onboarding/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/cache"
	"github.com/wyfcoding/distributorhub/pkg/logger"
)

// QueryService read side of applications. Callers without OpViewAllApplications see
// only applications they created or reviewed.
type QueryService struct {
	repo     domain.Repository
	policy   authdomain.Policy
	cache    cache.Cache
	statsTTL time.Duration
	now      func() time.Time
}

func NewQueryService(repo domain.Repository, policy authdomain.Policy, c cache.Cache, statsTTL time.Duration) *QueryService {
	return &QueryService{
		repo:     repo,
		policy:   policy,
		cache:    c,
		statsTTL: statsTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *QueryService) seesAll(p *authdomain.Principal) bool {
	return p != nil && s.policy.Allows(p.Role, authdomain.OpViewAllApplications)
}

func (s *QueryService) List(ctx context.Context, p *authdomain.Principal, filter domain.ListFilter) ([]*domain.Application, int64, error) {
	if p == nil {
		return nil, 0, apperr.Unauthenticated("authentication required")
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, apperr.Validation("invalid filter").WithField("status", "unknown status "+string(filter.Status))
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, apperr.Validation("invalid filter").WithField("to", "must not be before from")
	}
	if !s.seesAll(p) {
		filter.VisibleTo = p.UserID
	}
	return s.repo.List(ctx, filter)
}

// Get an application out of the caller's scope is reported as not found.
func (s *QueryService) Get(ctx context.Context, p *authdomain.Principal, id string) (*domain.Application, error) {
	if p == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil || (!s.seesAll(p) && !app.VisibleTo(p.UserID)) {
		return nil, apperr.NotFound("application not found")
	}
	return app, nil
}

// Stats counts per status and the last 12 months of intake, cached for statsTTL.
func (s *QueryService) Stats(ctx context.Context) (*domain.Stats, error) {
	var cached domain.Stats
	hit, err := s.cache.GetJSON(ctx, StatsCacheKey, &cached)
	if err != nil {
		logger.Warn(ctx, "stats cache read failed", "error", err)
	}
	if hit {
		return &cached, nil
	}

	now := s.now()
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreatedSince(ctx, domain.MonthStart(now))
	if err != nil {
		return nil, err
	}
	stats := domain.BuildStats(counts, created, now)

	if s.statsTTL > 0 {
		if err := s.cache.SetJSON(ctx, StatsCacheKey, stats, s.statsTTL); err != nil {
			logger.Warn(ctx, "stats cache write failed", "error", err)
		}
	}
	return stats, nil
}

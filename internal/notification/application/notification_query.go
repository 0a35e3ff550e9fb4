package application

import (
	"context"

	"github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
)

// NotificationQueryService read side of notification records
type NotificationQueryService struct {
	repo domain.Repository
}

func NewNotificationQueryService(repo domain.Repository) *NotificationQueryService {
	return &NotificationQueryService{repo: repo}
}

func (s *NotificationQueryService) List(ctx context.Context, filter domain.Filter) ([]*domain.Notification, int64, error) {
	return s.repo.List(ctx, filter)
}

func (s *NotificationQueryService) Get(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apperr.NotFound("notification not found")
	}
	return n, nil
}

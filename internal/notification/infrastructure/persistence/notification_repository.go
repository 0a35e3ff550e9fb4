package persistence

import (
	"context"

	"github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/utils"
	"gorm.io/gorm"
)

type notificationRepository struct {
	db *db.DB
}

// NewNotificationRepository GORM notification repository
func NewNotificationRepository(database *db.DB) domain.Repository {
	return &notificationRepository{db: database}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.Conn(ctx).Create(n).Error
}

func (r *notificationRepository) Save(ctx context.Context, n *domain.Notification) error {
	return r.db.Conn(ctx).Save(n).Error
}

func (r *notificationRepository) Get(ctx context.Context, id string) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.Conn(ctx).Where("id = ?", id).First(&n).Error
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) List(ctx context.Context, filter domain.Filter) ([]*domain.Notification, int64, error) {
	page, limit := utils.NormalizePage(filter.Page, filter.Limit)

	q := r.db.Conn(ctx).Model(&domain.Notification{})
	if filter.Reference != "" {
		q = q.Where("reference = ?", filter.Reference)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*domain.Notification
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

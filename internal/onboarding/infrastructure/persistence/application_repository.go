// Package persistence GORM repository of the onboarding context
package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/wyfcoding/distributorhub/internal/onboarding/domain"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type applicationRepository struct {
	db *db.DB
}

// NewApplicationRepository GORM Repository
func NewApplicationRepository(database *db.DB) domain.Repository {
	return &applicationRepository{db: database}
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	return r.db.Conn(ctx).Create(app).Error
}

func (r *applicationRepository) Get(ctx context.Context, id string) (*domain.Application, error) {
	return r.load(r.db.Conn(ctx), id)
}

// GetForUpdate takes a row lock. SQLite has no row locks and its driver drops the
// clause; writers there are already serialized.
func (r *applicationRepository) GetForUpdate(ctx context.Context, id string) (*domain.Application, error) {
	return r.load(r.db.Conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *applicationRepository) load(conn *gorm.DB, id string) (*domain.Application, error) {
	var app domain.Application
	err := conn.
		Preload("BusinessTransactions", byID).
		Preload("ProductsToDistribute", byID).
		Preload("AreaCoverage", byID).
		Preload("Documents", byID).
		Preload("History", func(tx *gorm.DB) *gorm.DB { return tx.Order("changed_at ASC, id ASC") }).
		Where("id = ?", id).
		First(&app).Error
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func byID(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }

func (r *applicationRepository) UpdateReview(ctx context.Context, app *domain.Application) error {
	res := r.db.Conn(ctx).Model(&domain.Application{}).
		Where("id = ?", app.ID).
		Updates(map[string]any{
			"status":       app.Status,
			"reviewed_by":  app.ReviewedBy,
			"reviewed_at":  app.ReviewedAt,
			"review_notes": app.ReviewNotes,
			"updated_at":   app.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *applicationRepository) AppendHistory(ctx context.Context, entry *domain.History) error {
	return r.db.Conn(ctx).Create(entry).Error
}

func (r *applicationRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Application, int64, error) {
	page, limit := utils.NormalizePage(filter.Page, filter.Limit)

	q := r.db.Conn(ctx).Model(&domain.Application{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	if filter.ReviewerID != "" {
		q = q.Where("reviewed_by = ?", filter.ReviewerID)
	}
	if filter.VisibleTo != "" {
		q = q.Where("(created_by = ? OR reviewed_by = ?)", filter.VisibleTo, filter.VisibleTo)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := utils.ContainsPattern(s)
		q = q.Where(`(LOWER(full_name) LIKE ? ESCAPE '\' OR LOWER(company_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\' OR LOWER(national_id) LIKE ? ESCAPE '\')`,
			like, like, like, like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var apps []*domain.Application
	err := q.Order("created_at DESC, id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&apps).Error
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func (r *applicationRepository) CountByStatus(ctx context.Context) (map[domain.Status]int64, error) {
	var rows []struct {
		Status domain.Status
		Count  int64
	}
	err := r.db.Conn(ctx).Model(&domain.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Status]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *applicationRepository) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.Conn(ctx).Model(&domain.Application{}).
		Where("created_at >= ?", since).
		Pluck("created_at", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

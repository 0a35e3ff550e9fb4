// Package persistence GORM repositories of the catalog context
package persistence

import (
	"context"
	"strings"

	"github.com/wyfcoding/distributorhub/internal/catalog/domain"
	distributordomain "github.com/wyfcoding/distributorhub/internal/distributor/domain"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/utils"
	"gorm.io/gorm"
)

type categoryRepository struct {
	db *db.DB
}

// NewCategoryRepository GORM CategoryRepository
func NewCategoryRepository(database *db.DB) domain.CategoryRepository {
	return &categoryRepository{db: database}
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	return r.db.Conn(ctx).Create(c).Error
}

func (r *categoryRepository) Save(ctx context.Context, c *domain.Category) error {
	return r.db.Conn(ctx).Omit("Products").Save(c).Error
}

func (r *categoryRepository) Get(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.Conn(ctx).Where("id = ?", id).First(&c).Error
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) List(ctx context.Context, filter domain.CategoryFilter) ([]*domain.Category, error) {
	q := r.db.Conn(ctx).Model(&domain.Category{})
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []*domain.Category{}, nil
		}
		q = q.Where("id IN ?", filter.IDs)
	}
	var out []*domain.Category
	if err := q.Order("sort_order ASC, title ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type productRepository struct {
	db *db.DB
}

// NewProductRepository GORM ProductRepository
func NewProductRepository(database *db.DB) domain.ProductRepository {
	return &productRepository{db: database}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	return r.db.Conn(ctx).Create(p).Error
}

func (r *productRepository) Save(ctx context.Context, p *domain.Product) error {
	return r.db.Conn(ctx).Save(p).Error
}

func (r *productRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.Conn(ctx).Where("id = ?", id).First(&p).Error
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error) {
	page, limit := utils.NormalizePage(filter.Page, filter.Limit)

	q := r.db.Conn(ctx).Model(&domain.Product{})
	if filter.CategoryIDs != nil {
		if len(filter.CategoryIDs) == 0 {
			return []*domain.Product{}, 0, nil
		}
		q = q.Where("category_id IN ?", filter.CategoryIDs)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := utils.ContainsPattern(s)
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(slug) LIKE ? ESCAPE '\')`, like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*domain.Product
	err := q.Order("sort_order ASC, title ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *productRepository) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	err := r.db.Conn(ctx).
		Where("is_active = ? AND stock_quantity <= reorder_level", true).
		Order("stock_quantity ASC, title ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type categoryDirectory struct {
	db *db.DB
}

// NewCategoryDirectory exposes catalog categories to the distributor context.
func NewCategoryDirectory(database *db.DB) distributordomain.CategoryDirectory {
	return &categoryDirectory{db: database}
}

func (d *categoryDirectory) Lookup(ctx context.Context, ids []string) ([]distributordomain.CategoryRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []domain.Category
	err := d.db.Conn(ctx).
		Select("id", "title", "slug", "is_active").
		Where("id IN ?", ids).
		Order("sort_order ASC, title ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]distributordomain.CategoryRef, 0, len(rows))
	for _, c := range rows {
		out = append(out, distributordomain.CategoryRef{ID: c.ID, Title: c.Title, Slug: c.Slug, IsActive: c.IsActive})
	}
	return out, nil
}

// Package application catalog use cases
package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/distributorhub/internal/catalog/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/logger"
)

// CreateCategoryCommand new category
type CreateCategoryCommand struct {
	Title       string `json:"title" binding:"required,max=255"`
	Slug        string `json:"slug" binding:"omitempty,max=255"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

// UpdateCategoryCommand nil fields are left unchanged.
type UpdateCategoryCommand struct {
	ID          string  `json:"-"`
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Slug        *string `json:"slug" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
	SortOrder   *int    `json:"sortOrder"`
}

// CreateProductCommand new product
type CreateProductCommand struct {
	CategoryID    string          `json:"categoryId" binding:"required"`
	Title         string          `json:"title" binding:"required,max=255"`
	Slug          string          `json:"slug" binding:"omitempty,max=255"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Cost          decimal.Decimal `json:"cost"`
	StockQuantity int             `json:"stockQuantity" binding:"gte=0"`
	ReorderLevel  int             `json:"reorderLevel" binding:"gte=0"`
	SortOrder     int             `json:"sortOrder"`
}

// UpdateProductCommand nil fields are left unchanged.
type UpdateProductCommand struct {
	ID            string           `json:"-"`
	CategoryID    *string          `json:"categoryId"`
	Title         *string          `json:"title" binding:"omitempty,max=255"`
	Slug          *string          `json:"slug" binding:"omitempty,max=255"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Cost          *decimal.Decimal `json:"cost"`
	StockQuantity *int             `json:"stockQuantity" binding:"omitempty,gte=0"`
	ReorderLevel  *int             `json:"reorderLevel" binding:"omitempty,gte=0"`
	IsActive      *bool            `json:"isActive"`
	SortOrder     *int             `json:"sortOrder"`
}

// CatalogCommandService write side of the catalog
type CatalogCommandService struct {
	categories domain.CategoryRepository
	products   domain.ProductRepository
}

func NewCatalogCommandService(categories domain.CategoryRepository, products domain.ProductRepository) *CatalogCommandService {
	return &CatalogCommandService{categories: categories, products: products}
}

func slugFor(slug, title string) string {
	if s := domain.Slugify(slug); s != "" {
		return s
	}
	return domain.Slugify(title)
}

func (s *CatalogCommandService) CreateCategory(ctx context.Context, cmd CreateCategoryCommand) (*domain.Category, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return nil, apperr.Validation("invalid category").WithField("title", "is required")
	}
	c := &domain.Category{
		ID:          uuid.NewString(),
		Title:       title,
		Slug:        slugFor(cmd.Slug, title),
		Description: cmd.Description,
		IsActive:    true,
		SortOrder:   cmd.SortOrder,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Info(ctx, "category created", "category_id", c.ID, "slug", c.Slug)
	return c, nil
}

func (s *CatalogCommandService) mustCategory(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("category not found")
	}
	return c, nil
}

func (s *CatalogCommandService) UpdateCategory(ctx context.Context, cmd UpdateCategoryCommand) (*domain.Category, error) {
	c, err := s.mustCategory(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if cmd.Title != nil {
		t := strings.TrimSpace(*cmd.Title)
		if t == "" {
			return nil, apperr.Validation("invalid category").WithField("title", "must not be empty")
		}
		c.Title = t
	}
	if cmd.Slug != nil {
		c.Slug = slugFor(*cmd.Slug, c.Title)
	}
	if cmd.Description != nil {
		c.Description = *cmd.Description
	}
	if cmd.IsActive != nil {
		c.IsActive = *cmd.IsActive
	}
	if cmd.SortOrder != nil {
		c.SortOrder = *cmd.SortOrder
	}
	if err := s.categories.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeactivateCategory hides the category; assignments to it are kept.
func (s *CatalogCommandService) DeactivateCategory(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.mustCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, apperr.InvalidState("category is already inactive")
	}
	c.IsActive = false
	if err := s.categories.Save(ctx, c); err != nil {
		return nil, err
	}
	logger.Info(ctx, "category deactivated", "category_id", c.ID)
	return c, nil
}

func validateAmounts(price, cost decimal.Decimal) error {
	verr := apperr.Validation("invalid product")
	if price.IsNegative() {
		verr.WithField("price", "must not be negative")
	}
	if cost.IsNegative() {
		verr.WithField("cost", "must not be negative")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (s *CatalogCommandService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return nil, apperr.Validation("invalid product").WithField("title", "is required")
	}
	if err := validateAmounts(cmd.Price, cmd.Cost); err != nil {
		return nil, err
	}
	if _, err := s.mustCategory(ctx, cmd.CategoryID); err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, apperr.Validation("invalid product").WithField("categoryId", "unknown category")
		}
		return nil, err
	}
	p := &domain.Product{
		ID:            uuid.NewString(),
		CategoryID:    cmd.CategoryID,
		Title:         title,
		Slug:          slugFor(cmd.Slug, title),
		Description:   cmd.Description,
		Price:         cmd.Price,
		Cost:          cmd.Cost,
		StockQuantity: cmd.StockQuantity,
		ReorderLevel:  cmd.ReorderLevel,
		IsActive:      true,
		SortOrder:     cmd.SortOrder,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.Info(ctx, "product created", "product_id", p.ID, "category_id", p.CategoryID)
	return p, nil
}

func (s *CatalogCommandService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	p, err := s.products.Get(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product not found")
	}
	if cmd.CategoryID != nil && *cmd.CategoryID != p.CategoryID {
		if _, err := s.mustCategory(ctx, *cmd.CategoryID); err != nil {
			if apperr.Is(err, apperr.CodeNotFound) {
				return nil, apperr.Validation("invalid product").WithField("categoryId", "unknown category")
			}
			return nil, err
		}
		p.CategoryID = *cmd.CategoryID
	}
	if cmd.Title != nil {
		t := strings.TrimSpace(*cmd.Title)
		if t == "" {
			return nil, apperr.Validation("invalid product").WithField("title", "must not be empty")
		}
		p.Title = t
	}
	if cmd.Slug != nil {
		p.Slug = slugFor(*cmd.Slug, p.Title)
	}
	if cmd.Description != nil {
		p.Description = *cmd.Description
	}
	if cmd.Price != nil {
		p.Price = *cmd.Price
	}
	if cmd.Cost != nil {
		p.Cost = *cmd.Cost
	}
	if err := validateAmounts(p.Price, p.Cost); err != nil {
		return nil, err
	}
	if cmd.StockQuantity != nil {
		p.StockQuantity = *cmd.StockQuantity
	}
	if cmd.ReorderLevel != nil {
		p.ReorderLevel = *cmd.ReorderLevel
	}
	if cmd.IsActive != nil {
		p.IsActive = *cmd.IsActive
	}
	if cmd.SortOrder != nil {
		p.SortOrder = *cmd.SortOrder
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	if p.NeedsReorder() && p.IsActive {
		logger.Warn(ctx, "product at reorder level", "product_id", p.ID, "stock", p.StockQuantity, "reorder_level", p.ReorderLevel)
	}
	return p, nil
}

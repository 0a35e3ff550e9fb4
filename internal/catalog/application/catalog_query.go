package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/distributorhub/internal/catalog/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
)

// AssignmentSource category ids assigned to a distributor account
type AssignmentSource interface {
	AssignedCategoryIDs(ctx context.Context, accountID string) ([]string, error)
}

// ProductView product with derived stock and margin figures
type ProductView struct {
	*domain.Product
	Margin        decimal.Decimal `json:"margin"`
	MarginPercent decimal.Decimal `json:"marginPercent"`
	NeedsReorder  bool            `json:"needsReorder"`
}

func NewProductView(p *domain.Product) ProductView {
	return ProductView{Product: p, Margin: p.Margin(), MarginPercent: p.MarginPercent(), NeedsReorder: p.NeedsReorder()}
}

// PortalProduct product as a distributor sees it; cost and margin stay internal.
type PortalProduct struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

// PortalCategory assigned category with its active products
type PortalCategory struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Products    []PortalProduct `json:"products"`
}

// CatalogQueryService read side of the catalog
type CatalogQueryService struct {
	categories  domain.CategoryRepository
	products    domain.ProductRepository
	assignments AssignmentSource
}

func NewCatalogQueryService(categories domain.CategoryRepository, products domain.ProductRepository, assignments AssignmentSource) *CatalogQueryService {
	return &CatalogQueryService{categories: categories, products: products, assignments: assignments}
}

func (s *CatalogQueryService) ListCategories(ctx context.Context, active *bool) ([]*domain.Category, error) {
	return s.categories.List(ctx, domain.CategoryFilter{IsActive: active})
}

func (s *CatalogQueryService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("category not found")
	}
	return c, nil
}

func (s *CatalogQueryService) GetProduct(ctx context.Context, id string) (ProductView, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return ProductView{}, err
	}
	if p == nil {
		return ProductView{}, apperr.NotFound("product not found")
	}
	return NewProductView(p), nil
}

func (s *CatalogQueryService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]ProductView, int64, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return views(products), total, nil
}

// LowStock active products at or below their reorder level
func (s *CatalogQueryService) LowStock(ctx context.Context) ([]ProductView, error) {
	products, err := s.products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return views(products), nil
}

func views(products []*domain.Product) []ProductView {
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductView(p))
	}
	return out
}

// portalProductLimit caps the products listed per portal request.
const portalProductLimit = 100

// Portal active categories assigned to the account with their active products.
func (s *CatalogQueryService) Portal(ctx context.Context, accountID string) ([]PortalCategory, error) {
	ids, err := s.assignments.AssignedCategoryIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	active := true
	categories, err := s.categories.List(ctx, domain.CategoryFilter{IsActive: &active, IDs: ids})
	if err != nil {
		return nil, err
	}
	out := make([]PortalCategory, 0, len(categories))
	if len(categories) == 0 {
		return out, nil
	}

	categoryIDs := make([]string, 0, len(categories))
	for _, c := range categories {
		categoryIDs = append(categoryIDs, c.ID)
	}
	products, _, err := s.products.List(ctx, domain.ProductFilter{CategoryIDs: categoryIDs, IsActive: &active, Limit: portalProductLimit})
	if err != nil {
		return nil, err
	}
	byCategory := make(map[string][]PortalProduct, len(categories))
	for _, p := range products {
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], PortalProduct{
			ID:            p.ID,
			Title:         p.Title,
			Slug:          p.Slug,
			Description:   p.Description,
			Price:         p.Price,
			StockQuantity: p.StockQuantity,
		})
	}
	for _, c := range categories {
		items := byCategory[c.ID]
		if items == nil {
			items = []PortalProduct{}
		}
		out = append(out, PortalCategory{ID: c.ID, Title: c.Title, Slug: c.Slug, Description: c.Description, Products: items})
	}
	return out, nil
}

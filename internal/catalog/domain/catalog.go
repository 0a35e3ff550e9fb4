// Package domain product categories and products
package domain

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category product category; distributors see the categories assigned to them.
type Category struct {
	ID          string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Title       string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Slug        string    `gorm:"column:slug;type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	IsActive    bool      `gorm:"column:is_active;not null" json:"isActive"`
	SortOrder   int       `gorm:"column:sort_order;not null" json:"sortOrder"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updatedAt"`

	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

func (Category) TableName() string { return "categories" }

// Product sellable item of a category
type Product struct {
	ID            string          `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	CategoryID    string          `gorm:"column:category_id;type:varchar(36);index;not null" json:"categoryId"`
	Title         string          `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Slug          string          `gorm:"column:slug;type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description   string          `gorm:"column:description;type:text" json:"description"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(18,2);not null" json:"price"`
	Cost          decimal.Decimal `gorm:"column:cost;type:decimal(18,2);not null" json:"cost"`
	StockQuantity int             `gorm:"column:stock_quantity;not null" json:"stockQuantity"`
	ReorderLevel  int             `gorm:"column:reorder_level;not null" json:"reorderLevel"`
	IsActive      bool            `gorm:"column:is_active;not null" json:"isActive"`
	SortOrder     int             `gorm:"column:sort_order;not null" json:"sortOrder"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}

func (Product) TableName() string { return "products" }

// NeedsReorder reports whether stock has fallen to the reorder level.
func (p *Product) NeedsReorder() bool {
	return p.StockQuantity <= p.ReorderLevel
}

// Margin price minus cost
func (p *Product) Margin() decimal.Decimal {
	return p.Price.Sub(p.Cost)
}

// MarginPercent margin as a percentage of price, zero when price is zero.
func (p *Product) MarginPercent() decimal.Decimal {
	if p.Price.IsZero() {
		return decimal.Zero
	}
	return p.Margin().Div(p.Price).Mul(decimal.NewFromInt(100)).Round(2)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// CategoryFilter list criteria
type CategoryFilter struct {
	IsActive *bool
	IDs      []string
}

// ProductFilter list criteria
type ProductFilter struct {
	CategoryIDs []string
	IsActive    *bool
	Search      string
	Page        int
	Limit       int
}

// CategoryRepository returns (nil, nil) from getters when nothing matches.
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	Save(ctx context.Context, c *Category) error
	Get(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context, filter CategoryFilter) ([]*Category, error)
}

// ProductRepository returns (nil, nil) from getters when nothing matches.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	Save(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)
	// ListLowStock returns active products whose stock is at or below their reorder level.
	ListLowStock(ctx context.Context) ([]*Product, error)
}

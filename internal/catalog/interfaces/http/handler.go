// Package http catalog administration and distributor portal routes
package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
	"github.com/wyfcoding/distributorhub/internal/catalog/application"
	"github.com/wyfcoding/distributorhub/internal/catalog/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/response"
	"github.com/wyfcoding/distributorhub/pkg/utils"
)

// Guard builds the middleware enforcing op.
type Guard func(op authdomain.Operation) gin.HandlerFunc

type Handler struct {
	cmd   *application.CatalogCommandService
	query *application.CatalogQueryService
}

func NewHandler(cmd *application.CatalogCommandService, query *application.CatalogQueryService) *Handler {
	return &Handler{cmd: cmd, query: query}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, require Guard) {
	view := require(authdomain.OpViewCatalog)
	manage := require(authdomain.OpManageCatalog)

	g := r.Group("/catalog")
	g.GET("/categories", view, h.ListCategories)
	g.GET("/categories/:id", view, h.GetCategory)
	g.POST("/categories", manage, h.CreateCategory)
	g.PUT("/categories/:id", manage, h.UpdateCategory)
	g.DELETE("/categories/:id", manage, h.DeactivateCategory)

	g.GET("/products", view, h.ListProducts)
	g.GET("/products/low-stock", view, h.LowStock)
	g.GET("/products/:id", view, h.GetProduct)
	g.POST("/products", manage, h.CreateProduct)
	g.PUT("/products/:id", manage, h.UpdateProduct)

	r.GET("/portal/catalog", require(authdomain.OpViewPortal), h.Portal)
}

func optionalBool(c *gin.Context, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("invalid query").WithField(key, "must be true or false")
	}
	return &v, nil
}

func (h *Handler) ListCategories(c *gin.Context) {
	active, err := optionalBool(c, "isActive")
	if err != nil {
		_ = c.Error(err)
		return
	}
	items, err := h.query.ListCategories(c.Request.Context(), active)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "categories retrieved", items)
}

func (h *Handler) GetCategory(c *gin.Context) {
	item, err := h.query.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "category retrieved", item)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req application.CreateCategoryCommand
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	item, err := h.cmd.CreateCategory(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Created(c, "category created", item)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	var req application.UpdateCategoryCommand
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	req.ID = c.Param("id")
	item, err := h.cmd.UpdateCategory(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "category updated", item)
}

func (h *Handler) DeactivateCategory(c *gin.Context) {
	item, err := h.cmd.DeactivateCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "category deactivated", item)
}

type productQuery struct {
	CategoryID string `form:"categoryId"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

func (h *Handler) ListProducts(c *gin.Context) {
	var q productQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(err)
		return
	}
	active, err := optionalBool(c, "isActive")
	if err != nil {
		_ = c.Error(err)
		return
	}
	filter := domain.ProductFilter{IsActive: active, Search: q.Search, Page: q.Page, Limit: q.Limit}
	if q.CategoryID != "" {
		filter.CategoryIDs = []string{q.CategoryID}
	}
	items, total, err := h.query.ListProducts(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Paged(c, "products retrieved", items, utils.NewPagination(q.Page, q.Limit, total))
}

func (h *Handler) LowStock(c *gin.Context) {
	items, err := h.query.LowStock(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "low stock products retrieved", items)
}

func (h *Handler) GetProduct(c *gin.Context) {
	item, err := h.query.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "product retrieved", item)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req application.CreateProductCommand
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	item, err := h.cmd.CreateProduct(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Created(c, "product created", application.NewProductView(item))
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var req application.UpdateProductCommand
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	req.ID = c.Param("id")
	item, err := h.cmd.UpdateProduct(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "product updated", application.NewProductView(item))
}

// Portal catalog of the calling distributor
func (h *Handler) Portal(c *gin.Context) {
	p := authdomain.PrincipalFrom(c.Request.Context())
	if p == nil {
		_ = c.Error(apperr.Unauthenticated("authentication required"))
		return
	}
	items, err := h.query.Portal(c.Request.Context(), p.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "catalog retrieved", items)
}

package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/distributorhub/internal/notification/application"
	"github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/pkg/response"
	"github.com/wyfcoding/distributorhub/pkg/utils"
)

// Handler notification records (read only)
type Handler struct {
	query *application.NotificationQueryService
}

func NewHandler(query *application.NotificationQueryService) *Handler {
	return &Handler{query: query}
}

// RegisterRoutes mounts the routes under r; guard is applied to every route.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard gin.HandlerFunc) {
	g := r.Group("/notifications", guard)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

type listQuery struct {
	Reference string `form:"reference"`
	Status    string `form:"status" binding:"omitempty,oneof=PENDING QUEUED SENT FAILED"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(err)
		return
	}
	items, total, err := h.query.List(c.Request.Context(), domain.Filter{
		Reference: q.Reference,
		Status:    domain.Status(q.Status),
		Page:      q.Page,
		Limit:     q.Limit,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Paged(c, "notifications retrieved", items, utils.NewPagination(q.Page, q.Limit, total))
}

func (h *Handler) Get(c *gin.Context) {
	n, err := h.query.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "notification retrieved", n)
}

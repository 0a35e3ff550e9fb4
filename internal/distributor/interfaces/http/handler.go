// Package http distributor account administration routes
package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
	"github.com/wyfcoding/distributorhub/internal/distributor/application"
	"github.com/wyfcoding/distributorhub/internal/distributor/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/response"
	"github.com/wyfcoding/distributorhub/pkg/utils"
)

type Handler struct {
	cmd   *application.AccountCommandService
	query *application.AccountQueryService
}

func NewHandler(cmd *application.AccountCommandService, query *application.AccountQueryService) *Handler {
	return &Handler{cmd: cmd, query: query}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, require func(op authdomain.Operation) gin.HandlerFunc) {
	g := r.Group("/distributors")
	g.GET("", require(authdomain.OpViewDistributors), h.List)
	g.GET("/:id", require(authdomain.OpViewDistributors), h.Get)

	creds := require(authdomain.OpManageCredentials)
	g.GET("/:id/credentials", creds, h.GetCredentials)
	g.POST("/:id/credentials", creds, h.SaveCredentials)
	g.DELETE("/:id/credentials", creds, h.ResetCredentials)

	toggle := require(authdomain.OpToggleDistributors)
	g.PATCH("/:id/activate", toggle, h.Activate)
	g.PATCH("/:id/deactivate", toggle, h.Deactivate)
}

type profileView struct {
	*domain.Profile
	Documents map[string]string `json:"documents"`
}

// AccountView account with profile documents rendered as kind -> path
type AccountView struct {
	*domain.Account
	Profile *profileView `json:"profile,omitempty"`
}

func NewAccountView(a *domain.Account) AccountView {
	v := AccountView{Account: a}
	if a.Profile != nil {
		v.Profile = &profileView{Profile: a.Profile, Documents: a.Profile.DocumentMap()}
	}
	return v
}

type listQuery struct {
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(err)
		return
	}
	filter := domain.AccountFilter{
		Role:   authdomain.RoleDistributor,
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
	}
	if raw := c.Query("isActive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			_ = c.Error(apperr.Validation("invalid query").WithField("isActive", "must be true or false"))
			return
		}
		filter.IsActive = &v
	}

	accounts, total, err := h.query.List(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	views := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, NewAccountView(a))
	}
	response.Paged(c, "distributors retrieved", views, utils.NewPagination(q.Page, q.Limit, total))
}

func (h *Handler) Get(c *gin.Context) {
	account, err := h.query.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "distributor retrieved", NewAccountView(account))
}

func (h *Handler) GetCredentials(c *gin.Context) {
	view, err := h.query.GetCredentials(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "credentials retrieved", view)
}

type saveCredentialsRequest struct {
	Username    string   `json:"username" binding:"required"`
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password"`
	CategoryIDs []string `json:"categoryIds"`
}

func actor(c *gin.Context) string {
	if p := authdomain.PrincipalFrom(c.Request.Context()); p != nil {
		return p.UserID
	}
	return ""
}

func (h *Handler) SaveCredentials(c *gin.Context) {
	var req saveCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	ctx := c.Request.Context()
	account, err := h.cmd.SaveCredentials(ctx, application.SaveCredentialsCommand{
		AccountID:   c.Param("id"),
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		CategoryIDs: req.CategoryIDs,
		Actor:       actor(c),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	view, err := h.query.GetCredentials(ctx, account.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "credentials saved", view)
}

type resetResponse struct {
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
}

func (h *Handler) ResetCredentials(c *gin.Context) {
	res, err := h.cmd.ResetCredentials(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "credentials reset", resetResponse{
		AccountID: res.Account.ID,
		Username:  res.Username,
		Password:  res.Password,
		Email:     res.Account.Email,
	})
}

func (h *Handler) Activate(c *gin.Context) {
	account, err := h.cmd.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "distributor activated", NewAccountView(account))
}

func (h *Handler) Deactivate(c *gin.Context) {
	account, err := h.cmd.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "distributor deactivated", NewAccountView(account))
}

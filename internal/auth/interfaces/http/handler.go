// Package http login routes and the authentication guard
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/distributorhub/internal/auth/application"
	"github.com/wyfcoding/distributorhub/internal/auth/domain"
	"github.com/wyfcoding/distributorhub/pkg/response"
)

type Handler struct {
	svc *application.AuthService
}

func NewHandler(svc *application.AuthService) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes login is public and may be throttled by loginLimit.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard *Guard, loginLimit gin.HandlerFunc) {
	g := r.Group("/auth")
	g.POST("/login", loginLimit, h.Login)
	g.GET("/me", guard.Authenticate(), h.Me)
}

func (h *Handler) Login(c *gin.Context) {
	var req application.LoginCommand
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "login successful", res)
}

func (h *Handler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	account, err := h.svc.Me(ctx, domain.PrincipalFrom(ctx))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "current user", account)
}

package http

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/distributorhub/internal/auth/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/logger"
)

// Authenticator resolves a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// Guard gin middleware for authentication and the operation policy
type Guard struct {
	auth   Authenticator
	policy domain.Policy
}

func NewGuard(auth Authenticator, policy domain.Policy) *Guard {
	return &Guard{auth: auth, policy: policy}
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (g *Guard) attach(c *gin.Context, p *domain.Principal) {
	c.Request = c.Request.WithContext(domain.ContextWithPrincipal(c.Request.Context(), p))
}

// authenticate attaches the principal or records the error and aborts.
func (g *Guard) authenticate(c *gin.Context) bool {
	if domain.PrincipalFrom(c.Request.Context()) != nil {
		return true
	}
	token := bearer(c)
	if token == "" {
		_ = c.Error(apperr.Unauthenticated("authentication required"))
		c.Abort()
		return false
	}
	p, err := g.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return false
	}
	g.attach(c, p)
	return true
}

// Authenticate requires a valid token.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.authenticate(c) {
			c.Next()
		}
	}
}

// Optional attaches the principal when a valid token is sent and ignores anything else.
func (g *Guard) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearer(c); token != "" {
			p, err := g.auth.Authenticate(c.Request.Context(), token)
			if err != nil {
				logger.Debug(c.Request.Context(), "ignoring invalid optional token", "error", err)
			} else {
				g.attach(c, p)
			}
		}
		c.Next()
	}
}

// Require authenticates and then checks op against the policy.
func (g *Guard) Require(op domain.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.authenticate(c) {
			return
		}
		p := domain.PrincipalFrom(c.Request.Context())
		if !g.policy.Allows(p.Role, op) {
			logger.Warn(c.Request.Context(), "operation forbidden", "op", op, "role", p.Role, "user_id", p.UserID)
			_ = c.Error(apperr.Forbidden("insufficient role for " + string(op)))
			c.Abort()
			return
		}
		c.Next()
	}
}

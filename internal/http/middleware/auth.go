package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"learnport.com/app/internal/modules/identity"
	"learnport.com/app/internal/shared/apperr"
)

const CtxKeyCurrentUser = "current_user"

type TokenResolver interface {
	ResolveToken(ctx context.Context, plain string) (identity.User, error)
}

// Auth resolves an optional bearer token into the current user. It never
// rejects by itself; RequireAuth/RequireRole do that per route.
func Auth(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		u, err := resolver.ResolveToken(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			Fail(c, err)
			return
		}
		SetCurrentUser(c, u)
		c.Next()
	}
}

func SetCurrentUser(c *gin.Context, u identity.User) {
	c.Set(CtxKeyCurrentUser, u)
}

func CurrentUser(c *gin.Context) (identity.User, bool) {
	v, ok := c.Get(CtxKeyCurrentUser)
	if !ok {
		return identity.User{}, false
	}
	u, ok := v.(identity.User)
	return u, ok
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			Fail(c, apperr.UnauthorizedErr("authentication required"))
			return
		}
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			Fail(c, apperr.UnauthorizedErr("authentication required"))
			return
		}
		if u.Role != role {
			Fail(c, apperr.ForbiddenErr("forbidden"))
			return
		}
		c.Next()
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"learnport.com/app/internal/http/middleware"
	"learnport.com/app/internal/http/validation"
	"learnport.com/app/internal/modules/identity"
	"learnport.com/app/internal/shared/apperr"
)

type AuthHandler struct {
	Identity *identity.Service
}

func NewAuthHandler(svc *identity.Service) *AuthHandler {
	return &AuthHandler{Identity: svc}
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("invalid login payload", validation.FromBindError(err, &in)))
		return
	}

	token, u, err := h.Identity.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			middleware.Fail(c, apperr.UnauthorizedErr("invalid email or password"))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    u.ID,
			"email": u.Email,
			"role":  u.Role,
		},
	})
}

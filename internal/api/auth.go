package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// AuthHandler issues and revokes tokens.
type AuthHandler struct {
	authService service.IAuthService
}

func NewAuthHandler(authService service.IAuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, auth Middlewares) {
	tokens := router.Group("/auth/token")
	{
		tokens.POST("/login", h.Login)
		tokens.POST("/logout", auth.Required, h.Logout)
	}
}

// Login exchanges email and password for a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	missing := map[string][]string{}
	if req.Email == nil || *req.Email == "" {
		missing["email"] = []string{"This field is required."}
	}
	if req.Password == nil || *req.Password == "" {
		missing["password"] = []string{"This field is required."}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Errors: missing})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), *req.Email, *req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout revokes the token used for this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.CurrentClaims(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

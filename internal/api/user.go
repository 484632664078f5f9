package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves accounts and subscriptions.
type UserHandler struct {
	userService service.IUserService
	authService service.IAuthService
}

func NewUserHandler(userService service.IUserService, authService service.IAuthService) *UserHandler {
	return &UserHandler{userService: userService, authService: authService}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, auth Middlewares) {
	users := router.Group("/users")
	{
		users.GET("", auth.Optional, h.ListUsers)
		users.POST("", h.Register)
		users.GET("/me", auth.Required, h.Me)
		users.PATCH("/me", auth.Required, h.UpdateMe)
		users.POST("/set_password", auth.Required, h.SetPassword)
		users.GET("/subscriptions", auth.Required, h.Subscriptions)
		users.GET("/:id", auth.Optional, h.GetUser)
		users.POST("/:id/subscribe", auth.Required, h.Subscribe)
		users.DELETE("/:id/subscribe", auth.Required, h.Unsubscribe)
	}
}

// recipesLimit reads ?recipes_limit=; absent or invalid means no cap.
func recipesLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page := paginationFromQuery(c)
	result, err := h.userService.List(c.Request.Context(), middleware.CurrentUserID(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, result)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	user, err := h.userService.Get(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req types.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.UpdateMe(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	err := h.authService.SetPassword(c.Request.Context(), middleware.CurrentUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Password updated successfully",
	})
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page := paginationFromQuery(c)
	result, err := h.userService.Subscriptions(c.Request.Context(), middleware.CurrentUserID(c), page, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, result)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, ok := pathID(c, "user")
	if !ok {
		return
	}
	sub, err := h.userService.Subscribe(c.Request.Context(), middleware.CurrentUserID(c), authorID, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, ok := pathID(c, "user")
	if !ok {
		return
	}
	if err := h.userService.Unsubscribe(c.Request.Context(), middleware.CurrentUserID(c), authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"github.com/gin-gonic/gin"
)

// Middlewares are the per-route guards handed to RegisterRoutes.
type Middlewares struct {
	// Required rejects anonymous requests.
	Required gin.HandlerFunc
	// Optional identifies the caller when a token is present.
	Optional gin.HandlerFunc
	// RecipeLimit throttles recipe creation; nil disables it.
	RecipeLimit gin.HandlerFunc
}

// Handlers groups every API handler.
type Handlers struct {
	Auth    *AuthHandler
	Users   *UserHandler
	Recipes *RecipeHandler
	Catalog *CatalogHandler
}

// RegisterRoutes mounts all handlers on router, normally the /api group.
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup, mw Middlewares) {
	h.Auth.RegisterRoutes(router, mw)
	h.Users.RegisterRoutes(router, mw)
	h.Recipes.RegisterRoutes(router, mw)
	h.Catalog.RegisterRoutes(router, mw)
}

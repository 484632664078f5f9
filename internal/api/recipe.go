package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ShoppingListFilename is offered to the browser for the cart download.
const ShoppingListFilename = "Cart.txt"

type RecipeHandler struct {
	recipeService   service.IRecipeService
	shoppingService service.IShoppingListService
}

func NewRecipeHandler(recipeService service.IRecipeService, shoppingService service.IShoppingListService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService, shoppingService: shoppingService}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, auth Middlewares) {
	create := []gin.HandlerFunc{auth.Required}
	if auth.RecipeLimit != nil {
		create = append(create, auth.RecipeLimit)
	}
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", auth.Optional, h.ListRecipes)
		recipes.POST("", create...)
		recipes.GET("/download_shopping_cart", auth.Required, h.DownloadShoppingCart)
		recipes.GET("/:id", auth.Optional, h.GetRecipe)
		recipes.PUT("/:id", auth.Required, h.UpdateRecipe)
		recipes.PATCH("/:id", auth.Required, h.UpdateRecipe)
		recipes.DELETE("/:id", auth.Required, h.DeleteRecipe)
		recipes.POST("/:id/favorite", auth.Required, h.FavoriteRecipe)
		recipes.DELETE("/:id/favorite", auth.Required, h.UnfavoriteRecipe)
		recipes.POST("/:id/shopping_cart", auth.Required, h.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart", auth.Required, h.RemoveFromShoppingCart)
	}
}

func queryFlag(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := types.RecipeFilter{
		Tags:             c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if author := c.Query("author"); author != "" {
		id, err := strconv.ParseUint(author, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Errors: fieldError("author", "Enter a whole number.")})
			return
		}
		filter.AuthorID = uint(id)
	}

	page := paginationFromQuery(c)
	result, err := h.recipeService.List(c.Request.Context(), middleware.CurrentUserID(c), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, result)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "recipe")
	if !ok {
		return
	}
	recipe, err := h.recipeService.Get(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe serves both PUT and PATCH; either way the body is the whole recipe.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c, "recipe")
	if !ok {
		return
	}
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), middleware.CurrentUserID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "recipe")
	if !ok {
		return
	}
	if err := h.recipeService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	id, ok := pathID(c, "recipe")
	if !ok {
		return
	}
	recipe, err := h.recipeService.AddFavorite(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	id, ok := pathID(c, "recipe")
	if !ok {
		return
	}
	if err := h.recipeService.RemoveFavorite(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	id, ok := pathID(c, "recipe")
	if !ok {
		return
	}
	recipe, err := h.recipeService.AddToCart(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	id, ok := pathID(c, "recipe")
	if !ok {
		return
	}
	if err := h.recipeService.RemoveFromCart(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	body, err := h.shoppingService.Download(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+ShoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}

package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*types.UserView, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	GenerateToken(claims *types.TokenClaims) (string, error)
	SetPassword(ctx context.Context, userID uint, current, newPassword string) error
}

// IUserService defines the interface for account and subscription operations
type IUserService interface {
	Get(ctx context.Context, viewerID, id uint) (*types.UserView, error)
	List(ctx context.Context, viewerID uint, page types.Pagination) (*types.Paginated[types.UserView], error)
	UpdateMe(ctx context.Context, id uint, req *types.UpdateUserRequest) (*types.UserView, error)
	Subscriptions(ctx context.Context, userID uint, page types.Pagination, recipesLimit int) (*types.Paginated[types.SubscriptionView], error)
	Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionView, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.RecipeView, error)
	Update(ctx context.Context, actorID, recipeID uint, req *types.RecipeRequest) (*types.RecipeView, error)
	Delete(ctx context.Context, actorID, recipeID uint) error
	Get(ctx context.Context, viewerID, recipeID uint) (*types.RecipeView, error)
	List(ctx context.Context, viewerID uint, filter types.RecipeFilter, page types.Pagination) (*types.Paginated[types.RecipeView], error)
	AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeLiteView, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeLiteView, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
}

// IShoppingListService builds the downloadable shopping list
type IShoppingListService interface {
	Aggregate(ctx context.Context, userID uint) ([]ShoppingLine, error)
	Download(ctx context.Context, userID uint) ([]byte, error)
}

// ICatalogService defines the interface for tag and ingredient lookups
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
}

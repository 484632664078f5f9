package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) Create(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.RecipeView, error) {
	args := m.Called(ctx, authorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeView), args.Error(1)
}

func (m *MockRecipeService) Update(ctx context.Context, actorID, recipeID uint, req *types.RecipeRequest) (*types.RecipeView, error) {
	args := m.Called(ctx, actorID, recipeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeView), args.Error(1)
}

func (m *MockRecipeService) Delete(ctx context.Context, actorID, recipeID uint) error {
	args := m.Called(ctx, actorID, recipeID)
	return args.Error(0)
}

func (m *MockRecipeService) Get(ctx context.Context, viewerID, recipeID uint) (*types.RecipeView, error) {
	args := m.Called(ctx, viewerID, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeView), args.Error(1)
}

func (m *MockRecipeService) List(ctx context.Context, viewerID uint, filter types.RecipeFilter, page types.Pagination) (*types.Paginated[types.RecipeView], error) {
	args := m.Called(ctx, viewerID, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Paginated[types.RecipeView]), args.Error(1)
}

func (m *MockRecipeService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeLiteView, error) {
	args := m.Called(ctx, userID, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeLiteView), args.Error(1)
}

func (m *MockRecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	args := m.Called(ctx, userID, recipeID)
	return args.Error(0)
}

func (m *MockRecipeService) AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeLiteView, error) {
	args := m.Called(ctx, userID, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeLiteView), args.Error(1)
}

func (m *MockRecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	args := m.Called(ctx, userID, recipeID)
	return args.Error(0)
}

// MockShoppingListService is a mock implementation of the shopping list service
type MockShoppingListService struct {
	mock.Mock
}

func (m *MockShoppingListService) Aggregate(ctx context.Context, userID uint) ([]service.ShoppingLine, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ShoppingLine), args.Error(1)
}

func (m *MockShoppingListService) Download(ctx context.Context, userID uint) ([]byte, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

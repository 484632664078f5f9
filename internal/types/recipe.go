package types

import (
	"github.com/pageza/foodgram/backend/internal/models"
)

// UserView is a user as seen by the viewer.
type UserView struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

func NewUserView(u *models.User, subscribed bool) UserView {
	return UserView{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

type RecipeIngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeView struct {
	ID               uint                   `json:"id"`
	Tags             []models.Tag           `json:"tags"`
	Author           UserView               `json:"author"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	FavoritesCount   int64                  `json:"favorites_count"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// RecipeLiteView is returned by favorite and cart toggles and embedded in
// subscriptions.
type RecipeLiteView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func NewRecipeLiteView(r *models.Recipe) RecipeLiteView {
	return RecipeLiteView{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

type SubscriptionView struct {
	UserView
	Recipes      []RecipeLiteView `json:"recipes"`
	RecipesCount int64            `json:"recipes_count"`
}

// RecipeFilter narrows GET /recipes.
type RecipeFilter struct {
	Tags             []string
	AuthorID         uint
	IsFavorited      bool
	IsInShoppingCart bool
}

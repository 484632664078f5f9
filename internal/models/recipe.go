package models

import (
	"time"
)

// Recipe is owned by its author; every join row hanging off it is removed
// together with it.
type Recipe struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Name        string    `gorm:"size:200;not null;index" json:"name"`
	Image       string    `gorm:"type:text" json:"image"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CookingTime int       `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1" json:"cooking_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Author     *User       `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Amounts    []Amount    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RecipeTags []RecipeTag `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Amount is the quantity of one ingredient in one recipe.
type Amount struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	RecipeID     uint `gorm:"not null;uniqueIndex:idx_amounts_recipe_ingredient" json:"recipe_id"`
	IngredientID uint `gorm:"not null;uniqueIndex:idx_amounts_recipe_ingredient;index" json:"ingredient_id"`
	Amount       int  `gorm:"not null;check:chk_amounts_amount,amount >= 1" json:"amount"`

	Ingredient *Ingredient `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type RecipeTag struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_recipe_tags_recipe_tag" json:"recipe_id"`
	TagID    uint `gorm:"not null;uniqueIndex:idx_recipe_tags_recipe_tag;index" json:"tag_id"`

	Tag *Tag `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorites_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorites_user_recipe;index" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`

	User   *User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Recipe *Recipe `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type ShoppingCartEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_shopping_cart_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_shopping_cart_user_recipe;index" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`

	User   *User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Recipe *Recipe `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (ShoppingCartEntry) TableName() string {
	return "shopping_cart_entries"
}

// All lists every model in dependency order for auto-migration.
func All() []any {
	return []any{
		&User{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&Amount{},
		&RecipeTag{},
		&Favorite{},
		&ShoppingCartEntry{},
		&Subscription{},
	}
}

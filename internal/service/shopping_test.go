package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestShoppingListAggregates(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "author")
	buyer := testhelpers.CreateUser(t, db, "buyer")
	flourG := testhelpers.CreateIngredient(t, db, "flour", "g")
	flourCup := testhelpers.CreateIngredient(t, db, "flour", "cup")
	milk := testhelpers.CreateIngredient(t, db, "milk", "ml")

	bread := testhelpers.CreateRecipe(t, db, author, "bread", []testhelpers.RecipeItem{
		{Ingredient: flourG, Amount: 500},
		{Ingredient: milk, Amount: 100},
	})
	cake := testhelpers.CreateRecipe(t, db, author, "cake", []testhelpers.RecipeItem{
		{Ingredient: flourG, Amount: 250},
		{Ingredient: flourCup, Amount: 1},
	})
	testhelpers.CreateRecipe(t, db, author, "soup", []testhelpers.RecipeItem{
		{Ingredient: milk, Amount: 999},
	})

	relations := service.NewRelations(db)
	require.NoError(t, relations.Cart.Add(ctx, buyer.ID, bread.ID))
	require.NoError(t, relations.Cart.Add(ctx, buyer.ID, cake.ID))

	svc := service.NewShoppingListService(db)
	lines, err := svc.Aggregate(ctx, buyer.ID)
	require.NoError(t, err)

	assert.Equal(t, []service.ShoppingLine{
		{Name: "flour", MeasurementUnit: "cup", Total: 1},
		{Name: "flour", MeasurementUnit: "g", Total: 750},
		{Name: "milk", MeasurementUnit: "ml", Total: 100},
	}, lines)

	body, err := svc.Download(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, "1. flour: 1(cup)\n2. flour: 750(g)\n3. milk: 100(ml)\n", string(body))
}

func TestShoppingListEmptyCart(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	buyer := testhelpers.CreateUser(t, db, "buyer")

	body, err := service.NewShoppingListService(db).Download(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestRender(t *testing.T) {
	out := service.Render([]service.ShoppingLine{
		{Name: "сахар", MeasurementUnit: "г", Total: 30},
	})
	assert.Equal(t, "1. сахар: 30(г)\n", string(out))
	assert.Empty(t, service.Render(nil))
}

func TestShoppingListIgnoresOtherUsers(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "author")
	buyer := testhelpers.CreateUser(t, db, "buyer")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	recipe := testhelpers.CreateRecipe(t, db, author, "fries", []testhelpers.RecipeItem{{Ingredient: salt, Amount: 5}})

	require.NoError(t, db.Create(&models.ShoppingCartEntry{UserID: author.ID, RecipeID: recipe.ID}).Error)

	lines, err := service.NewShoppingListService(db).Aggregate(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/models"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{Environment: config.Test, DBDriver: "sqlite", DBPath: ":memory:"}
	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func seedRecipe(t *testing.T, db *gorm.DB) (models.User, models.Recipe) {
	t.Helper()
	author := models.User{Email: "author@example.com", Username: "author", FirstName: "A", LastName: "B", PasswordHash: "x"}
	require.NoError(t, db.Create(&author).Error)
	ingredient := models.Ingredient{Name: "Salt", MeasurementUnit: "g"}
	require.NoError(t, db.Create(&ingredient).Error)
	tag := models.Tag{Name: "Lunch", Color: "#FF0000", Slug: "lunch"}
	require.NoError(t, db.Create(&tag).Error)

	recipe := models.Recipe{AuthorID: author.ID, Name: "Soup", Text: "Boil", CookingTime: 10}
	require.NoError(t, db.Create(&recipe).Error)
	require.NoError(t, db.Create(&models.Amount{RecipeID: recipe.ID, IngredientID: ingredient.ID, Amount: 5}).Error)
	require.NoError(t, db.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error)
	require.NoError(t, db.Create(&models.Favorite{UserID: author.ID, RecipeID: recipe.ID}).Error)
	require.NoError(t, db.Create(&models.ShoppingCartEntry{UserID: author.ID, RecipeID: recipe.ID}).Error)
	return author, recipe
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestRunMigrationsSQLite(t *testing.T) {
	db := openSQLite(t)
	for _, model := range models.All() {
		assert.True(t, db.Migrator().HasTable(model))
	}
	assert.NoError(t, HealthCheck(context.Background(), db))
}

func TestDeleteRecipeCascades(t *testing.T) {
	db := openSQLite(t)
	_, recipe := seedRecipe(t, db)

	require.NoError(t, db.Delete(&models.Recipe{}, recipe.ID).Error)

	assert.Zero(t, count(t, db, &models.Amount{}))
	assert.Zero(t, count(t, db, &models.RecipeTag{}))
	assert.Zero(t, count(t, db, &models.Favorite{}))
	assert.Zero(t, count(t, db, &models.ShoppingCartEntry{}))
	assert.Equal(t, int64(1), count(t, db, &models.Ingredient{}))
}

func TestDeleteAuthorCascades(t *testing.T) {
	db := openSQLite(t)
	author, _ := seedRecipe(t, db)

	require.NoError(t, db.Delete(&models.User{}, author.ID).Error)

	assert.Zero(t, count(t, db, &models.Recipe{}))
	assert.Zero(t, count(t, db, &models.Amount{}))
}

func TestUniqueJoinRows(t *testing.T) {
	db := openSQLite(t)
	author, recipe := seedRecipe(t, db)

	err := db.Create(&models.Favorite{UserID: author.ID, RecipeID: recipe.ID}).Error
	assert.True(t, IsUniqueViolation(err), "expected unique violation, got %v", err)
}

func TestCheckConstraints(t *testing.T) {
	db := openSQLite(t)
	author, recipe := seedRecipe(t, db)

	assert.Error(t, db.Create(&models.Subscription{UserID: author.ID, AuthorID: author.ID}).Error)
	assert.Error(t, db.Create(&models.Recipe{AuthorID: author.ID, Name: "Bad", Text: "x", CookingTime: 0}).Error)
	assert.Error(t, db.Model(&models.Amount{}).Where("recipe_id = ?", recipe.ID).Update("amount", 0).Error)
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := LoadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, "0001_init.sql", migrations[0].Name)
	assert.Contains(t, migrations[0].Up, "ON DELETE CASCADE")
	assert.Contains(t, migrations[0].Down, "DROP TABLE")
	for _, m := range migrations {
		assert.NotContains(t, m.Name, rollbackSuffix)
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?_foreign_keys=on", SQLiteDSN(":memory:"))
	assert.Equal(t, "foodgram.db?_foreign_keys=on", SQLiteDSN("foodgram.db"))
	assert.Equal(t, "file:x.db?cache=shared&_foreign_keys=on", SQLiteDSN("file:x.db?cache=shared"))
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(&config.Config{RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewRedisClientUnreachable(t *testing.T) {
	_, err := NewRedisClient(&config.Config{RedisHost: "127.0.0.1", RedisPort: "1"})
	assert.Error(t, err)
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
)

// ShoppingLine is one aggregated ingredient of a shopping list.
type ShoppingLine struct {
	Name            string
	MeasurementUnit string
	Total           int64
}

type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

var _ IShoppingListService = (*ShoppingListService)(nil)

// Aggregate sums the amounts of every recipe in the user's cart, grouped by
// ingredient name and unit.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uint) ([]ShoppingLine, error) {
	lines := []ShoppingLine{}
	err := s.db.WithContext(ctx).Model(&models.ShoppingCartEntry{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(amounts.amount) AS total").
		Joins("JOIN amounts ON amounts.recipe_id = shopping_cart_entries.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = amounts.ingredient_id").
		Where("shopping_cart_entries.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC, ingredients.measurement_unit ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}
	return lines, nil
}

// Render formats lines as "1. name: total(unit)", one per line.
func Render(lines []ShoppingLine) []byte {
	var buf bytes.Buffer
	for i, line := range lines {
		buf.WriteString(strconv.Itoa(i + 1))
		buf.WriteString(". ")
		buf.WriteString(line.Name)
		buf.WriteString(": ")
		buf.WriteString(strconv.FormatInt(line.Total, 10))
		buf.WriteByte('(')
		buf.WriteString(line.MeasurementUnit)
		buf.WriteString(")\n")
	}
	return buf.Bytes()
}

// Download renders the user's aggregated shopping list.
func (s *ShoppingListService) Download(ctx context.Context, userID uint) ([]byte, error) {
	lines, err := s.Aggregate(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics.ShoppingListsDownloaded.Inc()
	return Render(lines), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// CatalogService serves the read-only tag and ingredient lists.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

var _ ICatalogService = (*CatalogService)(nil)

func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("tag")
		}
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	return &tag, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListIngredients returns ingredients whose name starts with prefix,
// compared with Unicode case folding, ordered by name.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name, id")
	prefix = strings.TrimSpace(prefix)

	// SQLite's LOWER only folds ASCII, so there the folding happens in Go.
	// PostgreSQL narrows the candidates first.
	if prefix != "" && s.db.Dialector.Name() == "postgres" {
		query = query.Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\'`, likeEscaper.Replace(prefix)+"%")
	}

	var candidates []models.Ingredient
	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	if prefix == "" {
		return candidates, nil
	}

	fold := cases.Fold()
	folded := fold.String(prefix)
	matches := make([]models.Ingredient, 0, len(candidates))
	for _, ing := range candidates {
		if strings.HasPrefix(fold.String(ing.Name), folded) {
			matches = append(matches, ing)
		}
	}
	return matches, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ingredient")
		}
		return nil, fmt.Errorf("failed to load ingredient: %w", err)
	}
	return &ingredient, nil
}

// CreateTag inserts a tag, or refreshes name and color of the tag with the
// same slug. It reports whether a new row was created.
func (s *CatalogService) CreateTag(ctx context.Context, in types.TagInput) (*models.Tag, bool, error) {
	db := s.db.WithContext(ctx)

	var existing models.Tag
	err := db.Where("slug = ?", in.Slug).First(&existing).Error
	switch {
	case err == nil:
		if err := db.Model(&existing).Updates(map[string]any{"name": in.Name, "color": in.Color}).Error; err != nil {
			return nil, false, fmt.Errorf("failed to update tag %s: %w", in.Slug, err)
		}
		existing.Name, existing.Color = in.Name, in.Color
		return &existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, fmt.Errorf("failed to load tag %s: %w", in.Slug, err)
	}

	tag := models.Tag{Name: in.Name, Color: in.Color, Slug: in.Slug}
	if err := db.Create(&tag).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create tag %s: %w", in.Slug, err)
	}
	return &tag, true, nil
}

// CreateIngredient inserts an ingredient unless the same name and unit exist.
func (s *CatalogService) CreateIngredient(ctx context.Context, in types.IngredientInput) (*models.Ingredient, bool, error) {
	db := s.db.WithContext(ctx)

	var ingredient models.Ingredient
	err := db.Where("name = ? AND measurement_unit = ?", in.Name, in.MeasurementUnit).First(&ingredient).Error
	if err == nil {
		return &ingredient, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to load ingredient %s: %w", in.Name, err)
	}

	ingredient = models.Ingredient{Name: in.Name, MeasurementUnit: in.MeasurementUnit}
	if err := db.Create(&ingredient).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create ingredient %s: %w", in.Name, err)
	}
	return &ingredient, true, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// RecipeService writes recipes together with their ingredient amounts and
// tag links, and builds the viewer-specific read representation.
type RecipeService struct {
	db        *gorm.DB
	images    ImageStore
	relations *Relations
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore, relations *Relations) *RecipeService {
	if images == nil {
		images = InlineImageStore{}
	}
	return &RecipeService{db: db, images: images, relations: relations}
}

var _ IRecipeService = (*RecipeService)(nil)

// validateInput checks everything that does not need the database.
func validateInput(req *types.RecipeRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return newValidationError("name", "This field is required.")
	}
	if strings.TrimSpace(req.Text) == "" {
		return newValidationError("text", "This field is required.")
	}
	if req.CookingTime < 1 {
		return newValidationError("cooking_time", "Cooking time must be at least 1 minute.")
	}
	if len(req.Ingredients) == 0 {
		return newValidationError("ingredients", "At least one ingredient is required.")
	}
	if len(req.Tags) == 0 {
		return newValidationError("tags", "At least one tag is required.")
	}

	seen := make(map[uint]struct{}, len(req.Ingredients))
	for _, item := range req.Ingredients {
		if item.Amount < 1 {
			return newValidationError("ingredients", "Ingredient amount must be at least 1.")
		}
		if _, dup := seen[item.ID]; dup {
			return newValidationError("ingredients", "Ingredients must not repeat.")
		}
		seen[item.ID] = struct{}{}
	}

	seenTags := make(map[uint]struct{}, len(req.Tags))
	for _, id := range req.Tags {
		if _, dup := seenTags[id]; dup {
			return newValidationError("tags", "Tags must not repeat.")
		}
		seenTags[id] = struct{}{}
	}
	return nil
}

// checkReferences verifies every ingredient and tag id exists.
func checkReferences(db *gorm.DB, req *types.RecipeRequest) error {
	ingredientIDs := make([]uint, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		ingredientIDs = append(ingredientIDs, item.ID)
	}

	var count int64
	if err := db.Model(&models.Ingredient{}).Where("id IN ?", ingredientIDs).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check ingredients: %w", err)
	}
	if count != int64(len(ingredientIDs)) {
		return &NotFoundError{Resource: "ingredient", Field: "ingredients"}
	}

	if err := db.Model(&models.Tag{}).Where("id IN ?", req.Tags).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check tags: %w", err)
	}
	if count != int64(len(req.Tags)) {
		return &NotFoundError{Resource: "tag", Field: "tags"}
	}
	return nil
}

// writeChildren bulk-inserts the amounts and tag links of a recipe.
func writeChildren(tx *gorm.DB, recipeID uint, req *types.RecipeRequest) error {
	amounts := make([]models.Amount, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		amounts = append(amounts, models.Amount{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount})
	}
	if err := tx.Omit(clause.Associations).Create(&amounts).Error; err != nil {
		return fmt.Errorf("failed to insert amounts: %w", err)
	}

	links := make([]models.RecipeTag, 0, len(req.Tags))
	for _, tagID := range req.Tags {
		links = append(links, models.RecipeTag{RecipeID: recipeID, TagID: tagID})
	}
	if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
		return fmt.Errorf("failed to insert recipe tags: %w", err)
	}
	return nil
}

// storeImage returns the value to persist, or "" to keep the current image.
// Clients resend the stored URL when the image did not change.
func (s *RecipeService) storeImage(ctx context.Context, image string) (string, error) {
	if image == "" || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return "", nil
	}
	return s.images.Save(ctx, image)
}

// Create validates and stores a new recipe in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.RecipeView, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if err := checkReferences(s.db.WithContext(ctx), req); err != nil {
		return nil, err
	}

	image, err := s.storeImage(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Image:       image,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}
		return writeChildren(tx, recipe.ID, req)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRecipeWrite("create")
	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("author_id", authorID).Msg("recipe created")
	return s.Get(ctx, authorID, recipe.ID)
}

// ownedRecipe loads a recipe and checks that actorID wrote it.
func (s *RecipeService) ownedRecipe(ctx context.Context, actorID, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe")
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	if recipe.AuthorID != actorID {
		return nil, ErrForbidden
	}
	return &recipe, nil
}

// Update replaces the recipe's scalar fields, ingredients and tags. Nothing
// from the previous version's children survives.
func (s *RecipeService) Update(ctx context.Context, actorID, recipeID uint, req *types.RecipeRequest) (*types.RecipeView, error) {
	recipe, err := s.ownedRecipe(ctx, actorID, recipeID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if err := checkReferences(s.db.WithContext(ctx), req); err != nil {
		return nil, err
	}

	image, err := s.storeImage(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":         req.Name,
		"text":         req.Text,
		"cooking_time": req.CookingTime,
	}
	if image != "" {
		updates["image"] = image
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Amount{}).Error; err != nil {
			return fmt.Errorf("failed to clear amounts: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeTag{}).Error; err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}
		if err := writeChildren(tx, recipe.ID, req); err != nil {
			return err
		}
		if err := tx.Model(recipe).Omit(clause.Associations).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRecipeWrite("update")
	return s.Get(ctx, actorID, recipe.ID)
}

// Delete removes a recipe; dependent rows go with it through ON DELETE CASCADE.
func (s *RecipeService) Delete(ctx context.Context, actorID, recipeID uint) error {
	recipe, err := s.ownedRecipe(ctx, actorID, recipeID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(recipe).Error; err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	metrics.RecordRecipeWrite("delete")
	return nil
}

func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Amounts", func(db *gorm.DB) *gorm.DB { return db.Order("amounts.id") }).
		Preload("Amounts.Ingredient").
		Preload("RecipeTags", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_tags.id") }).
		Preload("RecipeTags.Tag")
}

// Get returns one recipe as seen by viewerID (0 for anonymous).
func (s *RecipeService) Get(ctx context.Context, viewerID, recipeID uint) (*types.RecipeView, error) {
	var recipe models.Recipe
	if err := preloadRecipe(s.db.WithContext(ctx)).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe")
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}

	views, err := s.buildViews(ctx, viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns a page of recipes, newest first.
func (s *RecipeService) List(ctx context.Context, viewerID uint, filter types.RecipeFilter, page types.Pagination) (*types.Paginated[types.RecipeView], error) {
	empty := &types.Paginated[types.RecipeView]{Items: []types.RecipeView{}}
	if viewerID == 0 && (filter.IsFavorited || filter.IsInShoppingCart) {
		return empty, nil
	}

	query := s.db.WithContext(ctx).Model(&models.Recipe{})
	if len(filter.Tags) > 0 {
		tagged := s.db.Model(&models.RecipeTag{}).
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.Tags)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if filter.IsFavorited {
		query = query.Where("recipes.id IN (?)", s.relations.Favorites.TargetsQuery(viewerID))
	}
	if filter.IsInShoppingCart {
		query = query.Where("recipes.id IN (?)", s.relations.Cart.TargetsQuery(viewerID))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	if total == 0 {
		return empty, nil
	}

	var recipes []models.Recipe
	err := preloadRecipe(query).
		Order("recipes.id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	views, err := s.buildViews(ctx, viewerID, recipes)
	if err != nil {
		return nil, err
	}
	return &types.Paginated[types.RecipeView]{Count: total, Items: views}, nil
}

// buildViews computes the viewer flags for a batch of recipes in a fixed
// number of queries.
func (s *RecipeService) buildViews(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]types.RecipeView, error) {
	views := make([]types.RecipeView, 0, len(recipes))
	if len(recipes) == 0 {
		return views, nil
	}

	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, err := s.relations.Favorites.LinkedTargets(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := s.relations.Cart.LinkedTargets(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.relations.Subscriptions.LinkedTargets(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}
	counts, err := s.favoriteCounts(ctx, recipeIDs)
	if err != nil {
		return nil, err
	}

	for i := range recipes {
		r := &recipes[i]
		view := types.RecipeView{
			ID:               r.ID,
			Tags:             make([]models.Tag, 0, len(r.RecipeTags)),
			Ingredients:      make([]types.RecipeIngredientView, 0, len(r.Amounts)),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			FavoritesCount:   counts[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		if r.Author != nil {
			view.Author = types.NewUserView(r.Author, subscribed[r.AuthorID])
		}
		for _, link := range r.RecipeTags {
			if link.Tag != nil {
				view.Tags = append(view.Tags, *link.Tag)
			}
		}
		for _, amount := range r.Amounts {
			if amount.Ingredient == nil {
				continue
			}
			view.Ingredients = append(view.Ingredients, types.RecipeIngredientView{
				ID:              amount.Ingredient.ID,
				Name:            amount.Ingredient.Name,
				MeasurementUnit: amount.Ingredient.MeasurementUnit,
				Amount:          amount.Amount,
			})
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *RecipeService) favoriteCounts(ctx context.Context, recipeIDs []uint) (map[uint]int64, error) {
	var rows []struct {
		RecipeID uint
		Total    int64
	}
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Select("recipe_id, COUNT(*) AS total").
		Where("recipe_id IN ?", recipeIDs).
		Group("recipe_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count favorites: %w", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.RecipeID] = row.Total
	}
	return counts, nil
}

func (s *RecipeService) lite(ctx context.Context, recipeID uint) (*types.RecipeLiteView, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe")
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	view := types.NewRecipeLiteView(&recipe)
	return &view, nil
}

// AddFavorite marks a recipe as a favorite of userID.
func (s *RecipeService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeLiteView, error) {
	view, err := s.lite(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := s.relations.Favorites.Add(ctx, userID, recipeID); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *RecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	if _, err := s.lite(ctx, recipeID); err != nil {
		return err
	}
	return s.relations.Favorites.Remove(ctx, userID, recipeID)
}

// AddToCart puts a recipe into userID's shopping cart.
func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeLiteView, error) {
	view, err := s.lite(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := s.relations.Cart.Add(ctx, userID, recipeID); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	if _, err := s.lite(ctx, recipeID); err != nil {
		return err
	}
	return s.relations.Cart.Remove(ctx, userID, recipeID)
}

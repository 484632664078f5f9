package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
)

// ToggleConfig describes one actor -> target relation stored as a join row.
type ToggleConfig[T any] struct {
	// Relation names the relation in metrics and logs.
	Relation string
	// Field keys validation errors.
	Field          string
	ActorColumn    string
	TargetColumn   string
	ExistsMessage  string
	MissingMessage string
	// New builds the row to insert.
	New func(actorID, targetID uint) *T
	// Guard rejects pairs that may never be linked.
	Guard func(actorID, targetID uint) error
}

// Toggle adds and removes join rows of type T. Uniqueness is enforced by the
// database; the existence check only produces the friendlier error early.
type Toggle[T any] struct {
	db  *gorm.DB
	cfg ToggleConfig[T]
}

func NewToggle[T any](db *gorm.DB, cfg ToggleConfig[T]) *Toggle[T] {
	return &Toggle[T]{db: db, cfg: cfg}
}

func (t *Toggle[T]) where(db *gorm.DB, actorID, targetID uint) *gorm.DB {
	return db.Where(t.cfg.ActorColumn+" = ? AND "+t.cfg.TargetColumn+" = ?", actorID, targetID)
}

// Add links actor to target.
func (t *Toggle[T]) Add(ctx context.Context, actorID, targetID uint) error {
	if t.cfg.Guard != nil {
		if err := t.cfg.Guard(actorID, targetID); err != nil {
			return err
		}
	}

	exists, err := t.Exists(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if exists {
		return newValidationError(t.cfg.Field, t.cfg.ExistsMessage)
	}

	if err := t.db.WithContext(ctx).Create(t.cfg.New(actorID, targetID)).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return newValidationError(t.cfg.Field, t.cfg.ExistsMessage)
		}
		return fmt.Errorf("failed to add %s: %w", t.cfg.Relation, err)
	}

	metrics.RecordToggle(t.cfg.Relation, "add")
	return nil
}

// Remove unlinks actor from target.
func (t *Toggle[T]) Remove(ctx context.Context, actorID, targetID uint) error {
	result := t.where(t.db.WithContext(ctx), actorID, targetID).Delete(new(T))
	if result.Error != nil {
		return fmt.Errorf("failed to remove %s: %w", t.cfg.Relation, result.Error)
	}
	if result.RowsAffected == 0 {
		return newValidationError(t.cfg.Field, t.cfg.MissingMessage)
	}

	metrics.RecordToggle(t.cfg.Relation, "remove")
	return nil
}

// Exists reports whether actor is linked to target.
func (t *Toggle[T]) Exists(ctx context.Context, actorID, targetID uint) (bool, error) {
	var count int64
	if err := t.where(t.db.WithContext(ctx).Model(new(T)), actorID, targetID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s: %w", t.cfg.Relation, err)
	}
	return count > 0, nil
}

// LinkedTargets returns which of targetIDs the actor is linked to.
// An anonymous actor (id 0) is linked to nothing.
func (t *Toggle[T]) LinkedTargets(ctx context.Context, actorID uint, targetIDs []uint) (map[uint]bool, error) {
	linked := make(map[uint]bool)
	if actorID == 0 || len(targetIDs) == 0 {
		return linked, nil
	}

	var ids []uint
	err := t.db.WithContext(ctx).Model(new(T)).
		Where(t.cfg.ActorColumn+" = ? AND "+t.cfg.TargetColumn+" IN ?", actorID, targetIDs).
		Pluck(t.cfg.TargetColumn, &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s links: %w", t.cfg.Relation, err)
	}
	for _, id := range ids {
		linked[id] = true
	}
	return linked, nil
}

// TargetsQuery selects the target ids linked to actor, for use as a subquery.
func (t *Toggle[T]) TargetsQuery(actorID uint) *gorm.DB {
	return t.db.Model(new(T)).Select(t.cfg.TargetColumn).Where(t.cfg.ActorColumn+" = ?", actorID)
}

// Relations bundles the three toggles the API exposes.
type Relations struct {
	Favorites     *Toggle[models.Favorite]
	Cart          *Toggle[models.ShoppingCartEntry]
	Subscriptions *Toggle[models.Subscription]
}

func NewRelations(db *gorm.DB) *Relations {
	return &Relations{
		Favorites: NewToggle(db, ToggleConfig[models.Favorite]{
			Relation:       "favorite",
			Field:          "recipe",
			ActorColumn:    "user_id",
			TargetColumn:   "recipe_id",
			ExistsMessage:  "Recipe is already in favorites.",
			MissingMessage: "Recipe is not in favorites.",
			New: func(userID, recipeID uint) *models.Favorite {
				return &models.Favorite{UserID: userID, RecipeID: recipeID}
			},
		}),
		Cart: NewToggle(db, ToggleConfig[models.ShoppingCartEntry]{
			Relation:       "shopping_cart",
			Field:          "recipe",
			ActorColumn:    "user_id",
			TargetColumn:   "recipe_id",
			ExistsMessage:  "Recipe is already in the shopping cart.",
			MissingMessage: "Recipe is not in the shopping cart.",
			New: func(userID, recipeID uint) *models.ShoppingCartEntry {
				return &models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}
			},
		}),
		Subscriptions: NewToggle(db, ToggleConfig[models.Subscription]{
			Relation:       "subscription",
			Field:          "author",
			ActorColumn:    "user_id",
			TargetColumn:   "author_id",
			ExistsMessage:  "You are already subscribed to this author.",
			MissingMessage: "You are not subscribed to this author.",
			New: func(userID, authorID uint) *models.Subscription {
				return &models.Subscription{UserID: userID, AuthorID: authorID}
			},
			Guard: func(userID, authorID uint) error {
				if userID == authorID {
					return newValidationError("author", "You cannot subscribe to yourself.")
				}
				return nil
			},
		}),
	}
}

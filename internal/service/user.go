package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

type UserService struct {
	db        *gorm.DB
	relations *Relations
}

func NewUserService(db *gorm.DB, relations *Relations) *UserService {
	return &UserService{db: db, relations: relations}
}

var _ IUserService = (*UserService)(nil)

func (s *UserService) load(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// Get returns a user as seen by viewerID.
func (s *UserService) Get(ctx context.Context, viewerID, id uint) (*types.UserView, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.relations.Subscriptions.LinkedTargets(ctx, viewerID, []uint{id})
	if err != nil {
		return nil, err
	}
	view := types.NewUserView(user, subscribed[id])
	return &view, nil
}

// List pages through all users, newest first.
func (s *UserService) List(ctx context.Context, viewerID uint, page types.Pagination) (*types.Paginated[types.UserView], error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	subscribed, err := s.relations.Subscriptions.LinkedTargets(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	views := make([]types.UserView, 0, len(users))
	for i := range users {
		views = append(views, types.NewUserView(&users[i], subscribed[users[i].ID]))
	}
	return &types.Paginated[types.UserView]{Count: total, Items: views}, nil
}

// UpdateMe applies a partial update to the caller's own account.
func (s *UserService) UpdateMe(ctx context.Context, id uint, req *types.UpdateUserRequest) (*types.UserView, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	updates := map[string]any{}
	if req.Email != nil && *req.Email != user.Email {
		if taken, err := uniqueFieldTaken(db, id, "email", *req.Email); err != nil {
			return nil, err
		} else if taken {
			return nil, newValidationError("email", "A user with that email already exists.")
		}
		updates["email"] = *req.Email
	}
	if req.Username != nil && *req.Username != user.Username {
		if !validation.ValidUsername(*req.Username) {
			return nil, newValidationError("username", "Enter a valid username.")
		}
		if taken, err := uniqueFieldTaken(db, id, "username", *req.Username); err != nil {
			return nil, err
		} else if taken {
			return nil, newValidationError("username", "A user with that username already exists.")
		}
		updates["username"] = *req.Username
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}

	if len(updates) > 0 {
		if err := db.Model(user).Updates(updates).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return nil, newValidationError("username", "A user with that email or username already exists.")
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	user, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := types.NewUserView(user, false)
	return &view, nil
}

// Subscriptions lists the authors userID follows, most recent subscription
// first, each with up to recipesLimit of their newest recipes. A negative
// limit means no cap.
func (s *UserService) Subscriptions(ctx context.Context, userID uint, page types.Pagination, recipesLimit int) (*types.Paginated[types.SubscriptionView], error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	err := db.Model(&models.User{}).
		Select("users.*").
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Order("subscriptions.id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&authors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	views := make([]types.SubscriptionView, 0, len(authors))
	for i := range authors {
		view, err := s.subscriptionView(ctx, &authors[i], recipesLimit)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return &types.Paginated[types.SubscriptionView]{Count: total, Items: views}, nil
}

func (s *UserService) subscriptionView(ctx context.Context, author *models.User, recipesLimit int) (*types.SubscriptionView, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	query := db.Where("author_id = ?", author.ID).Order("id DESC")
	if recipesLimit >= 0 {
		query = query.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	lite := make([]types.RecipeLiteView, 0, len(recipes))
	for i := range recipes {
		lite = append(lite, types.NewRecipeLiteView(&recipes[i]))
	}
	return &types.SubscriptionView{
		UserView:     types.NewUserView(author, true),
		Recipes:      lite,
		RecipesCount: count,
	}, nil
}

// Subscribe makes userID follow authorID.
func (s *UserService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionView, error) {
	author, err := s.load(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if err := s.relations.Subscriptions.Add(ctx, userID, authorID); err != nil {
		return nil, err
	}
	return s.subscriptionView(ctx, author, recipesLimit)
}

func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if _, err := s.load(ctx, authorID); err != nil {
		return err
	}
	return s.relations.Subscriptions.Remove(ctx, userID, authorID)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/types"
)

// MockUserService is a mock implementation of the user service
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Get(ctx context.Context, viewerID, id uint) (*types.UserView, error) {
	args := m.Called(ctx, viewerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserView), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, viewerID uint, page types.Pagination) (*types.Paginated[types.UserView], error) {
	args := m.Called(ctx, viewerID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Paginated[types.UserView]), args.Error(1)
}

func (m *MockUserService) UpdateMe(ctx context.Context, id uint, req *types.UpdateUserRequest) (*types.UserView, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserView), args.Error(1)
}

func (m *MockUserService) Subscriptions(ctx context.Context, userID uint, page types.Pagination, recipesLimit int) (*types.Paginated[types.SubscriptionView], error) {
	args := m.Called(ctx, userID, page, recipesLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Paginated[types.SubscriptionView]), args.Error(1)
}

func (m *MockUserService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionView, error) {
	args := m.Called(ctx, userID, authorID, recipesLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SubscriptionView), args.Error(1)
}

func (m *MockUserService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	args := m.Called(ctx, userID, authorID)
	return args.Error(0)
}

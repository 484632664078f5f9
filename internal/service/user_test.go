package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func strPtr(s string) *string { return &s }

func TestGetAndListUsers(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ctx := context.Background()
	svc := service.NewUserService(db, service.NewRelations(db))

	reader := testhelpers.CreateUser(t, db, "reader")
	author := testhelpers.CreateUser(t, db, "author")

	_, err := svc.Subscribe(ctx, reader.ID, author.ID, -1)
	require.NoError(t, err)

	view, err := svc.Get(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "author", view.Username)
	assert.True(t, view.IsSubscribed)

	anonymous, err := svc.Get(ctx, 0, author.ID)
	require.NoError(t, err)
	assert.False(t, anonymous.IsSubscribed)

	_, err = svc.Get(ctx, reader.ID, 9999)
	var nf *service.NotFoundError
	assert.True(t, errors.As(err, &nf))

	page, err := svc.List(ctx, reader.ID, types.NewPagination(1, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Count)
	require.Len(t, page.Items, 2)
	assert.Equal(t, author.ID, page.Items[0].ID, "newest first")
	assert.True(t, page.Items[0].IsSubscribed)
	assert.False(t, page.Items[1].IsSubscribed)
}

func TestUpdateMe(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ctx := context.Background()
	svc := service.NewUserService(db, service.NewRelations(db))

	me := testhelpers.CreateUser(t, db, "me_user")
	testhelpers.CreateUser(t, db, "taken")

	view, err := svc.UpdateMe(ctx, me.ID, &types.UpdateUserRequest{
		FirstName: strPtr("Anna"),
		Username:  strPtr("anna"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Anna", view.FirstName)
	assert.Equal(t, "anna", view.Username)
	assert.Equal(t, "Last me_user", view.LastName)

	var verr *service.ValidationError
	_, err = svc.UpdateMe(ctx, me.ID, &types.UpdateUserRequest{Username: strPtr("taken")})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "username", verr.Field)

	_, err = svc.UpdateMe(ctx, me.ID, &types.UpdateUserRequest{Email: strPtr("taken@example.com")})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email", verr.Field)

	_, err = svc.UpdateMe(ctx, me.ID, &types.UpdateUserRequest{Username: strPtr("me")})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "username", verr.Field)
}

func TestSubscriptions(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ctx := context.Background()
	svc := service.NewUserService(db, service.NewRelations(db))

	reader := testhelpers.CreateUser(t, db, "reader")
	first := testhelpers.CreateUser(t, db, "first")
	second := testhelpers.CreateUser(t, db, "second")
	for _, name := range []string{"one", "two", "three"} {
		testhelpers.CreateRecipe(t, db, first, name, nil)
	}

	sub, err := svc.Subscribe(ctx, reader.ID, first.ID, 2)
	require.NoError(t, err)
	assert.True(t, sub.IsSubscribed)
	assert.Equal(t, int64(3), sub.RecipesCount)
	require.Len(t, sub.Recipes, 2)
	assert.Equal(t, "three", sub.Recipes[0].Name)

	_, err = svc.Subscribe(ctx, reader.ID, second.ID, -1)
	require.NoError(t, err)

	page, err := svc.Subscriptions(ctx, reader.ID, types.NewPagination(1, 0), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Count)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID, "most recent subscription first")
	assert.Empty(t, page.Items[0].Recipes)
	assert.Equal(t, first.ID, page.Items[1].ID)
	assert.Len(t, page.Items[1].Recipes, 1)
	assert.Equal(t, int64(3), page.Items[1].RecipesCount)

	var verr *service.ValidationError
	_, err = svc.Subscribe(ctx, reader.ID, first.ID, -1)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "author", verr.Field)

	_, err = svc.Subscribe(ctx, reader.ID, reader.ID, -1)
	require.True(t, errors.As(err, &verr))

	var nf *service.NotFoundError
	_, err = svc.Subscribe(ctx, reader.ID, 9999, -1)
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, svc.Unsubscribe(ctx, reader.ID, first.ID))
	err = svc.Unsubscribe(ctx, reader.ID, first.ID)
	assert.True(t, errors.As(err, &verr))
}

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func setupAuthTest(t *testing.T) (*gorm.DB, *service.AuthService, *miniredis.Miniredis) {
	db := testhelpers.SetupTestDatabase(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return db, service.NewAuthService(db, "test-secret", time.Hour, service.NewRedisTokenDenylist(client)), mr
}

func registerRequest(username string) *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Ivan",
		LastName:  "Petrov",
		Password:  "s3cret-pass",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	_, authSvc, _ := setupAuthTest(t)
	ctx := context.Background()

	user, err := authSvc.Register(ctx, registerRequest("ivan"))
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "ivan", user.Username)
	assert.False(t, user.IsSubscribed)

	token, err := authSvc.Login(ctx, "ivan@example.com", "s3cret-pass")
	require.NoError(t, err)

	claims, err := authSvc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "ivan", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestRegisterDuplicates(t *testing.T) {
	_, authSvc, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, registerRequest("ivan"))
	require.NoError(t, err)

	var verr *service.ValidationError
	_, err = authSvc.Register(ctx, registerRequest("ivan"))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email", verr.Field)

	req := registerRequest("ivan")
	req.Email = "other@example.com"
	_, err = authSvc.Register(ctx, req)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "username", verr.Field)
}

func TestLoginInvalidCredentials(t *testing.T) {
	db, authSvc, _ := setupAuthTest(t)
	testhelpers.CreateUser(t, db, "ivan")
	ctx := context.Background()

	_, err := authSvc.Login(ctx, "ivan@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = authSvc.Login(ctx, "nobody@example.com", testhelpers.TestPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	db, authSvc, mr := setupAuthTest(t)
	testhelpers.CreateUser(t, db, "ivan")
	ctx := context.Background()

	token, err := authSvc.Login(ctx, "ivan@example.com", testhelpers.TestPassword)
	require.NoError(t, err)
	claims, err := authSvc.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, authSvc.Logout(ctx, claims))

	_, err = authSvc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrTokenRevoked)

	ttl := mr.TTL("revoked_token:" + claims.ID)
	assert.True(t, ttl > 0 && ttl <= time.Hour, "unexpected ttl %s", ttl)
}

func TestValidateTokenFailsOpenWithoutRedis(t *testing.T) {
	db, authSvc, mr := setupAuthTest(t)
	testhelpers.CreateUser(t, db, "ivan")
	ctx := context.Background()

	token, err := authSvc.Login(ctx, "ivan@example.com", testhelpers.TestPassword)
	require.NoError(t, err)

	mr.Close()
	_, err = authSvc.ValidateToken(ctx, token)
	assert.NoError(t, err)
}

func TestLogoutWithoutDenylist(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	testhelpers.CreateUser(t, db, "ivan")
	authSvc := service.NewAuthService(db, "test-secret", time.Hour, nil)
	ctx := context.Background()

	token, err := authSvc.Login(ctx, "ivan@example.com", testhelpers.TestPassword)
	require.NoError(t, err)
	claims, err := authSvc.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, authSvc.Logout(ctx, claims))
	_, err = authSvc.ValidateToken(ctx, token)
	assert.NoError(t, err)
}

func TestValidateTokenRejectsBadTokens(t *testing.T) {
	_, authSvc, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := authSvc.ValidateToken(ctx, "garbage")
	assert.Error(t, err)

	expired, err := authSvc.GenerateToken(&types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		UserID:           1,
	})
	require.NoError(t, err)
	_, err = authSvc.ValidateToken(ctx, expired)
	assert.Error(t, err)

	otherKey := service.NewAuthService(nil, "another-secret", time.Hour, nil)
	forged, err := otherKey.GenerateToken(&types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           1,
	})
	require.NoError(t, err)
	_, err = authSvc.ValidateToken(ctx, forged)
	assert.Error(t, err)
}

func TestSetPassword(t *testing.T) {
	db, authSvc, _ := setupAuthTest(t)
	user := testhelpers.CreateUser(t, db, "ivan")
	ctx := context.Background()

	err := authSvc.SetPassword(ctx, user.ID, "wrong", "new-password")
	assert.ErrorIs(t, err, service.ErrWrongPassword)

	var verr *service.ValidationError
	err = authSvc.SetPassword(ctx, user.ID, testhelpers.TestPassword, "short")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "new_password", verr.Field)

	require.NoError(t, authSvc.SetPassword(ctx, user.ID, testhelpers.TestPassword, "new-password"))

	_, err = authSvc.Login(ctx, "ivan@example.com", testhelpers.TestPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = authSvc.Login(ctx, "ivan@example.com", "new-password")
	assert.NoError(t, err)
}

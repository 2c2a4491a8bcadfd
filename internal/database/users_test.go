package database

import (
	"context"
	"testing"

	"hotdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{ID: 100, Name: "Ivan Petrov", Email: "ivan@example.com"}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	got, err := db.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrov", got.Name)
	assert.Equal(t, "ivan@example.com", got.Email)

	// Update keeps the stored email when the incoming one is empty.
	require.NoError(t, db.CreateOrUpdateUser(ctx, &models.User{ID: 100, Name: "I. Petrov"}))
	got, err = db.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "I. Petrov", got.Name)
	assert.Equal(t, "ivan@example.com", got.Email)
}

func TestCreateUsersWithoutEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Регистрация через чат не несёт почту; пустые email не должны
	// конфликтовать по UNIQUE.
	require.NoError(t, db.CreateOrUpdateUser(ctx, &models.User{ID: 100, Name: "Анна"}))
	require.NoError(t, db.CreateOrUpdateUser(ctx, &models.User{ID: 200, Name: "Пётр"}))

	first, err := db.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, first.Email)

	second, err := db.GetUser(ctx, 200)
	require.NoError(t, err)
	assert.Empty(t, second.Email)
}

func TestGetUserByEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateOrUpdateUser(ctx, &models.User{ID: 100, Name: "Ivan", Email: "ivan@example.com"}))

	got, err := db.GetUserByEmail(ctx, "ivan@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.ID)

	_, err = db.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUser_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetUser(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetAllUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateOrUpdateUser(ctx, &models.User{ID: 1, Name: "A"}))
	require.NoError(t, db.CreateOrUpdateUser(ctx, &models.User{ID: 2, Name: "B"}))

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

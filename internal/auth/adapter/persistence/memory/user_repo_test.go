package memory

import (
	"context"
	"testing"

	"plant-shop/internal/auth/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	user := &model.User{ID: "u1", Email: "  Fern@Example.com ", Provider: model.ProviderPassword, PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, "fern@example.com", user.Email)

	got, err := repo.GetByEmail(ctx, "FERN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "h", got.PasswordHash)

	got, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "fern@example.com", got.Email)

	// callers get copies
	got.FirstName = "changed"
	again, _ := repo.GetByID(ctx, "u1")
	assert.Empty(t, again.FirstName)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{ID: "u1", Email: "a@b.co"}))
	err := repo.Create(ctx, &model.User{ID: "u2", Email: "A@B.CO"})
	assert.ErrorIs(t, err, model.ErrUserExists)
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository()
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
	_, err = repo.GetByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

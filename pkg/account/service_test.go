package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorhub/mentor-idm/pkg/kvstore"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("mentor")
	require.NoError(t, err)
	assert.Equal(t, RoleMentor, role)
	assert.True(t, role.RequiresTwoFactor())

	role, err = ParseRole("mentee")
	require.NoError(t, err)
	assert.Equal(t, RoleMentee, role)
	assert.False(t, role.RequiresTwoFactor())

	_, err = ParseRole("admin")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestCreateAndGetAccount(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewKVRepository(kvstore.NewMemoryStore()))

	created, err := service.CreateAccount(ctx, "m1@example.com", RoleMentor, "hashed")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := service.GetAccount(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Email, got.Email)
	assert.Equal(t, RoleMentor, got.Role)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))

	byEmail, err := service.GetAccountByEmail(ctx, "m1@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewKVRepository(kvstore.NewMemoryStore()))

	_, err := service.CreateAccount(ctx, "m1@example.com", RoleMentor, "hashed")
	require.NoError(t, err)

	_, err = service.CreateAccount(ctx, "m1@example.com", RoleMentee, "hashed")
	require.Error(t, err)

	var emailErr ErrEmailAlreadyExists
	assert.ErrorAs(t, err, &emailErr)
	assert.Equal(t, "m1@example.com", emailErr.Email)
}

func TestGetAccount_NotFound(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewKVRepository(kvstore.NewMemoryStore()))

	_, err := service.GetAccountByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

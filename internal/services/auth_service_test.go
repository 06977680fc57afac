package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Register(ctx, RegisterInput{Name: "Juan", LastName: "Pérez", Email: " Juan@Example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "juan@example.com", resp.User.Email)
	assert.Equal(t, models.RoleContributor, resp.User.Role)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	identity, err := f.tokens.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, identity.UserID)
	assert.Equal(t, models.RoleContributor, identity.Role)

	var stored models.User
	require.NoError(t, f.db.Where("email = ?", "juan@example.com").First(&stored).Error)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, stored.CheckPassword("secret123"))
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := RegisterInput{Name: "Juan", LastName: "Pérez", Email: "juan@example.com", Password: "secret123"}
	_, err := f.auth.Register(ctx, input)
	require.NoError(t, err)

	input.Email = "JUAN@example.com"
	_, err = f.auth.Register(ctx, input)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Login(ctx, "contributor@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, f.contributor.UserID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, wrongPassword := f.auth.Login(ctx, "contributor@example.com", "not-the-password")
	_, unknownEmail := f.auth.Login(ctx, "nobody@example.com", "password123")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.True(t, apperrors.Is(wrongPassword, apperrors.KindUnauthorized))
	assert.True(t, apperrors.Is(unknownEmail, apperrors.KindUnauthorized))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_Profile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile, err := f.auth.Profile(ctx, f.operator)
	require.NoError(t, err)
	assert.Equal(t, f.operator.UserID, profile.ID)
	assert.Equal(t, "operator@example.com", profile.Email)
	assert.Equal(t, models.RoleOperator, profile.Role)
	assert.Equal(t, "Test", profile.Name)

	ghost := f.operator
	ghost.UserID = "missing"
	_, err = f.auth.Profile(ctx, ghost)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

func TestAuthService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "Carla"
	password := "new-password"
	profile, err := f.auth.UpdateProfile(ctx, f.contributor, ProfileUpdate{Name: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Carla", profile.Name)
	assert.Equal(t, models.RoleContributor, profile.Role)

	_, err = f.auth.Login(ctx, "contributor@example.com", "new-password")
	assert.NoError(t, err)

	empty := "  "
	_, err = f.auth.UpdateProfile(ctx, f.contributor, ProfileUpdate{LastName: &empty})
	require.Error(t, err)
	assert.Equal(t, "must not be empty", apperrors.As(err).Fields["lastName"])
}

package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRevoker struct {
	revoked []string
}

func (r *recordingRevoker) RevokeClientTokens(ctx context.Context, clientID string) error {
	r.revoked = append(r.revoked, clientID)
	return nil
}

func TestClientService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	revoker := &recordingRevoker{}
	clients := NewClientService(f.db, revoker)

	created, err := clients.CreateClient(ctx, f.contributor, CreateClientInput{Name: "widget", Domain: "https://blog.example.com", Scopes: []string{"read"}})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.ClientSecret)
	assert.Equal(t, "read", created.Scopes)
	assert.True(t, created.VerifyPassword(created.ClientSecret))
	assert.NotEqual(t, created.ClientSecret, created.Secret)

	defaults, err := clients.CreateClient(ctx, f.contributor, CreateClientInput{Name: "automation"})
	require.NoError(t, err)
	assert.Equal(t, "read write", defaults.Scopes)

	_, err = clients.CreateClient(ctx, f.contributor, CreateClientInput{Name: "bad", Scopes: []string{"admin"}})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = clients.CreateClient(ctx, f.contributor, CreateClientInput{})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	list, err := clients.GetClientsByUserID(ctx, f.contributor.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	others, err := clients.GetClientsByUserID(ctx, f.admin.UserID)
	require.NoError(t, err)
	assert.Empty(t, others)

	// Only the owner can delete
	assert.True(t, apperrors.Is(clients.DeleteClient(ctx, created.ID, f.admin.UserID), apperrors.KindNotFound))
	require.NoError(t, clients.DeleteClient(ctx, created.ID, f.contributor.UserID))
	assert.Equal(t, []string{created.ID}, revoker.revoked)

	_, err = clients.GetClientByID(ctx, created.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	testCases := []struct {
		input    string
		expected Role
		wantErr  bool
	}{
		{input: "admin", expected: RoleAdmin},
		{input: "ADMIN", expected: RoleAdmin},
		{input: "operator", expected: RoleOperator},
		{input: "editor", expected: RoleOperator},
		{input: " Contributor ", expected: RoleContributor},
		{input: "visitor", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range testCases {
		t.Run(tt.input, func(t *testing.T) {
			role, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, role)
			assert.True(t, role.Valid())
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusInReview))
	assert.True(t, StatusPending.CanTransitionTo(StatusApproved))
	assert.True(t, StatusPending.CanTransitionTo(StatusRejected))
	assert.True(t, StatusInReview.CanTransitionTo(StatusApproved))
	assert.True(t, StatusInReview.CanTransitionTo(StatusRejected))

	assert.False(t, StatusPending.CanTransitionTo(StatusPending))
	assert.False(t, StatusInReview.CanTransitionTo(StatusPending))
	assert.False(t, StatusApproved.CanTransitionTo(StatusRejected))
	assert.False(t, StatusRejected.CanTransitionTo(StatusApproved))
	assert.False(t, Status("published").Valid())
}

func TestUserPassword(t *testing.T) {
	user := &User{Email: "ana@example.com"}
	require.NoError(t, user.SetPassword("secret123"))

	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("secret124"))
}

func TestOAuthClientVerifyPassword(t *testing.T) {
	owner := &User{}
	require.NoError(t, owner.SetPassword("client-secret"))
	client := &OAuthClient{ID: "cli", Secret: owner.PasswordHash, UserID: "u-1"}

	assert.True(t, client.VerifyPassword("client-secret"))
	assert.False(t, client.VerifyPassword("nope"))
	assert.Equal(t, "u-1", client.GetUserID())
	assert.False(t, client.IsPublic())
}

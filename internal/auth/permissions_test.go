package auth

import (
	"testing"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAllowed_RoleMatrix(t *testing.T) {
	admin, operator, contributor := models.RoleAdmin, models.RoleOperator, models.RoleContributor

	tests := []struct {
		op      Operation
		allowed []models.Role
	}{
		{OpProfileRead, []models.Role{admin, operator, contributor}},
		{OpUserCreate, []models.Role{admin}},
		{OpUserList, []models.Role{admin, operator}},
		{OpUserRead, []models.Role{admin, operator}},
		{OpUserUpdate, []models.Role{admin}},
		{OpUserDelete, []models.Role{admin}},
		{OpTestimonialCreate, []models.Role{admin, operator, contributor}},
		{OpTestimonialList, []models.Role{admin, contributor}},
		{OpTestimonialModeration, []models.Role{admin, operator}},
		{OpTestimonialStatus, []models.Role{admin, operator}},
		{OpTestimonialDelete, []models.Role{admin, operator, contributor}},
		{OpCategoryCreate, []models.Role{admin}},
		{OpTagDelete, []models.Role{admin}},
		{OpClientCreate, []models.Role{admin, operator, contributor}},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			for _, role := range models.Roles {
				assert.Equal(t, contains(tt.allowed, role), Allowed(tt.op, role), "role %s", role)
			}
		})
	}
}

func TestAllowed_EveryOperationHasARole(t *testing.T) {
	for _, op := range Operations() {
		p, ok := Lookup(op)
		assert.True(t, ok)
		assert.NotEmpty(t, p.Roles, "operation %s", op)
	}
	assert.False(t, Allowed(Operation("unknown"), models.RoleAdmin))
}

func TestAuthorize(t *testing.T) {
	contributor := Identity{UserID: "u1", Role: models.RoleContributor}
	assert.NoError(t, Authorize(contributor, OpTestimonialCreate))

	err := Authorize(contributor, OpUserDelete)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	readOnlyClient := Identity{UserID: "u1", Role: models.RoleAdmin, ClientID: "c1", Scopes: []string{"read"}}
	assert.NoError(t, Authorize(readOnlyClient, OpUserList))
	err = Authorize(readOnlyClient, OpUserCreate)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	assert.Contains(t, err.Error(), "write")

	writeClient := readOnlyClient
	writeClient.Scopes = []string{"read", "write"}
	assert.NoError(t, Authorize(writeClient, OpUserCreate))
}

func contains(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

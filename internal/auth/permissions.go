package auth

import (
	"fmt"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/models"
)

// Operation names a guarded endpoint in the permission table
type Operation string

const (
	OpProfileRead   Operation = "profile.read"
	OpProfileUpdate Operation = "profile.update"

	OpUserCreate Operation = "users.create"
	OpUserList   Operation = "users.list"
	OpUserRead   Operation = "users.read"
	OpUserUpdate Operation = "users.update"
	OpUserDelete Operation = "users.delete"

	OpTestimonialCreate     Operation = "testimonials.create"
	OpTestimonialList       Operation = "testimonials.list"
	OpTestimonialModeration Operation = "testimonials.moderation"
	OpTestimonialRead       Operation = "testimonials.read"
	OpTestimonialUpdate     Operation = "testimonials.update"
	OpTestimonialStatus     Operation = "testimonials.status"
	OpTestimonialDelete     Operation = "testimonials.delete"

	OpCategoryCreate Operation = "categories.create"
	OpCategoryDelete Operation = "categories.delete"
	OpTagCreate      Operation = "tags.create"
	OpTagDelete      Operation = "tags.delete"

	OpClientCreate Operation = "clients.create"
	OpClientList   Operation = "clients.list"
	OpClientDelete Operation = "clients.delete"
)

// Permission lists the roles allowed to run an operation. Write operations
// additionally need the "write" scope when called with an OAuth2 client token.
type Permission struct {
	Roles []models.Role
	Write bool
}

var (
	everyone   = []models.Role{models.RoleAdmin, models.RoleOperator, models.RoleContributor}
	adminOnly  = []models.Role{models.RoleAdmin}
	moderators = []models.Role{models.RoleAdmin, models.RoleOperator}
)

// permissions is the role x operation table consulted by the Authorize middleware
var permissions = map[Operation]Permission{
	OpProfileRead:   {Roles: everyone},
	OpProfileUpdate: {Roles: everyone, Write: true},

	OpUserCreate: {Roles: adminOnly, Write: true},
	OpUserList:   {Roles: moderators},
	OpUserRead:   {Roles: moderators},
	OpUserUpdate: {Roles: adminOnly, Write: true},
	OpUserDelete: {Roles: adminOnly, Write: true},

	OpTestimonialCreate:     {Roles: everyone, Write: true},
	OpTestimonialList:       {Roles: []models.Role{models.RoleAdmin, models.RoleContributor}},
	OpTestimonialModeration: {Roles: moderators},
	OpTestimonialRead:       {Roles: everyone},
	OpTestimonialUpdate:     {Roles: everyone, Write: true},
	OpTestimonialStatus:     {Roles: moderators, Write: true},
	OpTestimonialDelete:     {Roles: everyone, Write: true},

	OpCategoryCreate: {Roles: adminOnly, Write: true},
	OpCategoryDelete: {Roles: adminOnly, Write: true},
	OpTagCreate:      {Roles: adminOnly, Write: true},
	OpTagDelete:      {Roles: adminOnly, Write: true},

	OpClientCreate: {Roles: everyone, Write: true},
	OpClientList:   {Roles: everyone},
	OpClientDelete: {Roles: everyone, Write: true},
}

// Lookup returns the permission registered for op
func Lookup(op Operation) (Permission, bool) {
	p, ok := permissions[op]
	return p, ok
}

// Operations returns every operation in the table
func Operations() []Operation {
	ops := make([]Operation, 0, len(permissions))
	for op := range permissions {
		ops = append(ops, op)
	}
	return ops
}

// Allowed reports whether role may run op. Unknown operations are denied.
func Allowed(op Operation, role models.Role) bool {
	p, ok := permissions[op]
	if !ok {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize checks identity against the permission table and returns a
// Forbidden error when the call is not allowed
func Authorize(identity Identity, op Operation) error {
	p, ok := permissions[op]
	if !ok {
		return apperrors.Forbidden(fmt.Sprintf("operation %s is not permitted", op))
	}
	if !Allowed(op, identity.Role) {
		return apperrors.Forbidden(fmt.Sprintf("role %s is not allowed to perform %s", identity.Role, op))
	}
	if p.Write && !identity.HasScope("write") {
		return apperrors.Forbidden("token is missing the 'write' scope")
	}
	return nil
}

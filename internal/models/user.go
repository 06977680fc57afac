package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role is the closed set of roles a user can hold
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleOperator    Role = "operator"
	RoleContributor Role = "contributor"
)

// Roles lists every valid role
var Roles = []Role{RoleAdmin, RoleOperator, RoleContributor}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleContributor:
		return true
	}
	return false
}

// ParseRole normalizes a role coming from a request or a token.
// "editor" is accepted as an alias of operator.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "admin":
		return RoleAdmin, nil
	case "operator", "editor":
		return RoleOperator, nil
	case "contributor":
		return RoleContributor, nil
	}
	return "", fmt.Errorf("invalid role '%s'. Allowed roles: admin, operator, contributor", value)
}

// User is a registered account. The password is only ever stored as a bcrypt hash.
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"size:80;not null" json:"name"`
	LastName     string    `gorm:"size:80;not null" json:"lastName"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'contributor'" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// SetPassword hashes plain and stores the hash on the user
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares plain against the stored hash
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

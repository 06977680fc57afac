package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OAuthClient is a machine client owned by a user. Tokens issued to it act
// with the owner's identity and role.
type OAuthClient struct {
	ID         string         `gorm:"primaryKey" json:"client_id"`
	Secret     string         `gorm:"not null" json:"-"`
	Name       string         `gorm:"not null" json:"name"`
	Domain     string         `json:"domain"`
	UserID     string         `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Scopes     string         `json:"scopes"`      // Space-separated list of allowed scopes
	GrantTypes string         `json:"grant_types"` // Space-separated list, only client_credentials is served
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}

// GetID implements oauth2.ClientInfo
func (c *OAuthClient) GetID() string { return c.ID }

// GetSecret implements oauth2.ClientInfo. The value is a bcrypt hash.
func (c *OAuthClient) GetSecret() string { return c.Secret }

// GetDomain implements oauth2.ClientInfo
func (c *OAuthClient) GetDomain() string { return c.Domain }

// IsPublic implements oauth2.ClientInfo
func (c *OAuthClient) IsPublic() bool { return false }

// GetUserID implements oauth2.ClientInfo
func (c *OAuthClient) GetUserID() string { return c.UserID }

// VerifyPassword implements oauth2.ClientPasswordVerifier against the hashed secret
func (c *OAuthClient) VerifyPassword(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.Secret), []byte(secret)) == nil
}

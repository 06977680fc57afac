package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// CustomJWTAccessGenerate generates JWT access tokens carrying the same
// sub, email and rol claims as user tokens, plus aud and scope
type CustomJWTAccessGenerate struct {
	SignedKey    []byte
	SignedMethod jwt.SigningMethod
	DB           *gorm.DB // Database connection to fetch the owning user
}

// NewCustomJWTAccessGenerate creates a new custom JWT access token generator
func NewCustomJWTAccessGenerate(key []byte, method jwt.SigningMethod, db *gorm.DB) *CustomJWTAccessGenerate {
	return &CustomJWTAccessGenerate{
		SignedKey:    key,
		SignedMethod: method,
		DB:           db,
	}
}

// Token generates a JWT access token with custom claims
// This method is called by the OAuth2 library to generate access tokens
func (g *CustomJWTAccessGenerate) Token(ctx context.Context, data *oauth2.GenerateBasic, isGenRefresh bool) (string, string, error) {
	// For client_credentials flow, GenerateBasic.UserID is empty, so we get it from Client.GetUserID()
	userID := data.UserID
	if userID == "" {
		userID = data.Client.GetUserID()
	}
	if userID == "" {
		return "", "", fmt.Errorf("cannot generate token: no user ID available")
	}

	// Fetch the owner so the role is always current and cannot be escalated
	user, err := g.getUser(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch token owner: %w", err)
	}

	scope := grantedScope(data.TokenInfo.GetScope(), clientScopes(data.Client))
	data.TokenInfo.SetScope(scope)

	createdAt := data.TokenInfo.GetAccessCreateAt()
	claims := &Claims{
		Email: user.Email,
		Role:  string(user.Role),
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{data.Client.GetID()},
			IssuedAt:  jwt.NewNumericDate(createdAt),
			ExpiresAt: jwt.NewNumericDate(createdAt.Add(data.TokenInfo.GetAccessExpiresIn())),
		},
	}

	token := jwt.NewWithClaims(g.SignedMethod, claims)
	access, err := token.SignedString(g.SignedKey)
	if err != nil {
		return "", "", err
	}

	// Refresh tokens are not issued
	return access, "", nil
}

func (g *CustomJWTAccessGenerate) getUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := g.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %s not found", userID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func clientScopes(info oauth2.ClientInfo) []string {
	if client, ok := info.(*models.OAuthClient); ok {
		return splitScopes(client.Scopes)
	}
	return nil
}

// grantedScope narrows the requested scopes to those the client owns.
// An empty request grants every client scope.
func grantedScope(requested string, allowed []string) string {
	req := splitScopes(requested)
	if len(req) == 0 {
		return strings.Join(allowed, " ")
	}
	granted := make([]string, 0, len(req))
	for _, r := range req {
		for _, a := range allowed {
			if r == a {
				granted = append(granted, r)
				break
			}
		}
	}
	return strings.Join(granted, " ")
}

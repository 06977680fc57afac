package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of every access token, user or client issued
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"rol"`
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller of a request
type Identity struct {
	UserID   string
	Email    string
	Role     models.Role
	ClientID string   // set for OAuth2 client tokens
	Scopes   []string // empty for user tokens
}

// IsAdmin reports whether the caller holds the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// HasScope reports whether the token grants scope. User tokens carry every scope.
func (i Identity) HasScope(scope string) bool {
	if i.ClientID == "" {
		return true
	}
	for _, s := range i.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenService issues and validates HMAC signed access tokens
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service signing with secret; tokens live for ttl
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime of issued tokens
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Secret returns the signing key, shared with the OAuth2 token generator
func (s *TokenService) Secret() []byte {
	return s.secret
}

// Issue signs a token for user with sub, email and rol claims
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := s.now()
	claims := &Claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates tokenString and returns the identity it carries.
// Expired, future dated, wrongly signed tokens and tokens without a valid
// subject or role are rejected.
func (s *TokenService) Parse(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method to prevent algorithm confusion attacks
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v. Expected HMAC", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token has expired")
		}
		return nil, fmt.Errorf("token parsing failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}

	if claims.Subject == "" {
		return nil, errors.New("token missing required 'sub' claim")
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("token carries an invalid 'rol' claim: %w", err)
	}

	identity := &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   role,
	}
	if len(claims.Audience) > 0 {
		identity.ClientID = claims.Audience[0]
		identity.Scopes = splitScopes(claims.Scope)
	}
	return identity, nil
}

func splitScopes(scope string) []string {
	return strings.FieldsFunc(scope, func(r rune) bool {
		return r == ' ' || r == ','
	})
}

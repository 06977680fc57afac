package middleware

import (
	"context"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/auth"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// ClientTokenValidator confirms that an OAuth2 client token has not been revoked
type ClientTokenValidator interface {
	ValidateClientToken(ctx context.Context, access string) error
}

// JWTAuth validates the Bearer token of the request and stores the caller
// identity in the context. Any failure answers 401 with the error envelope.
// clients may be nil, in which case client tokens are not checked for revocation.
func JWTAuth(tokens *auth.TokenService, clients ClientTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// RFC 6750: Extract Bearer token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			AbortWithError(c, apperrors.Unauthorized("missing Authorization header, a valid Bearer token is required"))
			return
		}

		// Validate Bearer scheme format
		if !strings.HasPrefix(authHeader, "Bearer ") {
			AbortWithError(c, apperrors.Unauthorized("Authorization header must use Bearer scheme. Format: 'Bearer <token>'"))
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			AbortWithError(c, apperrors.Unauthorized("Bearer token is empty"))
			return
		}

		identity, err := tokens.Parse(tokenString)
		if err != nil {
			AbortWithError(c, apperrors.Unauthorized(err.Error()))
			return
		}

		if identity.ClientID != "" && clients != nil {
			if err := clients.ValidateClientToken(c.Request.Context(), tokenString); err != nil {
				AbortWithError(c, apperrors.Unauthorized(err.Error()))
				return
			}
		}

		SetIdentity(c, *identity)
		c.Next()
	}
}

// SetIdentity stores the authenticated caller in the context
func SetIdentity(c *gin.Context, identity auth.Identity) {
	c.Set(identityKey, identity)
}

// CurrentIdentity returns the caller stored by JWTAuth
func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}

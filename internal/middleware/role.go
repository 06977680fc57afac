package middleware

import (
	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Authorize checks the caller against the permission table for op.
// It must run after JWTAuth: a missing identity answers 401, a denied one 403.
func Authorize(op auth.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := CurrentIdentity(c)
		if !exists {
			AbortWithError(c, apperrors.Unauthorized("user not authenticated"))
			return
		}

		if err := auth.Authorize(identity, op); err != nil {
			log.WithFields(logrus.Fields{
				"user_id":   identity.UserID,
				"role":      identity.Role,
				"operation": op,
			}).Info("access denied")
			AbortWithError(c, err)
			return
		}

		c.Next()
	}
}

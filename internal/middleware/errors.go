package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/gin-gonic/gin"
)

// NewErrorEnvelope builds the error body for status and message at the request path
func NewErrorEnvelope(c *gin.Context, status int, message string) models.ErrorEnvelope {
	return models.ErrorEnvelope{
		StatusCode: status,
		Mensaje:    message,
		Path:       c.Request.URL.Path,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// RespondError writes err as the error envelope. Errors that are not
// application errors are logged and answered as 500 without their details.
func RespondError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	status := appErr.StatusCode()

	message := appErr.Message
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		message = "internal server error"
	}

	envelope := NewErrorEnvelope(c, status, message)
	envelope.Errors = appErr.Fields
	c.JSON(status, envelope)
}

// AbortWithError writes err as the error envelope and stops the handler chain
func AbortWithError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}

// Recovery turns panics into a 500 envelope
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		AbortWithError(c, apperrors.Internal("panic recovered", fmt.Errorf("%v", recovered)))
	})
}

// NoRoute answers unknown routes with a 404 envelope
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		RespondError(c, apperrors.NotFound(fmt.Sprintf("route %s %s not found", c.Request.Method, c.Request.URL.Path)))
	}
}

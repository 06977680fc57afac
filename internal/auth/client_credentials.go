package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// ErrTokenRevoked is returned for client tokens no longer present in the token store
var ErrTokenRevoked = errors.New("token has been revoked")

// HandleToken handles the token endpoint for the client credentials grant
// @Summary Token Endpoint
// @Description Obtain an access token using the client credentials grant
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "Grant type: client_credentials"
// @Param client_id formData string true "Client ID"
// @Param client_secret formData string true "Client Secret"
// @Param scope formData string false "Space separated scopes (read, write)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.OAuth2Error
// @Failure 401 {object} models.OAuth2Error
// @Router /oauth/token [post]
func (o *OAuthService) HandleToken(c *gin.Context) {
	if c.PostForm("grant_type") != "client_credentials" {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error("unsupported_grant_type", "only client_credentials is supported"))
		return
	}

	// The oauth2 server writes both success and RFC 6749 error responses itself
	if err := o.server.HandleTokenRequest(c.Writer, c.Request); err != nil {
		log.WithError(err).Error("token request failed")
		if !c.Writer.Written() {
			c.JSON(http.StatusBadRequest, models.NewOAuth2Error("invalid_request", err.Error()))
		}
	}
}

// ValidateClientToken verifies that a client access token is still stored
// and not expired, so deleted clients lose access immediately
func (o *OAuthService) ValidateClientToken(ctx context.Context, access string) error {
	info, err := o.tokens.GetByAccess(ctx, access)
	if err != nil {
		return ErrTokenRevoked
	}
	if info.GetAccessExpiresIn() <= 0 {
		return ErrTokenRevoked
	}
	return nil
}

// RevokeClientTokens removes every token issued to clientID
func (o *OAuthService) RevokeClientTokens(ctx context.Context, clientID string) error {
	return o.tokens.RemoveByClient(ctx, clientID)
}

// PurgeExpired deletes expired tokens and reports how many were removed
func (o *OAuthService) PurgeExpired(ctx context.Context) (int64, error) {
	res := o.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.OAuthToken{})
	return res.RowsAffected, res.Error
}

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-jwt-secret-key-32-characters"

func setupOAuth(t *testing.T) (*gorm.DB, *OAuthService, *models.User, *gin.Engine) {
	db := testutil.OpenTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", models.RoleOperator)

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte("test_secret"), bcrypt.MinCost)
	require.NoError(t, err)
	client := &models.OAuthClient{
		ID:         "test_client_id",
		Secret:     string(hashedSecret), // bcrypt hash stored in database
		Name:       "widget",
		Domain:     "http://localhost:8080",
		UserID:     owner.ID,
		Scopes:     "read write",
		GrantTypes: "client_credentials",
	}
	require.NoError(t, db.Create(client).Error)

	oauthService := NewOAuthService(db, []byte(testSecret), time.Hour)
	require.NotNil(t, oauthService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/oauth/token", oauthService.HandleToken)

	return db, oauthService, owner, router
}

func requestToken(router *gin.Engine, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/oauth/token", bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestClientCredentialsFlow(t *testing.T) {
	_, oauthService, owner, router := setupOAuth(t)

	w := requestToken(router, "grant_type=client_credentials&client_id=test_client_id&client_secret=test_secret&scope=read")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Bearer", response["token_type"])
	assert.Equal(t, "read", response["scope"])

	accessToken := response["access_token"].(string)

	// Client tokens carry the owner's identity and validate with the user token parser
	identity, err := NewTokenService(testSecret, time.Hour).Parse(accessToken)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, identity.UserID)
	assert.Equal(t, owner.Email, identity.Email)
	assert.Equal(t, models.RoleOperator, identity.Role)
	assert.Equal(t, "test_client_id", identity.ClientID)
	assert.False(t, identity.HasScope("write"))

	assert.NoError(t, oauthService.ValidateClientToken(context.Background(), accessToken))
}

func TestClientCredentialsDefaultScopes(t *testing.T) {
	_, _, _, router := setupOAuth(t)

	w := requestToken(router, "grant_type=client_credentials&client_id=test_client_id&client_secret=test_secret")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "read write", response["scope"])
}

func TestClientCredentialsInvalidSecret(t *testing.T) {
	_, _, _, router := setupOAuth(t)

	w := requestToken(router, "grant_type=client_credentials&client_id=test_client_id&client_secret=wrong_secret&scope=read")
	assert.True(t, w.Code >= 400)
	assert.NotContains(t, w.Body.String(), "access_token")
}

func TestUnsupportedGrantType(t *testing.T) {
	_, _, _, router := setupOAuth(t)

	w := requestToken(router, "grant_type=password&client_id=test_client_id&client_secret=test_secret")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response models.OAuth2Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "unsupported_grant_type", response.Error)
}

func TestRevokeClientTokens(t *testing.T) {
	_, oauthService, _, router := setupOAuth(t)

	w := requestToken(router, "grant_type=client_credentials&client_id=test_client_id&client_secret=test_secret")
	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	accessToken := response["access_token"].(string)

	ctx := context.Background()
	require.NoError(t, oauthService.RevokeClientTokens(ctx, "test_client_id"))
	assert.ErrorIs(t, oauthService.ValidateClientToken(ctx, accessToken), ErrTokenRevoked)
}

func TestPurgeExpired(t *testing.T) {
	db, oauthService, _, _ := setupOAuth(t)

	require.NoError(t, db.Create(&models.OAuthToken{
		ClientID:    "test_client_id",
		AccessToken: "expired-token",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}).Error)

	removed, err := oauthService.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestGrantedScope(t *testing.T) {
	allowed := []string{"read", "write"}
	assert.Equal(t, "read write", grantedScope("", allowed))
	assert.Equal(t, "read", grantedScope("read admin", allowed))
	assert.Equal(t, "", grantedScope("admin", allowed))
	assert.Equal(t, "read write", grantedScope("read,write", allowed))
}

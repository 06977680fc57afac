package auth

import (
	"net/http"
	"time"

	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// OAuthService serves the client_credentials grant for machine clients
// that embed testimonials or automate submissions on behalf of a user
type OAuthService struct {
	server *server.Server
	tokens *GormTokenStore
	db     *gorm.DB
}

// NewOAuthService wires the oauth2 manager to the gorm stores. Access tokens
// are JWTs signed with jwtSecret and live for tokenTTL.
func NewOAuthService(db *gorm.DB, jwtSecret []byte, tokenTTL time.Duration) *OAuthService {
	manager := manage.NewDefaultManager()
	manager.SetClientTokenCfg(&manage.Config{
		AccessTokenExp:    tokenTTL,
		IsGenerateRefresh: false,
	})

	// Use JWT for access tokens
	manager.MapAccessGenerate(NewCustomJWTAccessGenerate(jwtSecret, jwt.SigningMethodHS512, db))

	// Configure token store
	tokenStore := NewGormTokenStore(db)
	manager.MustTokenStorage(tokenStore, nil)

	// Configure client store
	clientStore := NewGormClientStore(db)
	manager.MapClientStorage(clientStore)

	srv := server.NewDefaultServer(manager)
	srv.SetAllowGetAccessRequest(false)
	srv.SetAllowedGrantType(oauth2.ClientCredentials)
	srv.SetClientInfoHandler(clientInfoHandler)

	return &OAuthService{
		server: srv,
		tokens: tokenStore,
		db:     db,
	}
}

func (o *OAuthService) GetServer() *server.Server {
	return o.server
}

// TokenStore exposes the persisted token store, used to revoke tokens
func (o *OAuthService) TokenStore() *GormTokenStore {
	return o.tokens
}

// clientInfoHandler accepts client credentials from the form body or HTTP basic auth
func clientInfoHandler(r *http.Request) (string, string, error) {
	if r.FormValue("client_id") != "" {
		return server.ClientFormHandler(r)
	}
	return server.ClientBasicHandler(r)
}

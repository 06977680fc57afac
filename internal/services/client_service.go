package services

import (
	"context"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/auth"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ClientScopes are the scopes an API client may hold
var ClientScopes = []string{"read", "write"}

// TokenRevoker drops the tokens issued to a client
type TokenRevoker interface {
	RevokeClientTokens(ctx context.Context, clientID string) error
}

// CreateClientInput describes a new machine client
type CreateClientInput struct {
	Name   string
	Domain string
	Scopes []string
}

// CreatedClient carries the plain secret, shown only once
type CreatedClient struct {
	*models.OAuthClient
	ClientSecret string `json:"client_secret"`
}

type ClientService interface {
	CreateClient(ctx context.Context, owner auth.Identity, input CreateClientInput) (*CreatedClient, error)
	GetClientsByUserID(ctx context.Context, userID string) ([]models.OAuthClient, error)
	GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error)
	// DeleteClient removes a client owned by userID and revokes its tokens
	DeleteClient(ctx context.Context, clientID string, userID string) error
}

type clientService struct {
	db      *gorm.DB
	revoker TokenRevoker
}

func NewClientService(db *gorm.DB, revoker TokenRevoker) ClientService {
	return &clientService{db: db, revoker: revoker}
}

func normalizeScopes(scopes []string) ([]string, error) {
	if len(scopes) == 0 {
		return ClientScopes, nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		scope = strings.ToLower(strings.TrimSpace(scope))
		if scope == "" || seen[scope] {
			continue
		}
		if scope != "read" && scope != "write" {
			return nil, apperrors.InvalidField("scopes", "allowed scopes are read and write")
		}
		seen[scope] = true
		out = append(out, scope)
	}
	if len(out) == 0 {
		return ClientScopes, nil
	}
	return out, nil
}

func (s *clientService) CreateClient(ctx context.Context, owner auth.Identity, input CreateClientInput) (*CreatedClient, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidField("name", "is required")
	}
	scopes, err := normalizeScopes(input.Scopes)
	if err != nil {
		return nil, err
	}
	if err := requireAccount(s.db.WithContext(ctx), owner.UserID); err != nil {
		return nil, err
	}

	secret := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("hash client secret", err)
	}

	client := &models.OAuthClient{
		ID:         uuid.NewString(),
		Secret:     string(hashed),
		Name:       name,
		Domain:     strings.TrimSpace(input.Domain),
		UserID:     owner.UserID,
		Scopes:     strings.Join(scopes, " "),
		GrantTypes: "client_credentials",
	}
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, dbError(err, "")
	}

	log.WithField("client_id", client.ID).WithField("user_id", owner.UserID).Info("api client created")
	return &CreatedClient{OAuthClient: client, ClientSecret: secret}, nil
}

func (s *clientService) GetClientsByUserID(ctx context.Context, userID string) ([]models.OAuthClient, error) {
	clients := []models.OAuthClient{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&clients).Error; err != nil {
		return nil, dbError(err, "")
	}
	return clients, nil
}

func (s *clientService) GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, dbError(err, "client not found")
	}
	return &client, nil
}

func (s *clientService) DeleteClient(ctx context.Context, clientID string, userID string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", clientID, userID).Delete(&models.OAuthClient{})
	if result.Error != nil {
		return dbError(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("client not found")
	}
	if s.revoker != nil {
		if err := s.revoker.RevokeClientTokens(ctx, clientID); err != nil {
			return apperrors.Internal("revoke client tokens", err)
		}
	}
	return nil
}

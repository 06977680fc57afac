package services

import (
	"context"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/auth"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// invalidCredentials is shared by every login failure so callers cannot
// tell an unknown email from a wrong password
const invalidCredentials = "invalid email or password"

// dummyHash is compared against when the email is unknown to keep login timing flat
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equalizer"), bcrypt.DefaultCost)

// RegisterInput holds the self registration fields
type RegisterInput struct {
	Name     string
	LastName string
	Email    string
	Password string
}

// ProfileUpdate is a partial self-service update
type ProfileUpdate struct {
	Name     *string
	LastName *string
	Password *string
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
}

// Profile is the caller as seen through its token, enriched with stored names
type Profile struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Name     string      `json:"name"`
	LastName string      `json:"lastName"`
	ClientID string      `json:"clientId,omitempty"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Profile(ctx context.Context, caller auth.Identity) (*Profile, error)
	UpdateProfile(ctx context.Context, caller auth.Identity, input ProfileUpdate) (*Profile, error)
}

type authService struct {
	users  UserService
	tokens *auth.TokenService
}

func NewAuthService(users UserService, tokens *auth.TokenService) AuthService {
	return &authService{users: users, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	user, err := s.users.CreateUser(ctx, CreateUserInput{
		Name:     input.Name,
		LastName: input.LastName,
		Email:    input.Email,
		Password: input.Password,
		Role:     models.RoleContributor,
	})
	if err != nil {
		return nil, err
	}
	log.WithField("user_id", user.ID).Info("user registered")
	return s.respond(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !apperrors.Is(err, apperrors.KindNotFound) {
			return nil, err
		}
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, apperrors.Unauthorized(invalidCredentials)
	}
	if !user.CheckPassword(password) {
		return nil, apperrors.Unauthorized(invalidCredentials)
	}
	return s.respond(user)
}

func (s *authService) respond(user *models.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Internal("issue token", err)
	}
	return &AuthResponse{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

func (s *authService) Profile(ctx context.Context, caller auth.Identity) (*Profile, error) {
	user, err := s.users.GetUserByID(ctx, caller.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.Unauthorized("the account of this token no longer exists")
		}
		return nil, err
	}
	return &Profile{
		ID:       caller.UserID,
		Email:    caller.Email,
		Role:     caller.Role,
		Name:     user.Name,
		LastName: user.LastName,
		ClientID: caller.ClientID,
	}, nil
}

func (s *authService) UpdateProfile(ctx context.Context, caller auth.Identity, input ProfileUpdate) (*Profile, error) {
	fields := map[string]string{}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		fields["name"] = "must not be empty"
	}
	if input.LastName != nil && strings.TrimSpace(*input.LastName) == "" {
		fields["lastName"] = "must not be empty"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields)
	}

	user, err := s.users.UpdateUser(ctx, caller.UserID, UpdateUserInput{
		Name:     input.Name,
		LastName: input.LastName,
		Password: input.Password,
	})
	if err != nil {
		return nil, err
	}
	return &Profile{
		ID:       user.ID,
		Email:    user.Email,
		Role:     user.Role,
		Name:     user.Name,
		LastName: user.LastName,
		ClientID: caller.ClientID,
	}, nil
}

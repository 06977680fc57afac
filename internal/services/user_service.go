package services

import (
	"context"
	"errors"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/auth"
	"github.com/franciscosanchezn/testigo-api/internal/cache"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUserInput holds the fields of a new account
type CreateUserInput struct {
	Name     string
	LastName string
	Email    string
	Password string
	Role     models.Role
}

// UpdateUserInput is a partial update; nil fields are left unchanged
type UpdateUserInput struct {
	Name     *string
	LastName *string
	Email    *string
	Password *string
	Role     *models.Role
}

type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*models.User, error)
	// DeleteUser removes a user with their testimonials, uploaded files and API clients
	DeleteUser(ctx context.Context, caller auth.Identity, id string) error
}

type userService struct {
	db      *gorm.DB
	storage storage.Storage
	cache   *cache.Client
}

func NewUserService(db *gorm.DB, st storage.Storage, c *cache.Client) UserService {
	return &userService{db: db, storage: st, cache: c}
}

// NormalizeEmail lowercases and trims an address before lookups and writes
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// passwordError reports passwords bcrypt cannot hash as a field error
func passwordError(err error) error {
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return apperrors.InvalidField("password", "must be at most 72 bytes")
	}
	return apperrors.Internal("hash password", err)
}

func (s *userService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	email := NormalizeEmail(input.Email)
	role := input.Role
	if role == "" {
		role = models.RoleContributor
	}
	if !role.Valid() {
		return nil, apperrors.InvalidField("role", "must be one of admin, operator, contributor")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, dbError(err, "")
	}
	if count > 0 {
		return nil, apperrors.Conflict("email is already registered")
	}

	user := &models.User{
		Name:     strings.TrimSpace(input.Name),
		LastName: strings.TrimSpace(input.LastName),
		Email:    email,
		Role:     role,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, passwordError(err)
	}

	// The unique index still guards against a concurrent registration
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if apperrors.Is(dbError(err, ""), apperrors.KindConflict) {
			return nil, apperrors.Conflict("email is already registered")
		}
		return nil, dbError(err, "")
	}
	return user, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, dbError(err, "user not found")
	}
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, dbError(err, "user not found")
	}
	return &user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, dbError(err, "")
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		if email != user.Email {
			var count int64
			if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
				return nil, dbError(err, "")
			}
			if count > 0 {
				return nil, apperrors.Conflict("email is already registered")
			}
			user.Email = email
		}
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.InvalidField("role", "must be one of admin, operator, contributor")
		}
		user.Role = *input.Role
	}
	if input.Password != nil {
		if err := user.SetPassword(*input.Password); err != nil {
			return nil, passwordError(err)
		}
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, dbError(err, "user not found")
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, caller auth.Identity, id string) error {
	if caller.UserID == id {
		return apperrors.Forbidden("administrators cannot delete their own account")
	}
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return err
	}

	var files []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Testimonial{}).Where("owner_id = ?", id).Pluck("id", &ids).Error; err != nil {
			return err
		}
		paths, err := deleteTestimonialRows(tx, ids)
		if err != nil {
			return err
		}
		files = paths

		var clientIDs []string
		if err := tx.Unscoped().Model(&models.OAuthClient{}).Where("user_id = ?", id).Pluck("id", &clientIDs).Error; err != nil {
			return err
		}
		if len(clientIDs) > 0 {
			if err := tx.Where("client_id IN ?", clientIDs).Delete(&models.OAuthToken{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", clientIDs).Delete(&models.OAuthClient{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&models.User{}).Error
	})
	if err != nil {
		return dbError(err, "user not found")
	}

	removeFiles(ctx, s.storage, files)
	invalidateStats(ctx, s.cache)
	return nil
}

// deleteTestimonialRows removes testimonials and everything hanging off them
// inside tx, returning the storage paths of their uploaded files
func deleteTestimonialRows(tx *gorm.DB, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var paths []string
	if err := tx.Model(&models.Multimedia{}).
		Where("testimonial_id IN ? AND storage_path <> ''", ids).
		Pluck("storage_path", &paths).Error; err != nil {
		return nil, err
	}

	if err := tx.Exec("DELETE FROM testimonial_tags WHERE testimonial_id IN ?", ids).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("testimonial_id IN ?", ids).Delete(&models.Multimedia{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("testimonial_id IN ?", ids).Delete(&models.Engagement{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Testimonial{}).Error; err != nil {
		return nil, err
	}
	return paths, nil
}

// removeFiles deletes stored uploads, logging failures; the rows are already gone
func removeFiles(ctx context.Context, st storage.Storage, paths []string) {
	if st == nil {
		return
	}
	for _, path := range paths {
		if err := st.Delete(ctx, path); err != nil {
			log.WithError(err).WithField("path", path).Warn("failed to remove stored file")
		}
	}
}

package services

import (
	"context"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/cache"
	"github.com/franciscosanchezn/testigo-api/internal/database"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"gorm.io/gorm"
)

// CatalogService manages the categories and tags testimonials are filed under
type CatalogService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	// DeleteCategory fails with a conflict while testimonials still reference it
	DeleteCategory(ctx context.Context, id string) error
	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, name string) (*models.Tag, error)
	// DeleteTag removes the tag from every testimonial carrying it
	DeleteTag(ctx context.Context, id string) error
}

type catalogService struct {
	db    *gorm.DB
	cache *cache.Client
}

func NewCatalogService(db *gorm.DB, c *cache.Client) CatalogService {
	return &catalogService{db: db, cache: c}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, dbError(err, "")
	}
	return categories, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	slug := database.Slugify(name)
	if slug == "" {
		return nil, apperrors.InvalidField("name", "must contain at least one letter or digit")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("LOWER(name) = ? OR slug = ?", strings.ToLower(name), slug).Count(&count).Error; err != nil {
		return nil, dbError(err, "")
	}
	if count > 0 {
		return nil, apperrors.Conflict("category already exists")
	}

	category := &models.Category{Name: name, Slug: slug}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, dbError(err, "")
	}
	invalidateStats(ctx, s.cache)
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)
	var category models.Category
	if err := db.Where("id = ?", id).First(&category).Error; err != nil {
		return dbError(err, "category not found")
	}

	var used int64
	if err := db.Model(&models.Testimonial{}).Where("category_id = ?", id).Count(&used).Error; err != nil {
		return dbError(err, "")
	}
	if used > 0 {
		return apperrors.Conflict("category is still used by testimonials")
	}
	if err := db.Delete(&category).Error; err != nil {
		return dbError(err, "")
	}
	invalidateStats(ctx, s.cache)
	return nil
}

func (s *catalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, dbError(err, "")
	}
	return tags, nil
}

func (s *catalogService) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, apperrors.InvalidField("name", "is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).Where("LOWER(name) = ?", name).Count(&count).Error; err != nil {
		return nil, dbError(err, "")
	}
	if count > 0 {
		return nil, apperrors.Conflict("tag already exists")
	}

	tag := &models.Tag{Name: name}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, dbError(err, "")
	}
	return tag, nil
}

func (s *catalogService) DeleteTag(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)
	var tag models.Tag
	if err := db.Where("id = ?", id).First(&tag).Error; err != nil {
		return dbError(err, "tag not found")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM testimonial_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	return dbError(err, "")
}

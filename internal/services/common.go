package services

import (
	"context"
	"errors"
	"math"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/cache"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// SetLogLevel adjusts the verbosity of the services log
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page is a 1-based offset pagination request
type Page struct {
	Page  int
	Limit int
}

// maxPage keeps Offset within an int32 for any allowed limit
const maxPage = math.MaxInt32 / MaxPageLimit

// Normalize applies the defaults: page 1, limit 10, limit capped at 100.
// Pages past maxPage are clamped to it, which is always empty.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset is the number of rows skipped before the page
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TestimonialPage is one page of testimonials
type TestimonialPage struct {
	Testimonials []models.Testimonial `json:"testimonials"`
	Total        int64                `json:"total"`
	Page         int                  `json:"page"`
	Limit        int                  `json:"limit"`
	TotalPages   int                  `json:"totalPages"`
}

func newTestimonialPage(items []models.Testimonial, total int64, page Page) *TestimonialPage {
	if items == nil {
		items = []models.Testimonial{}
	}
	return &TestimonialPage{
		Testimonials: items,
		Total:        total,
		Page:         page.Page,
		Limit:        page.Limit,
		TotalPages:   int(math.Ceil(float64(total) / float64(page.Limit))),
	}
}

// dbError maps gorm errors to application errors; notFound is the message
// used when no row matched
func dbError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Conflict("resource already exists")
	default:
		return apperrors.Internal("database error", err)
	}
}

// withDetails preloads everything a testimonial response carries
func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Tags").Preload("Multimedia").Preload("Engagement")
}

// requireAccount rejects tokens whose user was deleted after they were issued
func requireAccount(db *gorm.DB, userID string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return dbError(err, "")
	}
	if count == 0 {
		return apperrors.Unauthorized("the account of this token no longer exists")
	}
	return nil
}

// invalidateStats drops the cached public statistics after writes that change them
func invalidateStats(ctx context.Context, c *cache.Client) {
	_ = c.Delete(ctx, statsCacheKey, statsByCategoryCacheKey)
}

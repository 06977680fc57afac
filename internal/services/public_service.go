package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/cache"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"gorm.io/gorm"
)

const (
	statsCacheKey           = "stats:global"
	statsByCategoryCacheKey = "stats:categories"

	DefaultRelatedLimit = 4
	MaxRelatedLimit     = 20
)

// Public list sort orders
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortPopular = "popular"
	SortViews   = "views"
)

// PublicFilter narrows the public listing. Zero values mean "no filter".
type PublicFilter struct {
	Page          Page
	Category      string // id, name or slug
	Tags          []string
	HasMultimedia *bool
	MediaType     string // image, video, none, all
	Sort          string
}

// Stats aggregates the engagement of approved testimonials
type Stats struct {
	TotalTestimonials     int64 `json:"totalTestimonials"`
	TotalViews            int64 `json:"totalViews"`
	TotalEmbeds           int64 `json:"totalEmbeds"`
	TestimonialsWithMedia int64 `json:"testimonialsWithMedia"`
}

// CategoryStats is Stats restricted to one category
type CategoryStats struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Slug         string `json:"slug"`
	Stats
}

// PublicService serves approved testimonials without authentication
type PublicService interface {
	List(ctx context.Context, filter PublicFilter) (*TestimonialPage, error)
	Search(ctx context.Context, query string, page Page) (*TestimonialPage, error)
	// Get returns an approved testimonial and counts one view
	Get(ctx context.Context, id string) (*models.Testimonial, error)
	Related(ctx context.Context, id string, limit int) ([]models.Testimonial, error)
	Multimedia(ctx context.Context, id string) (*models.Multimedia, error)
	Stats(ctx context.Context) (*Stats, error)
	StatsByCategory(ctx context.Context) ([]CategoryStats, error)
}

type publicService struct {
	db       *gorm.DB
	cache    *cache.Client
	cacheTTL time.Duration
}

func NewPublicService(db *gorm.DB, c *cache.Client, cacheTTL time.Duration) PublicService {
	return &publicService{db: db, cache: c, cacheTTL: cacheTTL}
}

func approved(db *gorm.DB) *gorm.DB {
	return db.Where("testimonials.status = ?", models.StatusApproved)
}

func (s *publicService) List(ctx context.Context, filter PublicFilter) (*TestimonialPage, error) {
	filters, err := s.publicScope(filter)
	if err != nil {
		return nil, err
	}
	order, err := sortOrder(filter.Sort)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, filter.Page, order, approved, filters)
}

func (s *publicService) Search(ctx context.Context, query string, page Page) (*TestimonialPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.InvalidField("q", "a search term is required")
	}
	pattern := "%" + strings.ToLower(query) + "%"
	match := func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"LOWER(testimonials.title) LIKE ? OR LOWER(testimonials.content) LIKE ? OR LOWER(testimonials.author) LIKE ? OR LOWER(testimonials.company) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	return s.page(ctx, page, "testimonials.created_at DESC", approved, match)
}

// page counts and fetches approved testimonials. The scopes are applied to
// two fresh statements since a counted statement cannot be reused for Find.
func (s *publicService) page(ctx context.Context, page Page, order string, scopes ...func(*gorm.DB) *gorm.DB) (*TestimonialPage, error) {
	page = page.Normalize()
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Testimonial{}).Scopes(scopes...).Count(&total).Error; err != nil {
		return nil, dbError(err, "")
	}

	var items []models.Testimonial
	if err := withDetails(db).Model(&models.Testimonial{}).
		Select("testimonials.*").
		Joins("LEFT JOIN engagements ON engagements.testimonial_id = testimonials.id").
		Scopes(scopes...).
		Order(order).
		Offset(page.Offset()).Limit(page.Limit).
		Find(&items).Error; err != nil {
		return nil, dbError(err, "")
	}
	return newTestimonialPage(items, total, page), nil
}

func (s *publicService) publicScope(filter PublicFilter) (func(*gorm.DB) *gorm.DB, error) {
	mediaType := strings.ToLower(strings.TrimSpace(filter.MediaType))
	switch mediaType {
	case "", "all", string(models.MediaNone), string(models.MediaImage), string(models.MediaVideo):
	default:
		return nil, apperrors.InvalidField("mediaType", "must be one of image, video, none, all")
	}

	tags := make([]string, 0, len(filter.Tags))
	for _, tag := range filter.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}
	category := strings.TrimSpace(filter.Category)

	return func(db *gorm.DB) *gorm.DB {
		if category != "" {
			categories := s.db.Model(&models.Category{}).Select("id").
				Where("id = ? OR LOWER(name) = ? OR slug = ?", category, strings.ToLower(category), strings.ToLower(category))
			db = db.Where("testimonials.category_id IN (?)", categories)
		}
		if len(tags) > 0 {
			tagged := s.db.Table("testimonial_tags").Select("testimonial_tags.testimonial_id").
				Joins("JOIN tags ON tags.id = testimonial_tags.tag_id").
				Where("LOWER(tags.name) IN ?", tags)
			db = db.Where("testimonials.id IN (?)", tagged)
		}

		withMedia := s.db.Model(&models.Multimedia{}).Select("testimonial_id")
		if filter.HasMultimedia != nil {
			if *filter.HasMultimedia {
				db = db.Where("testimonials.id IN (?)", withMedia)
			} else {
				db = db.Where("testimonials.id NOT IN (?)", withMedia)
			}
		}
		switch mediaType {
		case string(models.MediaNone):
			db = db.Where("testimonials.id NOT IN (?)", s.db.Model(&models.Multimedia{}).Select("testimonial_id"))
		case string(models.MediaImage), string(models.MediaVideo):
			db = db.Where("testimonials.id IN (?)", s.db.Model(&models.Multimedia{}).Select("testimonial_id").Where("type = ?", mediaType))
		}
		return db
	}, nil
}

func sortOrder(sort string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "", SortNewest:
		return "testimonials.created_at DESC", nil
	case SortOldest:
		return "testimonials.created_at ASC", nil
	case SortPopular:
		return "COALESCE(engagements.views, 0) + COALESCE(engagements.embeds, 0) DESC, testimonials.created_at DESC", nil
	case SortViews:
		return "COALESCE(engagements.views, 0) DESC, testimonials.created_at DESC", nil
	}
	return "", apperrors.InvalidField("sort", "must be one of newest, oldest, popular, views")
}

func (s *publicService) loadApproved(ctx context.Context, id string) (*models.Testimonial, error) {
	var testimonial models.Testimonial
	err := withDetails(s.db.WithContext(ctx)).Scopes(approved).Where("testimonials.id = ?", id).First(&testimonial).Error
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("testimonial %s not found", id))
	}
	return &testimonial, nil
}

func (s *publicService) Get(ctx context.Context, id string) (*models.Testimonial, error) {
	testimonial, err := s.loadApproved(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := countEngagement(s.db.WithContext(ctx), id, "views"); err != nil {
		return nil, err
	}
	if testimonial.Engagement == nil {
		testimonial.Engagement = &models.Engagement{TestimonialID: id}
	}
	testimonial.Engagement.Views++
	return testimonial, nil
}

// countEngagement bumps one counter column with a single UPDATE, creating
// the engagement row when the testimonial predates it
func countEngagement(db *gorm.DB, id, column string) error {
	res := db.Model(&models.Engagement{}).Where("testimonial_id = ?", id).
		Update(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return dbError(res.Error, "")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	engagement := &models.Engagement{TestimonialID: id}
	switch column {
	case "views":
		engagement.Views = 1
	case "embeds":
		engagement.Embeds = 1
	}
	return dbError(db.Create(engagement).Error, "")
}

func (s *publicService) Related(ctx context.Context, id string, limit int) ([]models.Testimonial, error) {
	if limit < 1 {
		limit = DefaultRelatedLimit
	}
	if limit > MaxRelatedLimit {
		limit = MaxRelatedLimit
	}

	base, err := s.loadApproved(ctx, id)
	if err != nil {
		return nil, err
	}
	tagIDs := make([]string, 0, len(base.Tags))
	for _, tag := range base.Tags {
		tagIDs = append(tagIDs, tag.ID)
	}

	db := s.db.WithContext(ctx)
	query := withDetails(db).Scopes(approved).Where("testimonials.id <> ?", id)
	if len(tagIDs) > 0 {
		shared := s.db.Table("testimonial_tags").Select("testimonial_id").Where("tag_id IN ?", tagIDs)
		query = query.Where("testimonials.category_id = ? OR testimonials.id IN (?)", base.CategoryID, shared)
	} else {
		query = query.Where("testimonials.category_id = ?", base.CategoryID)
	}

	related := []models.Testimonial{}
	if err := query.Order("testimonials.created_at DESC").Limit(limit).Find(&related).Error; err != nil {
		return nil, dbError(err, "")
	}
	return related, nil
}

func (s *publicService) Multimedia(ctx context.Context, id string) (*models.Multimedia, error) {
	testimonial, err := s.loadApproved(ctx, id)
	if err != nil {
		return nil, err
	}
	if testimonial.Multimedia == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("testimonial %s has no multimedia", id))
	}
	return testimonial.Multimedia, nil
}

func (s *publicService) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if s.cache.GetJSON(ctx, statsCacheKey, &stats) {
		return &stats, nil
	}

	err := s.db.WithContext(ctx).Model(&models.Testimonial{}).
		Select(`COUNT(testimonials.id) AS total_testimonials,
			COALESCE(SUM(engagements.views), 0) AS total_views,
			COALESCE(SUM(engagements.embeds), 0) AS total_embeds,
			COUNT(multimedia.id) AS testimonials_with_media`).
		Joins("LEFT JOIN engagements ON engagements.testimonial_id = testimonials.id").
		Joins("LEFT JOIN multimedia ON multimedia.testimonial_id = testimonials.id").
		Scopes(approved).
		Scan(&stats).Error
	if err != nil {
		return nil, dbError(err, "")
	}

	_ = s.cache.SetJSON(ctx, statsCacheKey, stats, s.cacheTTL)
	return &stats, nil
}

func (s *publicService) StatsByCategory(ctx context.Context) ([]CategoryStats, error) {
	stats := []CategoryStats{}
	if s.cache.GetJSON(ctx, statsByCategoryCacheKey, &stats) {
		return stats, nil
	}

	err := s.db.WithContext(ctx).Table("categories").
		Select(`categories.id AS category_id,
			categories.name AS category_name,
			categories.slug AS slug,
			COUNT(testimonials.id) AS total_testimonials,
			COALESCE(SUM(engagements.views), 0) AS total_views,
			COALESCE(SUM(engagements.embeds), 0) AS total_embeds,
			COUNT(multimedia.id) AS testimonials_with_media`).
		Joins("LEFT JOIN testimonials ON testimonials.category_id = categories.id AND testimonials.status = ?", models.StatusApproved).
		Joins("LEFT JOIN engagements ON engagements.testimonial_id = testimonials.id").
		Joins("LEFT JOIN multimedia ON multimedia.testimonial_id = testimonials.id").
		Group("categories.id, categories.name, categories.slug").
		Order("categories.name ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, dbError(err, "")
	}

	_ = s.cache.SetJSON(ctx, statsByCategoryCacheKey, stats, s.cacheTTL)
	return stats, nil
}

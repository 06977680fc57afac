package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/auth"
	"github.com/franciscosanchezn/testigo-api/internal/cache"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TestimonialInput holds the fields of a new testimonial
type TestimonialInput struct {
	Title      string
	Author     string
	Company    string
	Position   string
	Content    string
	CategoryID string
	TagIDs     []string
	Media      MediaInput
}

// TestimonialUpdate is a partial update; nil fields are left unchanged.
// A non-nil Media replaces the attachment wholesale.
type TestimonialUpdate struct {
	Title      *string
	Author     *string
	Company    *string
	Position   *string
	Content    *string
	CategoryID *string
	TagIDs     *[]string
	Media      *MediaInput
}

// TestimonialFilter narrows the authenticated listings
type TestimonialFilter struct {
	Status models.Status
	Page   Page
}

// TestimonialService manages the moderation lifecycle of testimonials
type TestimonialService interface {
	Create(ctx context.Context, caller auth.Identity, input TestimonialInput) (*models.Testimonial, error)
	// List returns every testimonial for admins and operators, the caller's own otherwise
	List(ctx context.Context, caller auth.Identity, filter TestimonialFilter) (*TestimonialPage, error)
	// Moderation returns the queue of testimonials awaiting a decision
	Moderation(ctx context.Context, filter TestimonialFilter) (*TestimonialPage, error)
	Get(ctx context.Context, caller auth.Identity, id string) (*models.Testimonial, error)
	Update(ctx context.Context, caller auth.Identity, id string, input TestimonialUpdate) (*models.Testimonial, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Testimonial, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
}

type testimonialService struct {
	db             *gorm.DB
	storage        storage.Storage
	cache          *cache.Client
	maxUploadBytes int64
}

func NewTestimonialService(db *gorm.DB, st storage.Storage, c *cache.Client, maxUploadBytes int64) TestimonialService {
	return &testimonialService{db: db, storage: st, cache: c, maxUploadBytes: maxUploadBytes}
}

// canRead: admins and operators read everything, contributors only their own
func canRead(caller auth.Identity, t *models.Testimonial) bool {
	return caller.Role == models.RoleAdmin || caller.Role == models.RoleOperator || t.OwnerID == caller.UserID
}

// canEdit: admins edit everything, everybody else only their own
func canEdit(caller auth.Identity, t *models.Testimonial) bool {
	return caller.IsAdmin() || t.OwnerID == caller.UserID
}

func (s *testimonialService) Create(ctx context.Context, caller auth.Identity, input TestimonialInput) (*models.Testimonial, error) {
	fields := map[string]string{}
	requireText(fields, "content", input.Content)
	requireText(fields, "categoryId", input.CategoryID)
	requireText(fields, "author", input.Author)
	requireText(fields, "company", input.Company)
	input.Media.validate(fields)
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields)
	}

	db := s.db.WithContext(ctx)
	if err := requireAccount(db, caller.UserID); err != nil {
		return nil, err
	}
	if err := checkCategory(db, input.CategoryID); err != nil {
		return nil, err
	}
	tags, err := loadTags(db, input.TagIDs)
	if err != nil {
		return nil, err
	}

	media, err := input.Media.store(ctx, s.storage, s.maxUploadBytes)
	if err != nil {
		return nil, err
	}

	testimonial := &models.Testimonial{
		Title:      strings.TrimSpace(input.Title),
		Author:     strings.TrimSpace(input.Author),
		Company:    strings.TrimSpace(input.Company),
		Position:   strings.TrimSpace(input.Position),
		Content:    strings.TrimSpace(input.Content),
		CategoryID: input.CategoryID,
		Status:     models.StatusPending,
		OwnerID:    caller.UserID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Category", "Multimedia", "Engagement").Create(testimonial).Error; err != nil {
			return err
		}
		if len(tags) > 0 {
			if err := tx.Model(testimonial).Association("Tags").Append(tags); err != nil {
				return err
			}
		}
		if media != nil {
			media.TestimonialID = testimonial.ID
			if err := tx.Create(media).Error; err != nil {
				return err
			}
		}
		return tx.Create(&models.Engagement{TestimonialID: testimonial.ID}).Error
	})
	if err != nil {
		if media != nil && media.StoragePath != "" {
			removeFiles(ctx, s.storage, []string{media.StoragePath})
		}
		return nil, dbError(err, "")
	}

	log.WithFields(logrus.Fields{
		"testimonial_id": testimonial.ID,
		"owner_id":       caller.UserID,
		"media":          input.Media.kind(),
	}).Info("testimonial created")

	return s.load(ctx, testimonial.ID)
}

func (s *testimonialService) load(ctx context.Context, id string) (*models.Testimonial, error) {
	var testimonial models.Testimonial
	if err := withDetails(s.db.WithContext(ctx)).Where("id = ?", id).First(&testimonial).Error; err != nil {
		return nil, dbError(err, fmt.Sprintf("testimonial %s not found", id))
	}
	return &testimonial, nil
}

func (s *testimonialService) List(ctx context.Context, caller auth.Identity, filter TestimonialFilter) (*TestimonialPage, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if !caller.IsAdmin() && caller.Role != models.RoleOperator {
			db = db.Where("owner_id = ?", caller.UserID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}
	return s.page(ctx, scope, filter)
}

func (s *testimonialService) Moderation(ctx context.Context, filter TestimonialFilter) (*TestimonialPage, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			return db.Where("status = ?", filter.Status)
		}
		return db.Where("status IN ?", []models.Status{models.StatusPending, models.StatusInReview})
	}
	return s.page(ctx, scope, filter)
}

func (s *testimonialService) page(ctx context.Context, scope func(*gorm.DB) *gorm.DB, filter TestimonialFilter) (*TestimonialPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.InvalidField("status", "must be one of pending, in_review, approved, rejected")
	}
	page := filter.Page.Normalize()
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Testimonial{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, dbError(err, "")
	}

	var items []models.Testimonial
	if err := withDetails(db).Scopes(scope).
		Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&items).Error; err != nil {
		return nil, dbError(err, "")
	}
	return newTestimonialPage(items, total, page), nil
}

func (s *testimonialService) Get(ctx context.Context, caller auth.Identity, id string) (*models.Testimonial, error) {
	testimonial, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(caller, testimonial) {
		return nil, apperrors.Forbidden("you can only access your own testimonials")
	}
	return testimonial, nil
}

func (s *testimonialService) Update(ctx context.Context, caller auth.Identity, id string, input TestimonialUpdate) (*models.Testimonial, error) {
	testimonial, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(caller, testimonial) {
		return nil, apperrors.Forbidden("you can only modify your own testimonials")
	}

	fields := map[string]string{}
	updates := map[string]interface{}{}
	setText := func(name, column string, value *string, required bool) {
		if value == nil {
			return
		}
		v := strings.TrimSpace(*value)
		if required && v == "" {
			fields[name] = "must not be empty"
			return
		}
		updates[column] = v
	}
	setText("title", "title", input.Title, false)
	setText("author", "author", input.Author, true)
	setText("company", "company", input.Company, true)
	setText("position", "position", input.Position, false)
	setText("content", "content", input.Content, true)
	setText("categoryId", "category_id", input.CategoryID, true)
	if input.Media != nil {
		input.Media.validate(fields)
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields)
	}

	db := s.db.WithContext(ctx)
	if input.CategoryID != nil {
		if err := checkCategory(db, *input.CategoryID); err != nil {
			return nil, err
		}
	}
	var tags []models.Tag
	if input.TagIDs != nil {
		if tags, err = loadTags(db, *input.TagIDs); err != nil {
			return nil, err
		}
	}

	var media *models.Multimedia
	if input.Media != nil {
		if media, err = input.Media.store(ctx, s.storage, s.maxUploadBytes); err != nil {
			return nil, err
		}
	}

	var replaced []string
	err = db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Testimonial{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if input.TagIDs != nil {
			association := tx.Model(testimonial).Association("Tags")
			if len(tags) == 0 {
				if err := association.Clear(); err != nil {
					return err
				}
			} else if err := association.Replace(tags); err != nil {
				return err
			}
		}
		if input.Media != nil {
			if old := testimonial.Multimedia; old != nil {
				if err := tx.Delete(&models.Multimedia{}, "id = ?", old.ID).Error; err != nil {
					return err
				}
				if old.StoragePath != "" {
					replaced = append(replaced, old.StoragePath)
				}
			}
			if media != nil {
				media.TestimonialID = id
				if err := tx.Create(media).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if media != nil && media.StoragePath != "" {
			removeFiles(ctx, s.storage, []string{media.StoragePath})
		}
		return nil, dbError(err, "")
	}
	removeFiles(ctx, s.storage, replaced)

	if testimonial.Status == models.StatusApproved {
		invalidateStats(ctx, s.cache)
	}
	return s.load(ctx, id)
}

func (s *testimonialService) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Testimonial, error) {
	if !status.Valid() {
		return nil, apperrors.InvalidField("status", "must be one of pending, in_review, approved, rejected")
	}
	testimonial, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !testimonial.Status.CanTransitionTo(status) {
		return nil, apperrors.BadRequest(fmt.Sprintf("cannot change status from %s to %s", testimonial.Status, status))
	}

	if err := s.db.WithContext(ctx).Model(&models.Testimonial{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return nil, dbError(err, "")
	}
	log.WithFields(logrus.Fields{
		"testimonial_id": id,
		"from":           testimonial.Status,
		"to":             status,
	}).Info("testimonial status changed")

	invalidateStats(ctx, s.cache)
	return s.load(ctx, id)
}

func (s *testimonialService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	testimonial, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canEdit(caller, testimonial) {
		return apperrors.Forbidden("you can only delete your own testimonials")
	}

	var files []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		paths, err := deleteTestimonialRows(tx, []string{id})
		files = paths
		return err
	})
	if err != nil {
		return dbError(err, "")
	}
	removeFiles(ctx, s.storage, files)

	if testimonial.Status == models.StatusApproved {
		invalidateStats(ctx, s.cache)
	}
	return nil
}

func requireText(fields map[string]string, name, value string) {
	if strings.TrimSpace(value) == "" {
		fields[name] = "is required"
	}
}

func checkCategory(db *gorm.DB, id string) error {
	var count int64
	if err := db.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return dbError(err, "")
	}
	if count == 0 {
		return apperrors.InvalidField("categoryId", "category does not exist")
	}
	return nil
}

// loadTags resolves tag ids, failing when any of them is unknown
func loadTags(db *gorm.DB, ids []string) ([]models.Tag, error) {
	unique := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return []models.Tag{}, nil
	}

	var tags []models.Tag
	if err := db.Where("id IN ?", unique).Find(&tags).Error; err != nil {
		return nil, dbError(err, "")
	}
	if len(tags) != len(unique) {
		return nil, apperrors.InvalidField("tagIds", "one or more tags do not exist")
	}
	return tags, nil
}

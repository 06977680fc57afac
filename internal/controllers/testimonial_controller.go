package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/middleware"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/services"
	"github.com/gin-gonic/gin"
)

// TestimonialController handles the authenticated side of testimonials:
// submission, editing and moderation.
type TestimonialController struct {
	testimonialService services.TestimonialService
}

func NewTestimonialController(testimonialService services.TestimonialService) *TestimonialController {
	return &TestimonialController{testimonialService: testimonialService}
}

// testimonialRequest is the JSON form of a create or update. Pointers tell
// an absent field from an empty one on update.
type testimonialRequest struct {
	Title            *string   `json:"title"`
	Author           *string   `json:"author"`
	Company          *string   `json:"company"`
	Position         *string   `json:"position"`
	Content          *string   `json:"content"`
	CategoryID       *string   `json:"categoryId"`
	TagIDs           *[]string `json:"tagIds"`
	ContentType      *string   `json:"contentType"`
	MediaURL         *string   `json:"mediaUrl"`
	MediaDescription *string   `json:"mediaDescription"`

	file *multipart.FileHeader
}

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending in_review approved rejected"`
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// mediaFileFields are the form fields an upload is accepted under
var mediaFileFields = []string{"file", "image", "video"}

// readTestimonialRequest reads either a JSON body or multipart form fields
func readTestimonialRequest(c *gin.Context) (*testimonialRequest, error) {
	req := &testimonialRequest{}
	if !isMultipart(c) {
		if err := c.ShouldBindJSON(req); err != nil {
			return nil, bindingError(err)
		}
		return req, nil
	}

	form := func(name string) *string {
		if value, ok := c.GetPostForm(name); ok {
			return &value
		}
		return nil
	}
	req.Title = form("title")
	req.Author = form("author")
	req.Company = form("company")
	req.Position = form("position")
	req.Content = form("content")
	req.CategoryID = form("categoryId")
	req.ContentType = form("contentType")
	req.MediaURL = form("mediaUrl")
	req.MediaDescription = form("mediaDescription")
	if values, ok := c.GetPostFormArray("tagIds"); ok {
		tagIDs := splitCSV(values...)
		req.TagIDs = &tagIDs
	}

	for _, field := range mediaFileFields {
		header, err := c.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, apperrors.BadRequest("invalid multipart form: " + err.Error())
		}
		req.file = header
		// an upload under "image" or "video" names its own kind
		if req.ContentType == nil && field != "file" {
			kind := field
			req.ContentType = &kind
		}
		break
	}
	return req, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func (r *testimonialRequest) media() services.MediaInput {
	return services.MediaInput{
		Type:        models.MediaType(strings.TrimSpace(deref(r.ContentType))),
		File:        r.file,
		URL:         deref(r.MediaURL),
		Description: deref(r.MediaDescription),
	}
}

// mediaChanged reports whether the request touches the attachment at all
func (r *testimonialRequest) mediaChanged() bool {
	return r.ContentType != nil || r.file != nil || r.MediaURL != nil
}

func testimonialFilter(c *gin.Context) (services.TestimonialFilter, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return services.TestimonialFilter{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return services.TestimonialFilter{}, err
	}
	return services.TestimonialFilter{
		Status: models.Status(strings.TrimSpace(c.Query("status"))),
		Page:   services.Page{Page: page, Limit: limit},
	}, nil
}

// CreateTestimonial godoc
// @Summary Submit a testimonial
// @Description Accepts JSON or multipart/form-data. With multipart the media file goes in "file" (or "image"/"video") and tagIds may be comma separated.
// @Tags testimonials
// @Accept json,mpfd
// @Produce json
// @Param title formData string false "Title"
// @Param author formData string true "Author"
// @Param company formData string true "Company"
// @Param position formData string false "Position"
// @Param content formData string true "Content"
// @Param categoryId formData string true "Category ID"
// @Param tagIds formData string false "Comma separated tag IDs"
// @Param contentType formData string false "none, image or video"
// @Param mediaUrl formData string false "External media URL"
// @Param mediaDescription formData string false "Media description"
// @Param file formData file false "Media file"
// @Success 201 {object} models.Testimonial
// @Failure 400 {object} models.ErrorEnvelope
// @Failure 401 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/testimonials [post]
func (tc *TestimonialController) CreateTestimonial(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	req, err := readTestimonialRequest(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	input := services.TestimonialInput{
		Title:      deref(req.Title),
		Author:     deref(req.Author),
		Company:    deref(req.Company),
		Position:   deref(req.Position),
		Content:    deref(req.Content),
		CategoryID: deref(req.CategoryID),
		Media:      req.media(),
	}
	if req.TagIDs != nil {
		input.TagIDs = *req.TagIDs
	}

	testimonial, err := tc.testimonialService.Create(c.Request.Context(), identity, input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, testimonial)
}

// ListTestimonials godoc
// @Summary List testimonials visible to the caller
// @Description Admins see every testimonial, contributors their own.
// @Tags testimonials
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page, default 1"
// @Param limit query int false "Page size, default 10, max 100"
// @Success 200 {object} services.TestimonialPage
// @Failure 401 {object} models.ErrorEnvelope
// @Failure 403 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/testimonials [get]
func (tc *TestimonialController) ListTestimonials(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	filter, err := testimonialFilter(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	page, err := tc.testimonialService.List(c.Request.Context(), identity, filter)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ModerationQueue godoc
// @Summary Testimonials awaiting moderation
// @Description Pending and in_review testimonials unless status is given.
// @Tags testimonials
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} services.TestimonialPage
// @Failure 403 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/testimonials/moderation [get]
func (tc *TestimonialController) ModerationQueue(c *gin.Context) {
	filter, err := testimonialFilter(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	page, err := tc.testimonialService.Moderation(c.Request.Context(), filter)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetTestimonial godoc
// @Summary Get a testimonial
// @Tags testimonials
// @Produce json
// @Param id path string true "Testimonial ID"
// @Success 200 {object} models.Testimonial
// @Failure 403 {object} models.ErrorEnvelope
// @Failure 404 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/testimonials/{id} [get]
func (tc *TestimonialController) GetTestimonial(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	testimonial, err := tc.testimonialService.Get(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, testimonial)
}

// UpdateTestimonial godoc
// @Summary Update a testimonial
// @Description Partial update. Sending contentType replaces the attachment, "none" removes it. Sending tagIds replaces the tags.
// @Tags testimonials
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Testimonial ID"
// @Param file formData file false "Media file"
// @Success 200 {object} models.Testimonial
// @Failure 400 {object} models.ErrorEnvelope
// @Failure 403 {object} models.ErrorEnvelope
// @Failure 404 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/testimonials/{id} [patch]
func (tc *TestimonialController) UpdateTestimonial(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	req, err := readTestimonialRequest(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	input := services.TestimonialUpdate{
		Title:      req.Title,
		Author:     req.Author,
		Company:    req.Company,
		Position:   req.Position,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		TagIDs:     req.TagIDs,
	}
	if req.mediaChanged() {
		media := req.media()
		input.Media = &media
	}

	testimonial, err := tc.testimonialService.Update(c.Request.Context(), identity, c.Param("id"), input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, testimonial)
}

// UpdateStatus godoc
// @Summary Moderate a testimonial
// @Tags testimonials
// @Accept json
// @Produce json
// @Param id path string true "Testimonial ID"
// @Param status body statusRequest true "New status"
// @Success 200 {object} models.Testimonial
// @Failure 400 {object} models.ErrorEnvelope
// @Failure 404 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/testimonials/{id}/status [patch]
func (tc *TestimonialController) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}

	testimonial, err := tc.testimonialService.UpdateStatus(c.Request.Context(), c.Param("id"), models.Status(req.Status))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, testimonial)
}

// DeleteTestimonial godoc
// @Summary Delete a testimonial with its media
// @Tags testimonials
// @Param id path string true "Testimonial ID"
// @Success 204
// @Failure 403 {object} models.ErrorEnvelope
// @Failure 404 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/testimonials/{id} [delete]
func (tc *TestimonialController) DeleteTestimonial(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	if err := tc.testimonialService.Delete(c.Request.Context(), identity, c.Param("id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

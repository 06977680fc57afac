package controllers

import (
	"net/http"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/middleware"
	"github.com/franciscosanchezn/testigo-api/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	mimeHTML       = "text/html; charset=utf-8"
	mimeJavaScript = "application/javascript; charset=utf-8"
)

// PublicController serves approved testimonials, embeds and statistics
// without authentication.
type PublicController struct {
	publicService services.PublicService
	embedService  services.EmbedService
}

func NewPublicController(publicService services.PublicService, embedService services.EmbedService) *PublicController {
	return &PublicController{publicService: publicService, embedService: embedService}
}

func queryPage(c *gin.Context) (services.Page, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return services.Page{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return services.Page{}, err
	}
	return services.Page{Page: page, Limit: limit}, nil
}

// ListTestimonials godoc
// @Summary List approved testimonials
// @Tags public
// @Produce json
// @Param page query int false "Page, default 1"
// @Param limit query int false "Page size, default 10, max 100"
// @Param category query string false "Category id, name or slug"
// @Param tags query string false "Comma separated tag names, any match"
// @Param hasMultimedia query bool false "Only with or without media"
// @Param mediaType query string false "image, video, none or all"
// @Param sort query string false "newest, oldest, popular or views"
// @Success 200 {object} services.TestimonialPage
// @Failure 400 {object} models.ErrorEnvelope
// @Router /api/v1/public/testimonials [get]
func (pc *PublicController) ListTestimonials(c *gin.Context) {
	page, err := queryPage(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	hasMultimedia, err := queryBool(c, "hasMultimedia")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	result, err := pc.publicService.List(c.Request.Context(), services.PublicFilter{
		Page:          page,
		Category:      strings.TrimSpace(c.Query("category")),
		Tags:          splitCSV(c.QueryArray("tags")...),
		HasMultimedia: hasMultimedia,
		MediaType:     strings.TrimSpace(c.Query("mediaType")),
		Sort:          strings.TrimSpace(c.Query("sort")),
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchTestimonials godoc
// @Summary Full text search over approved testimonials
// @Tags public
// @Produce json
// @Param q query string true "Search text"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} services.TestimonialPage
// @Failure 400 {object} models.ErrorEnvelope
// @Router /api/v1/public/testimonials/search [get]
func (pc *PublicController) SearchTestimonials(c *gin.Context) {
	page, err := queryPage(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	result, err := pc.publicService.Search(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTestimonial godoc
// @Summary Get an approved testimonial
// @Description Counts one view.
// @Tags public
// @Produce json
// @Param id path string true "Testimonial ID"
// @Success 200 {object} models.Testimonial
// @Failure 404 {object} models.ErrorEnvelope
// @Router /api/v1/public/testimonials/{id} [get]
func (pc *PublicController) GetTestimonial(c *gin.Context) {
	testimonial, err := pc.publicService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, testimonial)
}

// RelatedTestimonials godoc
// @Summary Approved testimonials sharing a category or tag
// @Tags public
// @Produce json
// @Param id path string true "Testimonial ID"
// @Param limit query int false "Maximum results, default 4"
// @Success 200 {array} models.Testimonial
// @Failure 404 {object} models.ErrorEnvelope
// @Router /api/v1/public/testimonials/{id}/related [get]
func (pc *PublicController) RelatedTestimonials(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	related, err := pc.publicService.Related(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, related)
}

// GetMultimedia godoc
// @Summary Media attached to an approved testimonial
// @Tags public
// @Produce json
// @Param id path string true "Testimonial ID"
// @Success 200 {object} models.Multimedia
// @Failure 404 {object} models.ErrorEnvelope
// @Router /api/v1/public/testimonials/{id}/multimedia [get]
func (pc *PublicController) GetMultimedia(c *gin.Context) {
	media, err := pc.publicService.Multimedia(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}

// Embed godoc
// @Summary Embed bundle of a testimonial
// @Description JSON with the HTML snippet, script tag, iframe and oEmbed URL. Browsers asking for text/html get the preview page, so the URL also works as an iframe src. Counts one embed.
// @Tags embeds
// @Produce json,html
// @Param id path string true "Testimonial ID"
// @Success 200 {object} services.EmbedBundle
// @Failure 404 {object} models.ErrorEnvelope
// @Router /api/v1/public/embeds/{id} [get]
func (pc *PublicController) Embed(c *gin.Context) {
	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		pc.EmbedPreview(c)
		return
	}

	bundle, err := pc.embedService.Bundle(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// EmbedCode godoc
// @Summary HTML snippet of a testimonial
// @Tags embeds
// @Produce html
// @Param id path string true "Testimonial ID"
// @Success 200 {string} string
// @Failure 404 {object} models.ErrorEnvelope
// @Router /api/v1/public/embeds/{id}/code [get]
func (pc *PublicController) EmbedCode(c *gin.Context) {
	code, err := pc.embedService.Code(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, mimeHTML, []byte(code))
}

// EmbedPreview godoc
// @Summary Standalone HTML page rendering a testimonial
// @Tags embeds
// @Produce html
// @Param id path string true "Testimonial ID"
// @Success 200 {string} string
// @Failure 404 {object} models.ErrorEnvelope
// @Router /api/v1/public/embeds/{id}/preview [get]
func (pc *PublicController) EmbedPreview(c *gin.Context) {
	page, err := pc.embedService.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, mimeHTML, []byte(page))
}

// EmbedScript godoc
// @Summary Script that injects a testimonial next to its own script tag
// @Tags embeds
// @Produce application/javascript
// @Param file path string true "Testimonial ID followed by .js"
// @Success 200 {string} string
// @Failure 404 {object} models.ErrorEnvelope
// @Router /api/v1/public/embed/{file} [get]
func (pc *PublicController) EmbedScript(c *gin.Context) {
	file := c.Param("file")
	id := strings.TrimSuffix(file, ".js")
	if id == file || id == "" {
		middleware.RespondError(c, apperrors.NotFound("embed script not found"))
		return
	}

	script, err := pc.embedService.Script(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, mimeJavaScript, []byte(script))
}

// OEmbed godoc
// @Summary oEmbed 1.0 description of a testimonial
// @Description Only the json format is served. Does not count as an embed.
// @Tags embeds
// @Produce json
// @Param id path string true "Testimonial ID"
// @Param maxwidth query int false "Maximum width"
// @Param maxheight query int false "Maximum height"
// @Param format query string false "Only json"
// @Success 200 {object} services.OEmbed
// @Failure 404 {object} models.ErrorEnvelope
// @Failure 501 {object} models.ErrorEnvelope
// @Router /api/v1/public/embeds/{id}/oembed [get]
func (pc *PublicController) OEmbed(c *gin.Context) {
	if format := strings.ToLower(c.Query("format")); format != "" && format != "json" {
		c.JSON(http.StatusNotImplemented, middleware.NewErrorEnvelope(c, http.StatusNotImplemented, "only the json oEmbed format is supported"))
		return
	}
	maxWidth, err := queryInt(c, "maxwidth")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	maxHeight, err := queryInt(c, "maxheight")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	oembed, err := pc.embedService.OEmbed(c.Request.Context(), c.Param("id"), maxWidth, maxHeight)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, oembed)
}

// Stats godoc
// @Summary Global engagement statistics
// @Tags public
// @Produce json
// @Success 200 {object} services.Stats
// @Router /api/v1/public/stats [get]
func (pc *PublicController) Stats(c *gin.Context) {
	stats, err := pc.publicService.Stats(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// StatsByCategory godoc
// @Summary Engagement statistics per category
// @Tags public
// @Produce json
// @Success 200 {array} services.CategoryStats
// @Router /api/v1/public/stats/categories [get]
func (pc *PublicController) StatsByCategory(c *gin.Context) {
	stats, err := pc.publicService.StatsByCategory(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

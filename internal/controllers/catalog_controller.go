package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/testigo-api/internal/middleware"
	"github.com/franciscosanchezn/testigo-api/internal/services"
	"github.com/gin-gonic/gin"
)

// CatalogController serves categories and tags
type CatalogController struct {
	catalogService services.CatalogService
}

func NewCatalogController(catalogService services.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

type nameRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// ListCategories godoc
// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Category
// @Router /api/v1/categories [get]
func (cc *CatalogController) ListCategories(c *gin.Context) {
	categories, err := cc.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CreateCategory godoc
// @Summary Create a category
// @Tags catalog
// @Accept json
// @Produce json
// @Param category body nameRequest true "Category name"
// @Success 201 {object} models.Category
// @Failure 400 {object} models.ErrorEnvelope
// @Failure 409 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/categories [post]
func (cc *CatalogController) CreateCategory(c *gin.Context) {
	var req nameRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := cc.catalogService.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// DeleteCategory godoc
// @Summary Delete an unused category
// @Tags catalog
// @Param id path string true "Category ID"
// @Success 204
// @Failure 404 {object} models.ErrorEnvelope
// @Failure 409 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/categories/{id} [delete]
func (cc *CatalogController) DeleteCategory(c *gin.Context) {
	if err := cc.catalogService.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTags godoc
// @Summary List tags
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Tag
// @Router /api/v1/tags [get]
func (cc *CatalogController) ListTags(c *gin.Context) {
	tags, err := cc.catalogService.ListTags(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// CreateTag godoc
// @Summary Create a tag
// @Tags catalog
// @Accept json
// @Produce json
// @Param tag body nameRequest true "Tag name"
// @Success 201 {object} models.Tag
// @Failure 400 {object} models.ErrorEnvelope
// @Failure 409 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/tags [post]
func (cc *CatalogController) CreateTag(c *gin.Context) {
	var req nameRequest
	if !bindJSON(c, &req) {
		return
	}
	tag, err := cc.catalogService.CreateTag(c.Request.Context(), req.Name)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// DeleteTag godoc
// @Summary Delete a tag and unlink it from testimonials
// @Tags catalog
// @Param id path string true "Tag ID"
// @Success 204
// @Failure 404 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/tags/{id} [delete]
func (cc *CatalogController) DeleteTag(c *gin.Context) {
	if err := cc.catalogService.DeleteTag(c.Request.Context(), c.Param("id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

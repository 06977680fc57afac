package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/middleware"
	"github.com/franciscosanchezn/testigo-api/internal/services"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService services.AuthService
}

func NewAuthController(authService services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	LastName string `json:"lastName" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=50"`
	LastName *string `json:"lastName" binding:"omitempty,min=2,max=50"`
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
}

// Register godoc
// @Summary Register a contributor account
// @Tags auth
// @Accept json
// @Produce json
// @Param user body registerRequest true "Registration data"
// @Success 201 {object} services.AuthResponse
// @Failure 400 {object} models.ErrorEnvelope
// @Failure 409 {object} models.ErrorEnvelope
// @Router /api/v1/auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := ac.authService.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in and obtain an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Credentials"
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} models.ErrorEnvelope
// @Failure 401 {object} models.ErrorEnvelope
// @Router /api/v1/auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := ac.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Profile godoc
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Success 200 {object} services.Profile
// @Failure 401 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/auth/profile [get]
func (ac *AuthController) Profile(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.RespondError(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	profile, err := ac.authService.Profile(c.Request.Context(), identity)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update own name or password
// @Tags auth
// @Accept json
// @Produce json
// @Param profile body profileRequest true "Fields to change"
// @Success 200 {object} services.Profile
// @Failure 400 {object} models.ErrorEnvelope
// @Failure 401 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/auth/profile [patch]
func (ac *AuthController) UpdateProfile(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.RespondError(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := ac.authService.UpdateProfile(c.Request.Context(), identity, services.ProfileUpdate{
		Name:     req.Name,
		LastName: req.LastName,
		Password: req.Password,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

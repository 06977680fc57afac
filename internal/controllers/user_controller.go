package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/middleware"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/services"
	"github.com/gin-gonic/gin"
)

// UserController exposes the user directory to administrators
type UserController struct {
	userService services.UserService
}

func NewUserController(userService services.UserService) *UserController {
	return &UserController{userService: userService}
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	LastName string `json:"lastName" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Role     string `json:"role" binding:"omitempty,oneof=admin operator editor contributor"`
}

type updateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=50"`
	LastName *string `json:"lastName" binding:"omitempty,min=2,max=50"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin operator editor contributor"`
}

func parseRole(value string) (models.Role, error) {
	if value == "" {
		return models.RoleContributor, nil
	}
	return models.ParseRole(value)
}

// CreateUser godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body createUserRequest true "User data"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorEnvelope
// @Failure 403 {object} models.ErrorEnvelope
// @Failure 409 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/users [post]
func (uc *UserController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		middleware.RespondError(c, apperrors.InvalidField("role", err.Error()))
		return
	}

	user, err := uc.userService.CreateUser(c.Request.Context(), services.CreateUserInput{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/users [get]
func (uc *UserController) ListUsers(c *gin.Context) {
	users, err := uc.userService.ListUsers(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/users/{id} [get]
func (uc *UserController) GetUser(c *gin.Context) {
	user, err := uc.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser godoc
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body updateUserRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorEnvelope
// @Failure 404 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/users/{id} [patch]
func (uc *UserController) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.UpdateUserInput{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			middleware.RespondError(c, apperrors.InvalidField("role", err.Error()))
			return
		}
		input.Role = &role
	}

	user, err := uc.userService.UpdateUser(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user and their testimonials
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} models.ErrorEnvelope
// @Failure 404 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/users/{id} [delete]
func (uc *UserController) DeleteUser(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	if err := uc.userService.DeleteUser(c.Request.Context(), identity, c.Param("id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

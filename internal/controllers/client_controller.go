package controllers

import (
	"net/http"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/middleware"
	"github.com/franciscosanchezn/testigo-api/internal/services"
	"github.com/gin-gonic/gin"
)

type ClientController struct {
	clientService services.ClientService
}

func NewClientController(clientService services.ClientService) *ClientController {
	return &ClientController{clientService: clientService}
}

type createClientRequest struct {
	Name   string `json:"name" binding:"required,max=100"`
	Domain string `json:"domain" binding:"omitempty,url"`
	Scopes string `json:"scopes"`
}

// CreateClient godoc
// @Summary Create OAuth2 client
// @Description Create a machine client for the client_credentials grant. The secret is only returned once.
// @Tags OAuth2 Clients
// @Accept json
// @Produce json
// @Param client body createClientRequest true "Client details, scopes is a space separated subset of 'read write'"
// @Success 201 {object} services.CreatedClient
// @Failure 400 {object} models.ErrorEnvelope
// @Failure 401 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/clients [post]
func (cc *ClientController) CreateClient(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req createClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client, err := cc.clientService.CreateClient(c.Request.Context(), identity, services.CreateClientInput{
		Name:   req.Name,
		Domain: req.Domain,
		Scopes: strings.FieldsFunc(req.Scopes, func(r rune) bool { return r == ' ' || r == ',' }),
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// ListClients godoc
// @Summary List own OAuth2 clients
// @Tags OAuth2 Clients
// @Produce json
// @Success 200 {array} models.OAuthClient
// @Failure 401 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/clients [get]
func (cc *ClientController) ListClients(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	clients, err := cc.clientService.GetClientsByUserID(c.Request.Context(), identity.UserID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

// DeleteClient godoc
// @Summary Delete an OAuth2 client and revoke its tokens
// @Tags OAuth2 Clients
// @Param id path string true "Client ID"
// @Success 204
// @Failure 404 {object} models.ErrorEnvelope
// @Security BearerAuth
// @Router /api/v1/clients/{id} [delete]
func (cc *ClientController) DeleteClient(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	if err := cc.clientService.DeleteClient(c.Request.Context(), c.Param("id"), identity.UserID); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	db *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

// Health handles the health check endpoint
// @Summary Health check
// @Description Check if the service and its database are up
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (hc *HealthController) Health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if sqlDB, err := hc.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "testigo-api",
	})
}

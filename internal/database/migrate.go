package database

import (
	"fmt"

	"github.com/franciscosanchezn/testigo-api/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the service uses
func Migrate(db *gorm.DB) error {
	log.Info("Running schema migrations")
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Testimonial{},
		&models.Multimedia{},
		&models.Engagement{},
		// OAuth models
		&models.OAuthClient{},
		&models.OAuthToken{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

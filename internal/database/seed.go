package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultCategories are created on an empty database
var DefaultCategories = []string{"Education", "Technology", "Career", "Community", "Scholarships"}

// DefaultTags are created on an empty database
var DefaultTags = []string{"success", "bootcamp", "mentoring", "remote", "first-job", "graduate"}

// DemoUser is an account created by the seed command for local development
type DemoUser struct {
	Name     string
	LastName string
	Email    string
	Password string
	Role     models.Role
}

// DemoUsers mirrors the example credentials shown in the API docs
var DemoUsers = []DemoUser{
	{Name: "Admin", LastName: "TestiGo", Email: "admin@testimonialcms.com", Password: "admin123!", Role: models.RoleAdmin},
	{Name: "Operator", LastName: "TestiGo", Email: "operator@testimonialcms.com", Password: "operator123!", Role: models.RoleOperator},
	{Name: "Contributor", LastName: "TestiGo", Email: "contributor@dominio.com", Password: "contributor123!", Role: models.RoleContributor},
}

// Slugify turns a display name into a lowercase dash separated slug
func Slugify(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}

// SeedCatalog creates the default categories and tags when none exist
func SeedCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count == 0 {
		log.Info("No categories found, seeding defaults")
		for _, name := range DefaultCategories {
			if err := db.Create(&models.Category{Name: name, Slug: Slugify(name)}).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", name, err)
			}
		}
	}

	if err := db.Model(&models.Tag{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count tags: %w", err)
	}
	if count == 0 {
		log.Info("No tags found, seeding defaults")
		for _, name := range DefaultTags {
			if err := db.Create(&models.Tag{Name: name}).Error; err != nil {
				return fmt.Errorf("seed tag %s: %w", name, err)
			}
		}
	}
	return nil
}

// EnsureUser creates the user when its email is not registered yet.
// Existing accounts are left untouched.
func EnsureUser(db *gorm.DB, demo DemoUser) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", strings.ToLower(demo.Email)).First(&user).Error
	if err == nil {
		log.WithFields(logrus.Fields{"email": user.Email, "role": user.Role}).Info("User already exists")
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	user = models.User{
		Name:     demo.Name,
		LastName: demo.LastName,
		Email:    strings.ToLower(demo.Email),
		Role:     demo.Role,
	}
	if err := user.SetPassword(demo.Password); err != nil {
		return nil, err
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.WithFields(logrus.Fields{"email": user.Email, "role": user.Role}).Info("User created")
	return &user, nil
}

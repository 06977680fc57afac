// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/franciscosanchezn/testigo-api/internal/database"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// OpenTestDB returns a migrated, catalog-seeded in-memory SQLite database
// private to the calling test
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.InitDatabase(database.DatabaseConfig{Driver: "sqlite", Path: dsn})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedCatalog(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with the given role and password "password123"
func CreateUser(t testing.TB, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{Name: "Test", LastName: string(role), Email: email, Role: role}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// Category returns the seeded category with the given name
func Category(t testing.TB, db *gorm.DB, name string) *models.Category {
	t.Helper()

	var category models.Category
	require.NoError(t, db.Where("name = ?", name).First(&category).Error)
	return &category
}

// Tag returns the seeded tag with the given name
func Tag(t testing.TB, db *gorm.DB, name string) *models.Tag {
	t.Helper()

	var tag models.Tag
	require.NoError(t, db.Where("name = ?", name).First(&tag).Error)
	return &tag
}

package database

import (
	"testing"

	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      DatabaseConfig
		expected string
	}{
		{
			name:     "sqlite uses path",
			cfg:      DatabaseConfig{Driver: "sqlite", Path: "testigo.sqlite"},
			expected: "testigo.sqlite",
		},
		{
			name:     "postgres from parts",
			cfg:      DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "app", Password: "pw", Name: "testigo", SSLMode: "disable"},
			expected: "host=db user=app password=pw dbname=testigo port=5432 sslmode=disable",
		},
		{
			name:     "postgres prefers url",
			cfg:      DatabaseConfig{Driver: "postgres", URL: "postgres://app:pw@db:5432/testigo", Host: "ignored"},
			expected: "postgres://app:pw@db:5432/testigo",
		},
		{
			name:     "mysql",
			cfg:      DatabaseConfig{Driver: "mysql", Host: "db", Port: "3306", User: "app", Password: "pw", Name: "testigo"},
			expected: "app:pw@tcp(db:3306)/testigo?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:     "unknown driver",
			cfg:      DatabaseConfig{Driver: "oracle"},
			expected: "",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cfg.DSN())
		})
	}
}

func TestStringMasksPassword(t *testing.T) {
	cfg := DatabaseConfig{Driver: "postgres", Password: "hunter2"}
	assert.NotContains(t, cfg.String(), "hunter2")
}

func TestInitDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := InitDatabase(DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "education", Slugify("Education"))
	assert.Equal(t, "career-change", Slugify("  Career   Change!"))
	assert.Equal(t, "web-3-0", Slugify("Web 3.0"))
}

func TestMigrateAndSeed(t *testing.T) {
	db, err := InitDatabase(DatabaseConfig{Driver: "sqlite", Path: "file:seedtest?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, SeedCatalog(db))
	// Seeding twice must not duplicate rows
	require.NoError(t, SeedCatalog(db))

	var categories, tags int64
	db.Model(&models.Category{}).Count(&categories)
	db.Model(&models.Tag{}).Count(&tags)
	assert.Equal(t, int64(len(DefaultCategories)), categories)
	assert.Equal(t, int64(len(DefaultTags)), tags)

	first, err := EnsureUser(db, DemoUsers[0])
	require.NoError(t, err)
	again, err := EnsureUser(db, DemoUsers[0])
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, models.RoleAdmin, again.Role)
	assert.True(t, again.CheckPassword(DemoUsers[0].Password))
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/franciscosanchezn/testigo-api/internal/auth"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/storage"
	"github.com/franciscosanchezn/testigo-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db           *gorm.DB
	storage      *storage.LocalStorage
	tokens       *auth.TokenService
	users        UserService
	auth         AuthService
	testimonials TestimonialService
	public       PublicService
	embeds       EmbedService
	catalog      CatalogService

	admin       auth.Identity
	operator    auth.Identity
	contributor auth.Identity
	category    *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenTestDB(t)
	st, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir(), BaseURL: "http://localhost:8080/uploads"})
	require.NoError(t, err)

	tokens := auth.NewTokenService("test-jwt-secret-key-32-characters", time.Hour)
	users := NewUserService(db, st, nil)

	f := &fixture{
		db:           db,
		storage:      st,
		tokens:       tokens,
		users:        users,
		auth:         NewAuthService(users, tokens),
		testimonials: NewTestimonialService(db, st, nil, 1<<20),
		public:       NewPublicService(db, nil, time.Minute),
		embeds:       NewEmbedService(db, "http://localhost:8080"),
		catalog:      NewCatalogService(db, nil),
		category:     testutil.Category(t, db, "Technology"),
	}
	f.admin = identityOf(testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin))
	f.operator = identityOf(testutil.CreateUser(t, db, "operator@example.com", models.RoleOperator))
	f.contributor = identityOf(testutil.CreateUser(t, db, "contributor@example.com", models.RoleContributor))
	return f
}

func identityOf(user *models.User) auth.Identity {
	return auth.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func (f *fixture) input(title string) TestimonialInput {
	return TestimonialInput{
		Title:      title,
		Author:     "Ana Torres",
		Company:    "Acme",
		Position:   "Engineer",
		Content:    "The bootcamp changed my career",
		CategoryID: f.category.ID,
	}
}

// create stores a testimonial owned by caller and moves it to status
func (f *fixture) create(t *testing.T, caller auth.Identity, input TestimonialInput, status models.Status) *models.Testimonial {
	t.Helper()
	ctx := context.Background()

	created, err := f.testimonials.Create(ctx, caller, input)
	require.NoError(t, err)
	if status != models.StatusPending {
		created, err = f.testimonials.UpdateStatus(ctx, created.ID, status)
		require.NoError(t, err)
	}
	return created
}

// Package router wires services, controllers and middleware into the HTTP API.
package router

import (
	"fmt"
	"time"

	_ "github.com/franciscosanchezn/testigo-api/docs" // Import generated docs
	"github.com/franciscosanchezn/testigo-api/internal/auth"
	"github.com/franciscosanchezn/testigo-api/internal/cache"
	"github.com/franciscosanchezn/testigo-api/internal/config"
	"github.com/franciscosanchezn/testigo-api/internal/controllers"
	"github.com/franciscosanchezn/testigo-api/internal/middleware"
	"github.com/franciscosanchezn/testigo-api/internal/services"
	"github.com/franciscosanchezn/testigo-api/internal/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// App holds the services behind the router, for commands that need them
// outside of HTTP handling
type App struct {
	Engine  *gin.Engine
	Tokens  *auth.TokenService
	OAuth   *auth.OAuthService
	Users   services.UserService
	Clients services.ClientService
}

// New builds the services on top of db and registers every route
func New(cfg *config.Config, db *gorm.DB, cacheClient *cache.Client) (*App, error) {
	st, err := storage.NewStorage(storage.Config{
		Type:     "local",
		BasePath: cfg.UploadDir,
		BaseURL:  cfg.UploadBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	oauth := auth.NewOAuthService(db, tokens.Secret(), cfg.JWTExpiry)

	userService := services.NewUserService(db, st, cacheClient)
	authService := services.NewAuthService(userService, tokens)
	testimonialService := services.NewTestimonialService(db, st, cacheClient, cfg.MaxUploadBytes)
	publicService := services.NewPublicService(db, cacheClient, cfg.StatsCacheTTL)
	embedService := services.NewEmbedService(db, cfg.PublicBaseURL)
	catalogService := services.NewCatalogService(db, cacheClient)
	clientService := services.NewClientService(db, oauth)

	h := handlers{
		auth:         controllers.NewAuthController(authService),
		users:        controllers.NewUserController(userService),
		testimonials: controllers.NewTestimonialController(testimonialService),
		public:       controllers.NewPublicController(publicService, embedService),
		catalog:      controllers.NewCatalogController(catalogService),
		clients:      controllers.NewClientController(clientService),
		health:       controllers.NewHealthController(db),
		oauth:        oauth,
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Recovery())
	router.Use(corsMiddleware(cfg.CORSOrigins))
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	router.NoRoute(middleware.NoRoute())
	controllers.SetupValidator()

	setupRoutes(router, h, tokens, oauth, cfg.UploadDir)

	return &App{
		Engine:  router,
		Tokens:  tokens,
		OAuth:   oauth,
		Users:   userService,
		Clients: clientService,
	}, nil
}

type handlers struct {
	auth         *controllers.AuthController
	users        *controllers.UserController
	testimonials *controllers.TestimonialController
	public       *controllers.PublicController
	catalog      *controllers.CatalogController
	clients      *controllers.ClientController
	health       *controllers.HealthController
	oauth        *auth.OAuthService
}

// corsMiddleware lets third party pages fetch the public API and embeds
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine, h handlers, tokens *auth.TokenService, oauth *auth.OAuthService, uploadDir string) {
	// Health check endpoint
	router.GET("/health", h.health.Health)

	// Uploaded media
	router.Static("/uploads", uploadDir)

	// OAuth2 token endpoint (client_credentials)
	router.POST("/oauth/token", h.oauth.HandleToken)

	requireAuth := middleware.JWTAuth(tokens, oauth)
	can := middleware.Authorize

	v1 := router.Group("/api/v1")
	{
		authApi := v1.Group("/auth")
		{
			authApi.POST("/register", h.auth.Register)
			authApi.POST("/login", h.auth.Login)
			authApi.GET("/profile", requireAuth, can(auth.OpProfileRead), h.auth.Profile)
			authApi.PATCH("/profile", requireAuth, can(auth.OpProfileUpdate), h.auth.UpdateProfile)
		}

		usersApi := v1.Group("/users", requireAuth)
		{
			usersApi.POST("", can(auth.OpUserCreate), h.users.CreateUser)
			usersApi.GET("", can(auth.OpUserList), h.users.ListUsers)
			usersApi.GET("/:id", can(auth.OpUserRead), h.users.GetUser)
			usersApi.PATCH("/:id", can(auth.OpUserUpdate), h.users.UpdateUser)
			usersApi.DELETE("/:id", can(auth.OpUserDelete), h.users.DeleteUser)
		}

		testimonialsApi := v1.Group("/testimonials", requireAuth)
		{
			testimonialsApi.POST("", can(auth.OpTestimonialCreate), h.testimonials.CreateTestimonial)
			testimonialsApi.GET("", can(auth.OpTestimonialList), h.testimonials.ListTestimonials)
			testimonialsApi.GET("/moderation", can(auth.OpTestimonialModeration), h.testimonials.ModerationQueue)
			testimonialsApi.GET("/:id", can(auth.OpTestimonialRead), h.testimonials.GetTestimonial)
			testimonialsApi.PATCH("/:id", can(auth.OpTestimonialUpdate), h.testimonials.UpdateTestimonial)
			testimonialsApi.PATCH("/:id/status", can(auth.OpTestimonialStatus), h.testimonials.UpdateStatus)
			testimonialsApi.DELETE("/:id", can(auth.OpTestimonialDelete), h.testimonials.DeleteTestimonial)
		}

		v1.GET("/categories", h.catalog.ListCategories)
		v1.POST("/categories", requireAuth, can(auth.OpCategoryCreate), h.catalog.CreateCategory)
		v1.DELETE("/categories/:id", requireAuth, can(auth.OpCategoryDelete), h.catalog.DeleteCategory)
		v1.GET("/tags", h.catalog.ListTags)
		v1.POST("/tags", requireAuth, can(auth.OpTagCreate), h.catalog.CreateTag)
		v1.DELETE("/tags/:id", requireAuth, can(auth.OpTagDelete), h.catalog.DeleteTag)

		clientsApi := v1.Group("/clients", requireAuth)
		{
			clientsApi.POST("", can(auth.OpClientCreate), h.clients.CreateClient)
			clientsApi.GET("", can(auth.OpClientList), h.clients.ListClients)
			clientsApi.DELETE("/:id", can(auth.OpClientDelete), h.clients.DeleteClient)
		}

		publicApi := v1.Group("/public")
		{
			publicApi.GET("/testimonials", h.public.ListTestimonials)
			publicApi.GET("/testimonials/search", h.public.SearchTestimonials)
			publicApi.GET("/testimonials/:id", h.public.GetTestimonial)
			publicApi.GET("/testimonials/:id/related", h.public.RelatedTestimonials)
			publicApi.GET("/testimonials/:id/multimedia", h.public.GetMultimedia)

			publicApi.GET("/embeds/:id", h.public.Embed)
			publicApi.GET("/embeds/:id/code", h.public.EmbedCode)
			publicApi.GET("/embeds/:id/preview", h.public.EmbedPreview)
			publicApi.GET("/embeds/:id/oembed", h.public.OEmbed)
			publicApi.GET("/embed/:file", h.public.EmbedScript)

			publicApi.GET("/stats", h.public.Stats)
			publicApi.GET("/stats/categories", h.public.StatsByCategory)
		}

		// Swagger documentation
		v1.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

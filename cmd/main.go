package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/franciscosanchezn/testigo-api/internal/cache"
	"github.com/franciscosanchezn/testigo-api/internal/config"
	"github.com/franciscosanchezn/testigo-api/internal/database"
	"github.com/franciscosanchezn/testigo-api/internal/middleware"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/router"
	"github.com/franciscosanchezn/testigo-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// @title TestiGo API
// @version 1.0
// @description Testimonial management API: submission, moderation, public read and embeddable widgets
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "testigo",
	Short: "Testimonial management API",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load environment variables
		loadDotenvFile()

		// Initialize logger
		setUpLogger()
	},
	// serve is the default
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, seedCmd, createClientCmd)
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	var level log.Level
	switch environment {
	case "development":
		level = log.DebugLevel
	case "production":
		level = log.ErrorLevel
	default:
		level = log.InfoLevel
	}
	log.SetLevel(level)
	services.SetLogLevel(level)
	middleware.SetLogLevel(level)
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

// bootstrap loads the configuration and opens a migrated database
func bootstrap() (*config.Config, *gorm.DB, error) {
	conf, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.InitDatabase(database.FromAppConfig(conf))
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, err
	}
	if err := database.SeedCatalog(db); err != nil {
		return nil, nil, err
	}
	return conf, db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	conf, db, err := bootstrap()
	if err != nil {
		return err
	}

	if conf.SeedAdminEmail != "" && conf.SeedAdminPassword != "" {
		if _, err := database.EnsureUser(db, database.DemoUser{
			Name:     "Admin",
			LastName: "TestiGo",
			Email:    conf.SeedAdminEmail,
			Password: conf.SeedAdminPassword,
			Role:     models.RoleAdmin,
		}); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	cacheClient := cache.New(conf.RedisAddr, conf.RedisPassword, conf.RedisDB)
	defer cacheClient.Close()

	app, err := router.New(conf, db, cacheClient)
	if err != nil {
		return err
	}

	if purged, err := app.OAuth.PurgeExpired(cmd.Context()); err != nil {
		log.WithError(err).Warn("Could not purge expired OAuth tokens")
	} else if purged > 0 {
		log.WithField("purged", purged).Info("Expired OAuth tokens removed")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%v:%d", conf.Host, conf.Port),
		Handler:           app.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine for graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}

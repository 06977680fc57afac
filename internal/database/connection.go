package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// retryDelays is the backoff between connection attempts
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}

// InitDatabase initializes the database connection based on the provided configuration
// It supports PostgreSQL, MySQL and SQLite drivers with automatic retry logic and connection pooling
func InitDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	// Normalize driver name
	driver := strings.ToLower(cfg.Driver)

	log.WithFields(logrus.Fields{
		"db_driver": driver,
		"db_host":   cfg.Host,
		"db_name":   cfg.Name,
		"db_path":   cfg.Path,
	}).Info("Initializing database connection")

	dialector, err := dialectorFor(driver, cfg)
	if err != nil {
		return nil, err
	}

	maxRetries := len(retryDelays)
	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.WithFields(logrus.Fields{
			"attempt":     attempt,
			"max_retries": maxRetries,
		}).Info("Attempting database connection")

		db, err = gorm.Open(dialector, &gorm.Config{TranslateError: true})
		if err == nil {
			// Connection successful, verify with ping
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				log.WithError(sqlErr).Error("Failed to get database instance")
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				log.WithError(pingErr).Error("Failed to ping database")
				err = pingErr
			} else {
				log.Info("Database connection successful, configuring connection pool")
				configureConnectionPool(sqlDB, driver)

				log.WithFields(logrus.Fields{
					"db_driver": driver,
					"attempt":   attempt,
				}).Info("Database initialized successfully")

				return db, nil
			}
		}

		// Connection failed
		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("Database connection attempt failed")

		// Don't wait after the last attempt
		if attempt < maxRetries {
			delay := retryDelays[attempt-1]
			log.WithField("delay", delay).Info("Retrying database connection")
			time.Sleep(delay)
		}
	}

	// All retries exhausted
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

func dialectorFor(driver string, cfg DatabaseConfig) (gorm.Dialector, error) {
	dsn := cfg.DSN()
	switch driver {
	case "postgres", "postgresql":
		log.WithField("dsn_host", cfg.Host).Debug("Connecting to PostgreSQL")
		return postgres.Open(dsn), nil
	case "mysql":
		log.WithField("dsn_host", cfg.Host).Debug("Connecting to MySQL")
		return mysql.Open(dsn), nil
	case "sqlite", "":
		log.WithField("db_path", cfg.Path).Debug("Connecting to SQLite")
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, mysql, sqlite)", cfg.Driver)
	}
}

// configureConnectionPool sets up connection pool parameters
func configureConnectionPool(sqlDB *sql.DB, driver string) {
	maxOpen, lifetime := 25, 5*time.Minute
	if driver == "sqlite" || driver == "" {
		// SQLite serializes writers anyway; a single long-lived connection avoids
		// "database is locked" and keeps in-memory databases alive
		maxOpen, lifetime = 1, 0
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(lifetime)

	log.WithFields(logrus.Fields{
		"max_open_conns":    maxOpen,
		"max_idle_conns":    5,
		"conn_max_lifetime": lifetime.String(),
	}).Debug("Connection pool configured")
}

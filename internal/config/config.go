package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Environment   string   `json:"environment"`
	Port          int      `json:"port"`
	Host          string   `json:"host"`
	PublicBaseURL string   `json:"public_base_url"`
	CORSOrigins   []string `json:"cors_origins"`

	// Database configuration
	DBDriver    string `json:"db_driver"`
	DatabaseURL string `json:"database_url"`
	DBHost      string `json:"db_host"`
	DBPort      string `json:"db_port"`
	DBName      string `json:"db_name"`
	DBUser      string `json:"db_user"`
	DBPassword  string `json:"db_password"`
	DBSSLMode   string `json:"db_sslmode"`
	DBPath      string `json:"db_path"`

	// Uploads
	UploadDir      string `json:"upload_dir"`
	UploadBaseURL  string `json:"upload_base_url"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`

	// Cache
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"redis_password"`
	RedisDB       int           `json:"redis_db"`
	StatsCacheTTL time.Duration `json:"stats_cache_ttl"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret string        `json:"jwt_secret"`
	JWTExpiry time.Duration `json:"jwt_expiry"`

	// Bootstrap admin, created on startup when both are set
	SeedAdminEmail    string `json:"seed_admin_email"`
	SeedAdminPassword string `json:"seed_admin_password"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Environment: %s, Port: %d, Host: %s, PublicBaseURL: %s, DBDriver: %s, DatabaseURL: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], DBPath: %s, UploadDir: %s, RedisAddr: %s, LogLevel: %s, JWTSecret: [REDACTED], JWTExpiry: %s}",
		c.Environment, c.Port, c.Host, c.PublicBaseURL, c.DBDriver, maskDatabaseURL(c.DatabaseURL), c.DBHost, c.DBName, c.DBUser, c.DBPath, c.UploadDir, c.RedisAddr, c.LogLevel, c.JWTExpiry)
}

// maskDatabaseURL masks password in database URL
func maskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return ""
	}

	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		// Replace password with [REDACTED]
		parsed.User = url.UserPassword(parsed.User.Username(), "[REDACTED]")
	}

	return parsed.String()
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// It also validates formats like DatabaseURL and JWTSecret
// Returns an error if any required environment variable is missing or invalid
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	dbURL := GetEnvWithDefault("DATABASE_URL", "")
	if dbURL != "" {
		if _, err := url.ParseRequestURI(dbURL); err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL format: %w", err)
		}
	}

	environment := GetEnvWithDefault("APP_ENV", "development")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if environment == "production" {
			return nil, errors.New("JWT_SECRET environment variable is required in production")
		}
		jwtSecret = "secret"
	}

	expiryMinutes := GetEnvAsType("JWT_EXPIRY_MINUTES", 60)
	if expiryMinutes <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRY_MINUTES must be positive, got %d", expiryMinutes)
	}

	host := GetEnvWithDefault("APP_HOST", "localhost")
	publicBaseURL := strings.TrimRight(GetEnvWithDefault("PUBLIC_BASE_URL", fmt.Sprintf("http://%s:%d", host, port)), "/")

	config := &Config{
		Environment:       environment,
		Port:              port,
		Host:              host,
		PublicBaseURL:     publicBaseURL,
		CORSOrigins:       splitList(GetEnvWithDefault("CORS_ORIGINS", "*")),
		DBDriver:          strings.ToLower(GetEnvWithDefault("DB_DRIVER", "sqlite")),
		DatabaseURL:       dbURL,
		DBHost:            GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:            GetEnvWithDefault("DB_PORT", "5432"),
		DBName:            GetEnvWithDefault("DB_NAME", "testigo"),
		DBUser:            GetEnvWithDefault("DB_USER", "user"),
		DBPassword:        GetEnvWithDefault("DB_PASSWORD", "password"),
		DBSSLMode:         GetEnvWithDefault("DB_SSLMODE", "disable"),
		DBPath:            GetEnvWithDefault("DB_PATH", "testigo.sqlite"),
		UploadDir:         GetEnvWithDefault("UPLOAD_DIR", "./uploads"),
		UploadBaseURL:     strings.TrimRight(GetEnvWithDefault("UPLOAD_BASE_URL", publicBaseURL+"/uploads"), "/"),
		MaxUploadBytes:    int64(GetEnvAsType("MAX_UPLOAD_MB", 20)) << 20,
		RedisAddr:         GetEnvWithDefault("REDIS_ADDR", ""),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           GetEnvAsType("REDIS_DB", 0),
		StatsCacheTTL:     time.Duration(GetEnvAsType("STATS_CACHE_SECONDS", 60)) * time.Second,
		LogLevel:          GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:         jwtSecret,
		JWTExpiry:         time.Duration(expiryMinutes) * time.Minute,
		SeedAdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds all runtime settings, loaded from the environment.
type Config struct {
	Port        string
	Environment string

	// Store backend: file, sqlite, postgres or mongo.
	StoreBackend string
	StoreFile    string
	SQLitePath   string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	MongoURI     string
	MongoDB      string

	// Quote provider and optional Redis quote cache.
	QuoteBaseURL  string
	QuoteTimeout  time.Duration
	RedisAddr     string
	QuoteCacheTTL time.Duration

	// Refresh loop timing.
	RefreshInterval     time.Duration
	RefreshInitialDelay time.Duration
}

var AppConfig *Config

// LoadConfig loads environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		StoreBackend: getEnv("STORE_BACKEND", "sqlite"),
		StoreFile:    getEnv("STORE_FILE", "data/stocks.json"),
		SQLitePath:   getEnv("SQLITE_PATH", "data/watchlist.db"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", ""),
		DBName:       getEnv("DB_NAME", "stock_tracker"),
		MongoURI:     getEnv("MONGODB_URI", ""),
		MongoDB:      getEnv("MONGO_DB", "stock_tracker"),

		QuoteBaseURL:  getEnv("QUOTE_BASE_URL", ""),
		QuoteTimeout:  getDurationEnv("QUOTE_TIMEOUT", 15*time.Second),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		QuoteCacheTTL: getDurationEnv("QUOTE_CACHE_TTL", 5*time.Second),

		RefreshInterval:     getSecondsEnv("REFRESH_INTERVAL", 10),
		RefreshInitialDelay: getSecondsEnv("REFRESH_INITIAL_DELAY", 5),
	}

	AppConfig = config
	return config, nil
}

// OpenPostgres opens the gorm connection for the postgres store
// backend.
func (c *Config) OpenPostgres() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=prefer",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)

	logLevel := logger.Info
	if c.Environment == "production" {
		logLevel = logger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getSecondsEnv reads an integer number of seconds.
func getSecondsEnv(key string, defaultSeconds int) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return time.Duration(defaultSeconds) * time.Second
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Invalid %s=%q, using %ds", key, value, defaultSeconds)
		return time.Duration(defaultSeconds) * time.Second
	}
	return time.Duration(n) * time.Second
}

// getDurationEnv reads a Go duration string such as "15s".
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return d
}

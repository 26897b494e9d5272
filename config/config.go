package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Supabase SupabaseConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Storage  StorageConfig
	Sync     SyncConfig
	App      AppConfig
}

type ServerConfig struct {
	Port string
}

// SupabaseConfig points the remote client and the realtime feed at a
// Supabase-compatible project (PostgREST + realtime websocket).
type SupabaseConfig struct {
	ProjectURL string
	AnonKey    string
	ServiceKey string
}

// DatabaseConfig is only used when SYNC_BACKEND=postgres, which talks to the
// database directly instead of going through PostgREST.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FirebaseConfig struct {
	CredentialsPath string
}

// StorageConfig configures the S3-compatible bucket used for project photos.
// Supabase Storage exposes an S3 protocol endpoint; plain S3 works as well.
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

type SyncConfig struct {
	// Backend selects the remote source implementation: "postgrest" or "postgres".
	Backend string
	// FlushInterval is how long the realtime client buffers events before
	// handing a batch to the store.
	FlushInterval time.Duration
	// PrefetchRate limits per-id re-fetches during reconciliation.
	PrefetchRate  int
	PrefetchBurst int
	// UserID is the account whose data this node loads and keeps in sync.
	UserID string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Supabase: SupabaseConfig{
			ProjectURL: getEnv("SUPABASE_URL", ""),
			AnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
			ServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "stavlog"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			Region:    getEnv("STORAGE_REGION", "eu-central-1"),
			Bucket:    getEnv("STORAGE_BUCKET", "project-photos"),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			PublicURL: getEnv("STORAGE_PUBLIC_URL", ""),
		},
		Sync: SyncConfig{
			Backend:       getEnv("SYNC_BACKEND", "postgrest"),
			FlushInterval: getEnvAsDuration("SYNC_FLUSH_INTERVAL", 250*time.Millisecond),
			PrefetchRate:  getEnvAsInt("SYNC_PREFETCH_RATE", 20),
			PrefetchBurst: getEnvAsInt("SYNC_PREFETCH_BURST", 40),
			UserID:        getEnv("SYNC_USER_ID", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Writes always go through PostgREST, so the Supabase credentials are
	// required regardless of the read backend.
	if c.Supabase.ProjectURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.Supabase.ServiceKey == "" && c.Supabase.AnonKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY or SUPABASE_ANON_KEY is required")
	}

	switch c.Sync.Backend {
	case "postgrest":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required when SYNC_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("SYNC_BACKEND must be postgrest or postgres, got %q", c.Sync.Backend)
	}

	return nil
}

// DSN builds a keyword/value connection string for the direct-Postgres backend.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

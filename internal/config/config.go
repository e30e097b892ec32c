package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Auth       AuthConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	App        AppConfig
	Log        LogConfig
	Vault      VaultConfig
	AI         AIConfig
	Encryption EncryptionConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	Port         string
	TimeoutRead  time.Duration
	TimeoutWrite time.Duration
	TimeoutIdle  time.Duration
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// AuthConfig selects the identity provider.
// Provider is either "azure-ad" or "stub".
type AuthConfig struct {
	Provider string

	AzureClientID     string
	AzureClientSecret string
	AzureTenantID     string
	AzureRedirectURL  string

	StubUserID    string
	StubUserName  string
	StubUserEmail string
	StubUserRole  string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Duration time.Duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	Env         string
	Name        string
	Version     string
	FrontendURL string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// VaultConfig holds Vault-related configuration
type VaultConfig struct {
	Address      string
	Token        string
	TransitMount string
	KVMount      string
	SecretPath   string
	Enabled      bool
}

// AIConfig holds configuration for the text-generation provider.
// Provider is one of "gemini", "ollama" or "disabled".
type AIConfig struct {
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	OllamaBaseURL string
	OllamaModel   string
	Timeout       time.Duration
}

// EncryptionConfig holds the local fallback key for sealing review answers
type EncryptionConfig struct {
	ReviewKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// godotenv doesn't override already-set variables, so order matters
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnv("SERVER_PORT", "8080"),
			TimeoutRead:  getDurationEnv("SERVER_TIMEOUT_READ", 15*time.Second),
			TimeoutWrite: getDurationEnv("SERVER_TIMEOUT_WRITE", 90*time.Second),
			TimeoutIdle:  getDurationEnv("SERVER_TIMEOUT_IDLE", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "reviewcentral"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "reviewcentral"),
			SSLMode:         getEnv("DB_SSLMODE", "prefer"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "./migrations"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getDurationEnv("JWT_EXPIRATION", 12*time.Hour),
		},
		Auth: AuthConfig{
			Provider:          getEnv("AUTH_PROVIDER", "azure-ad"),
			AzureClientID:     getEnv("AUTH_AZURE_AD_CLIENT_ID", ""),
			AzureClientSecret: getEnv("AUTH_AZURE_AD_CLIENT_SECRET", ""),
			AzureTenantID:     getEnv("AUTH_AZURE_AD_TENANT_ID", ""),
			AzureRedirectURL:  getEnv("AUTH_AZURE_AD_REDIRECT_URL", "http://localhost:8080/api/v1/auth/azure/callback"),
			StubUserID:        getEnv("AUTH_STUB_USER_ID", "stub-user-id-123"),
			StubUserName:      getEnv("AUTH_STUB_USER_NAME", "Local Developer"),
			StubUserEmail:     getEnv("AUTH_STUB_USER_EMAIL", "dev@example.com"),
			StubUserRole:      getEnv("AUTH_STUB_USER_ROLE", "admin"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
			ExposedHeaders:   getSliceEnv("CORS_EXPOSED_HEADERS", []string{"Link"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getIntEnv("CORS_MAX_AGE", 300),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBoolEnv("RATE_LIMIT_ENABLED", true),
			Requests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
			Duration: getDurationEnv("RATE_LIMIT_DURATION", 1*time.Minute),
		},
		App: AppConfig{
			Env:         getEnv("APP_ENV", "development"),
			Name:        getEnv("APP_NAME", "Review Central"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Vault: VaultConfig{
			Address:      getEnv("VAULT_ADDR", "http://localhost:8200"),
			Token:        getEnv("VAULT_TOKEN", ""),
			TransitMount: getEnv("VAULT_TRANSIT_MOUNT", "transit"),
			KVMount:      getEnv("VAULT_KV_MOUNT", "secret"),
			SecretPath:   getEnv("VAULT_SECRET_PATH", "review-central"),
			Enabled:      getBoolEnv("VAULT_ENABLED", false),
		},
		AI: AIConfig{
			Provider:      getEnv("AI_PROVIDER", "gemini"),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),
			Timeout:       getDurationEnv("AI_TIMEOUT", 60*time.Second),
		},
		Encryption: EncryptionConfig{
			ReviewKey: getEnv("REVIEW_ENCRYPTION_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" && c.App.Env == "production" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}

	switch c.Auth.Provider {
	case "stub":
		if c.App.Env == "production" {
			return fmt.Errorf("AUTH_PROVIDER=stub is not allowed in production")
		}
	case "azure-ad":
		if c.App.Env == "production" && (c.Auth.AzureClientID == "" || c.Auth.AzureTenantID == "") {
			return fmt.Errorf("AUTH_AZURE_AD_CLIENT_ID and AUTH_AZURE_AD_TENANT_ID are required in production")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q (expected azure-ad or stub)", c.Auth.Provider)
	}

	switch c.AI.Provider {
	case "gemini", "ollama", "disabled":
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q (expected gemini, ollama or disabled)", c.AI.Provider)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, v := range parts {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

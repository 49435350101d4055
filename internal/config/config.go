package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Index backends accepted by INDEX_BACKEND.
const (
	IndexBackendQdrant = "qdrant"
	IndexBackendSQLite = "sqlite"
)

// Session stores accepted by SESSION_STORE.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel  slog.Level
	LogFormat string

	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string
	LLMMaxTokens int
	LLMAutoload  bool

	EmbeddingBaseURL   string
	EmbeddingModelName string
	VectorSize         int

	DataDir         string
	DBPath          string
	CredentialsFile string

	IndexBackend     string
	QdrantURL        string
	QdrantCollection string
	RetrievalK       int

	SessionStore string
	RedisAddr    string
	SessionTTL   time.Duration
	JWTSecret    string

	APIPort string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or a parent directory, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	// Walk up a few levels to find a project-level .env
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "flan-t5-base"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "all-MiniLM-L6-v2"),
		DataDir:            getEnv("DATA_DIR", "./data/corpus"),
		DBPath:             getEnv("DB_PATH", "./data/bankassist.db"),
		CredentialsFile:    getEnv("CREDENTIALS_FILE", "./data/credentials.yaml"),
		IndexBackend:       strings.ToLower(getEnv("INDEX_BACKEND", IndexBackendQdrant)),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "customer_records"),
		SessionStore:       strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		APIPort:            getEnv("API_PORT", "9000"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	// VECTOR_SIZE must match the output size of the embeddings model.
	// Changing it requires a full re-ingestion.
	vectorSizeStr := getEnv("VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("VECTOR_SIZE must be greater than 0")
	}
	cfg.VectorSize = vectorSize

	if cfg.RetrievalK, err = getEnvInt("RETRIEVAL_K", 6); err != nil {
		return nil, err
	}
	if cfg.RetrievalK <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_K must be greater than 0")
	}

	if cfg.LLMMaxTokens, err = getEnvInt("LLM_MAX_TOKENS", 200); err != nil {
		return nil, err
	}
	if cfg.LLMMaxTokens <= 0 {
		return nil, fmt.Errorf("LLM_MAX_TOKENS must be greater than 0")
	}

	cfg.LLMAutoload, err = strconv.ParseBool(getEnv("LLM_AUTOLOAD", "false"))
	if err != nil {
		return nil, fmt.Errorf("LLM_AUTOLOAD must be a boolean: %w", err)
	}

	cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL must be a duration: %w", err)
	}

	switch cfg.IndexBackend {
	case IndexBackendQdrant, IndexBackendSQLite:
	default:
		return nil, fmt.Errorf("INDEX_BACKEND must be %q or %q, got %q", IndexBackendQdrant, IndexBackendSQLite, cfg.IndexBackend)
	}

	switch cfg.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return nil, fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreMemory, SessionStoreRedis, cfg.SessionStore)
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// ValidateServe checks the settings that only the API server needs.
func (c *Config) ValidateServe() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required to serve the API")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/roast-rag-go/internal/constants"
)

type Config struct {
	Server      ServerConfig
	Gemini      GeminiConfig
	OpenAI      OpenAIConfig
	Vector      VectorConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	FaceEncoder FaceEncoderConfig
	Retrieval   RetrievalConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Port              int
	AllowedOrigins    []string
	MaxUploadBytes    int64
	GenerationTimeout time.Duration
}

type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	EnableFallback bool
}

// VectorConfig selects the corpus backend. "sqlite" keeps everything in a single
// file at Path; "postgres" uses pgvector tables.
type VectorConfig struct {
	Backend string
	Path    string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type FaceEncoderConfig struct {
	URL string
}

type RetrievalConfig struct {
	TextMaxDistance float64
	FaceMaxDistance float64
}

type LoggingConfig struct {
	Level string
	File  string
}

// Load reads configuration from the environment (and a .env file when present).
// It does not validate; callers pick the validation that matches their entrypoint.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:              getEnvInt("HTTP_PORT", 8000),
			AllowedOrigins:    parseCommaSeparated(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_MB", constants.ImageLimits.MaxUploadMB)) << 20,
			GenerationTimeout: time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 0)) * time.Second,
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", constants.ModelDefaults.GeminiModel),
			EmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", constants.ModelDefaults.GeminiEmbeddingModel),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", constants.ModelDefaults.OpenAIModel),
			EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", constants.ModelDefaults.OpenAIEmbeddingModel),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Vector: VectorConfig{
			Backend: strings.ToLower(getEnv("VECTOR_BACKEND", "sqlite")),
			Path:    getEnv("VECTOR_DB_PATH", getEnv("CHROMA_DB_PATH", "./roast_db/roast.db")),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "roast"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "roast"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		FaceEncoder: FaceEncoderConfig{
			URL: strings.TrimRight(getEnv("FACE_ENCODER_URL", ""), "/"),
		},
		Retrieval: RetrievalConfig{
			TextMaxDistance: getEnvFloat("RAG_TEXT_MAX_DISTANCE", 0),
			FaceMaxDistance: getEnvFloat("RAG_FACE_MAX_DISTANCE", 0),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if err := c.ValidateVector(); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// ValidateVector checks only the corpus backend settings (used by roastctl).
func (c *Config) ValidateVector() error {
	switch c.Vector.Backend {
	case "sqlite":
		if c.Vector.Path == "" {
			return fmt.Errorf("VECTOR_DB_PATH is required for the sqlite backend")
		}
	case "postgres":
		if c.Postgres.Host == "" || c.Postgres.Database == "" {
			return fmt.Errorf("POSTGRES_HOST and POSTGRES_DB are required for the postgres backend")
		}
	default:
		return fmt.Errorf("VECTOR_BACKEND must be sqlite or postgres, got %q", c.Vector.Backend)
	}
	if c.Retrieval.TextMaxDistance < 0 || c.Retrieval.FaceMaxDistance < 0 {
		return fmt.Errorf("RAG_*_MAX_DISTANCE must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

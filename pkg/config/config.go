package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Data           DataConfig
	Matching       MatchingConfig
	Embedding      EmbeddingConfig
	Recommendation RecommendationConfig
	Geolocation    GeolocationConfig
	Cache          CacheConfig
	OTEL           OTELConfig
	Log            LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// DataConfig selects where triage rules and provider registries come from
type DataConfig struct {
	// Source is "file" or "postgres".
	Source                string
	TriagePath            string
	ProviderRegistryPath  string
	ProviderLocationsPath string
	RulesPath             string
}

// MatchingConfig holds the default correspondence table parameters
type MatchingConfig struct {
	Threshold    float64
	TopK         int
	Method       string
	AllowDegrade bool
	// LocationMergeKey is "provider_service" or "branch_area".
	LocationMergeKey string
}

// EmbeddingConfig points at the ONNX sentence-embedding model
type EmbeddingConfig struct {
	SharedLibraryPath string
	ModelPath         string
	TokenizerPath     string
	ModelID           string
	MaxSeqLen         int
	Dimension         int
	CacheSize         int
}

// RecommendationConfig holds provider ranking limits
type RecommendationConfig struct {
	MaxDistanceKm float64
	// ResultLimit is capped at 5 by the recommendation filter.
	ResultLimit int
}

// GeolocationConfig holds geolocation provider configuration
type GeolocationConfig struct {
	Provider      string
	BaseURL       string
	UserAgent     string
	CountrySuffix string
	RetryAttempts int
	RetryDelay    time.Duration
}

// CacheConfig holds cache TTLs
type CacheConfig struct {
	TableTTL time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Env   string
	Level string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "rutasalud"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Data: DataConfig{
			Source:                getEnv("DATA_SOURCE", "file"),
			TriagePath:            getEnv("DATA_TRIAGE_PATH", "data/triage_rules.xlsx"),
			ProviderRegistryPath:  getEnv("DATA_PROVIDER_REGISTRY_PATH", "data/provider_registry.xlsx"),
			ProviderLocationsPath: getEnv("DATA_PROVIDER_LOCATIONS_PATH", "data/provider_locations.xlsx"),
			RulesPath:             getEnv("DATA_RULES_PATH", ""),
		},
		Matching: MatchingConfig{
			Threshold:        getEnvAsFloat("MATCH_THRESHOLD", 0.7),
			TopK:             getEnvAsInt("MATCH_TOP_K", 3),
			Method:           getEnv("MATCH_METHOD", "semantic"),
			AllowDegrade:     getEnvAsBool("MATCH_ALLOW_DEGRADE", true),
			LocationMergeKey: getEnv("MATCH_LOCATION_MERGE_KEY", "provider_service"),
		},
		Embedding: EmbeddingConfig{
			SharedLibraryPath: getEnv("EMBEDDING_ORT_LIBRARY", "onnxruntime.so"),
			ModelPath:         getEnv("EMBEDDING_MODEL_PATH", "models/paraphrase-multilingual-MiniLM-L12-v2/model.onnx"),
			TokenizerPath:     getEnv("EMBEDDING_TOKENIZER_PATH", "models/paraphrase-multilingual-MiniLM-L12-v2/tokenizer.json"),
			ModelID:           getEnv("EMBEDDING_MODEL_ID", "paraphrase-multilingual-MiniLM-L12-v2"),
			MaxSeqLen:         getEnvAsInt("EMBEDDING_MAX_SEQ_LEN", 128),
			Dimension:         getEnvAsInt("EMBEDDING_DIMENSION", 384),
			CacheSize:         getEnvAsInt("EMBEDDING_CACHE_SIZE", 4096),
		},
		Recommendation: RecommendationConfig{
			MaxDistanceKm: getEnvAsFloat("RECOMMENDATION_MAX_DISTANCE_KM", 100),
			ResultLimit:   getEnvAsInt("RECOMMENDATION_RESULT_LIMIT", 5),
		},
		Geolocation: GeolocationConfig{
			Provider:      getEnv("GEOLOCATION_PROVIDER", "mock"),
			BaseURL:       getEnv("GEOLOCATION_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:     getEnv("GEOLOCATION_USER_AGENT", "rutasalud/1.0"),
			CountrySuffix: getEnv("GEOLOCATION_COUNTRY_SUFFIX", "Colombia"),
			RetryAttempts: getEnvAsInt("GEOLOCATION_RETRY_ATTEMPTS", 3),
			RetryDelay:    getEnvAsDuration("GEOLOCATION_RETRY_DELAY", 2*time.Second),
		},
		Cache: CacheConfig{
			TableTTL: getEnvAsDuration("CACHE_TABLE_TTL", 24*time.Hour),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "rutasalud"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Log: LogConfig{
			Env:   getEnv("APP_ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Matching.Threshold < 0 || c.Matching.Threshold > 1 {
		return fmt.Errorf("MATCH_THRESHOLD must be within [0, 1], got %v", c.Matching.Threshold)
	}
	if c.Matching.TopK < 1 {
		return fmt.Errorf("MATCH_TOP_K must be positive, got %d", c.Matching.TopK)
	}
	switch c.Matching.Method {
	case "semantic", "fuzzy":
	default:
		return fmt.Errorf("MATCH_METHOD must be semantic or fuzzy, got %q", c.Matching.Method)
	}
	switch c.Data.Source {
	case "file", "postgres":
	default:
		return fmt.Errorf("DATA_SOURCE must be file or postgres, got %q", c.Data.Source)
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

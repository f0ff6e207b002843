package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the food blog API
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Recommend RecommendConfig
	Claim     ClaimConfig
	Throttle  ThrottleConfig
	LLM       LLMConfig
	LogLevel  string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	AllowedOrigins    []string
}

// StorageConfig selects and configures the catalog source
type StorageConfig struct {
	Backend       string
	DataDir       string
	MongoURI      string
	MongoDatabase string
	Timeout       time.Duration
}

// AuthConfig holds bearer token verification settings and the admin allow-list
type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	AdminEmails []string
}

// RecommendConfig holds recommendation weights and thresholds
type RecommendConfig struct {
	CuisineMatchWeight     float64
	LocationBonus          float64
	SimilarRatingThreshold float64
	SimilarRatingBonus     float64
	RecentViewPenalty      float64
	CommunityThreshold     float64
	CommunityBonus         float64
	BookmarkBonus          float64
	ExplainLimit           int
	DigestSize             int
}

// ClaimConfig holds restaurant ownership verification settings
type ClaimConfig struct {
	CodeTTL time.Duration
}

// ThrottleConfig spaces out claim codes and locks verification after repeated failures
type ThrottleConfig struct {
	MinInterval     time.Duration
	MaxFailures     int
	Lockout         time.Duration
	StateExpiry     time.Duration
	CleanupInterval time.Duration
}

type LLMConfig struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

const (
	StorageFile  = "file"
	StorageMongo = "mongo"
)

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              GetStringEnv("SERVER_ADDR", ":8080"),
			ReadHeaderTimeout: GetDurationEnv("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
			ShutdownTimeout:   GetDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			AllowedOrigins:    GetListEnv("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Storage: StorageConfig{
			Backend:       GetStringEnv("STORAGE_BACKEND", StorageFile),
			DataDir:       GetStringEnv("DATA_DIR", "./data"),
			MongoURI:      GetStringEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: GetStringEnv("MONGO_DATABASE", "foodblog"),
			Timeout:       GetDurationEnv("STORAGE_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:   GetStringEnv("JWT_SECRET", ""),
			JWTIssuer:   GetStringEnv("JWT_ISSUER", ""),
			JWTAudience: GetStringEnv("JWT_AUDIENCE", ""),
			AdminEmails: GetListEnv("ADMIN_EMAILS", nil),
		},
		Recommend: RecommendConfig{
			CuisineMatchWeight:     GetFloatEnv("RECOMMEND_CUISINE_WEIGHT", 2),
			LocationBonus:          GetFloatEnv("RECOMMEND_LOCATION_BONUS", 3),
			SimilarRatingThreshold: GetFloatEnv("RECOMMEND_SIMILAR_THRESHOLD", 80),
			SimilarRatingBonus:     GetFloatEnv("RECOMMEND_SIMILAR_BONUS", 2),
			RecentViewPenalty:      GetFloatEnv("RECOMMEND_RECENT_VIEW_PENALTY", 1),
			CommunityThreshold:     GetFloatEnv("RECOMMEND_COMMUNITY_THRESHOLD", 85),
			CommunityBonus:         GetFloatEnv("RECOMMEND_COMMUNITY_BONUS", 1),
			BookmarkBonus:          GetFloatEnv("RECOMMEND_BOOKMARK_BONUS", 1),
			ExplainLimit:           GetIntEnv("RECOMMEND_EXPLAIN_LIMIT", 10),
			DigestSize:             GetIntEnv("RECOMMEND_DIGEST_SIZE", 5),
		},
		Claim: ClaimConfig{
			CodeTTL: GetDurationEnv("CLAIM_CODE_TTL", 24*time.Hour),
		},
		Throttle: ThrottleConfig{
			MinInterval:     GetDurationEnv("CLAIM_MIN_INTERVAL", time.Minute),
			MaxFailures:     GetIntEnv("CLAIM_MAX_FAILURES", 5),
			Lockout:         GetDurationEnv("CLAIM_LOCKOUT", 15*time.Minute),
			StateExpiry:     GetDurationEnv("THROTTLE_STATE_EXPIRY", time.Hour),
			CleanupInterval: GetDurationEnv("THROTTLE_CLEANUP_INTERVAL", 5*time.Minute),
		},
		LLM: LLMConfig{
			Provider: GetStringEnv("LLM_PROVIDER", "ollama"),
			BaseURL:  GetStringEnv("LLM_BASE_URL", ""),
			Model:    GetStringEnv("LLM_MODEL", "qwen3:1.7b"),
			APIKey:   GetStringEnv("LLM_API_KEY", ""),
			Timeout:  GetDurationEnv("LLM_TIMEOUT", 120*time.Second),
		},
		LogLevel: GetStringEnv("LOG_LEVEL", "info"),
	}
}

// IsAdmin reports whether email is on the admin allow-list (case-insensitive)
func (a AuthConfig) IsAdmin(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, admin := range a.AdminEmails {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}

func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetListEnv splits a comma separated variable, dropping empty entries
func GetListEnv(key string, defaultValue []string) []string {
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

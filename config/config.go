package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Google Cloud
	ProjectID string `yaml:"project_id"`
	Location  string `yaml:"location"`

	// Gemini
	GeminiModel  string `yaml:"gemini_model"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
	LiveModel    string `yaml:"live_model"`
	LiveVoice    string `yaml:"live_voice"`

	// AI call pacing
	AIRequestsPerSecond float64 `yaml:"ai_requests_per_second"`
	AIBurst             int     `yaml:"ai_burst"`

	// Workflow
	LetterLanguage     string `yaml:"letter_language"`
	MaxJobResults      int    `yaml:"max_job_results"`
	SessionIdleMinutes int    `yaml:"session_idle_minutes"`

	// Server
	Port               string   `yaml:"port"`
	Debug              bool     `yaml:"debug"`
	HTTPTimeoutSeconds int      `yaml:"http_timeout_seconds"`
	AllowedOrigins     []string `yaml:"allowed_origins"`

	// Authentication
	JWTSecret      string `yaml:"jwt_secret"`
	JWTExpiryHours int    `yaml:"jwt_expiry_hours"`
	GoogleClientID string `yaml:"google_client_id"`

	// Persistence: memory, firestore or sqlite
	StoreBackend string `yaml:"store_backend"`
	SQLitePath   string `yaml:"sqlite_path"`

	// Cloud Storage
	CVBucketName string `yaml:"cv_bucket_name"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Location:            "us-central1",
		GeminiModel:         "gemini-2.5-flash",
		LiveModel:           "gemini-2.5-flash-native-audio-preview-09-2025",
		LiveVoice:           "Zephyr",
		AIRequestsPerSecond: 5,
		AIBurst:             5,
		LetterLanguage:      "fr",
		MaxJobResults:       15,
		SessionIdleMinutes:  120,
		Port:                "8080",
		HTTPTimeoutSeconds:  30,
		AllowedOrigins:      []string{"http://localhost:3000", "http://localhost:5173"},
		JWTSecret:           "your-secret-key-change-in-production",
		JWTExpiryHours:      24,
		StoreBackend:        "memory",
		SQLitePath:          "jobpilot.db",
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, then environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	// Google Cloud
	cfg.ProjectID = getEnv("PROJECT_ID", cfg.ProjectID)
	cfg.Location = getEnv("LOCATION", cfg.Location)

	// Gemini
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.LiveModel = getEnv("LIVE_MODEL", cfg.LiveModel)
	cfg.LiveVoice = getEnv("LIVE_VOICE", cfg.LiveVoice)
	cfg.AIRequestsPerSecond = getEnvFloat("AI_REQUESTS_PER_SECOND", cfg.AIRequestsPerSecond)
	cfg.AIBurst = getEnvInt("AI_BURST", cfg.AIBurst)

	// Workflow
	cfg.LetterLanguage = getEnv("LETTER_LANGUAGE", cfg.LetterLanguage)
	cfg.MaxJobResults = getEnvInt("MAX_JOB_RESULTS", cfg.MaxJobResults)
	cfg.SessionIdleMinutes = getEnvInt("SESSION_IDLE_MINUTES", cfg.SessionIdleMinutes)

	// Server
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Debug = getEnvBool("DEBUG", cfg.Debug)
	cfg.HTTPTimeoutSeconds = getEnvInt("HTTP_TIMEOUT_SECONDS", cfg.HTTPTimeoutSeconds)
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", cfg.AllowedOrigins)

	// Authentication
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTExpiryHours = getEnvInt("JWT_EXPIRY_HOURS", cfg.JWTExpiryHours)
	cfg.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", cfg.GoogleClientID)

	// Persistence
	cfg.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", cfg.StoreBackend))
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.CVBucketName = getEnv("CV_BUCKET_NAME", cfg.CVBucketName)

	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	// ProjectID is required for Vertex AI
	if c.ProjectID == "" {
		return &ConfigError{Field: "PROJECT_ID", Message: "PROJECT_ID is required for Vertex AI"}
	}

	switch c.StoreBackend {
	case "memory", "firestore":
	case "sqlite":
		if c.SQLitePath == "" {
			return &ConfigError{Field: "SQLITE_PATH", Message: "SQLITE_PATH is required for the sqlite store"}
		}
	default:
		return &ConfigError{Field: "STORE_BACKEND", Message: fmt.Sprintf("unknown store backend %q", c.StoreBackend)}
	}

	if c.AIRequestsPerSecond <= 0 || c.AIBurst <= 0 {
		return &ConfigError{Field: "AI_REQUESTS_PER_SECOND", Message: "AI rate limit must be positive"}
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting for the studio server.
type Config struct {
	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseStorageBaseURL string

	// Gemini API
	GeminiAPIKeys        []string
	PlannerModel         string
	PlannerGroundedModel string
	ImageModel           string
	TextModel            string
	TTSModel             string

	// Pipeline
	PacingDelay time.Duration

	// Server
	Port string
}

var globalConfig *Config

// LoadConfig reads .env (if present) plus environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	useTLS := true
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	// Delay between consecutive image calls, in milliseconds
	pacingMS := 3000
	if delayStr := os.Getenv("PACING_DELAY_MS"); delayStr != "" {
		if parsed, err := strconv.Atoi(delayStr); err == nil && parsed >= 0 {
			pacingMS = parsed
		}
	}

	globalConfig = &Config{
		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		// Supabase
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),

		// Gemini API
		GeminiAPIKeys:        parseAPIKeys(getEnv("GEMINI_API_KEYS", os.Getenv("GEMINI_API_KEY"))),
		PlannerModel:         getEnv("PLANNER_MODEL", "gemini-2.5-flash"),
		PlannerGroundedModel: getEnv("PLANNER_GROUNDED_MODEL", "gemini-3-pro-preview"),
		ImageModel:           getEnv("IMAGE_MODEL", "gemini-2.5-flash-image"),
		TextModel:            getEnv("TEXT_MODEL", "gemini-2.5-flash"),
		TTSModel:             getEnv("TTS_MODEL", "gemini-2.5-flash-preview-tts"),

		// Pipeline
		PacingDelay: time.Duration(pacingMS) * time.Millisecond,

		// Server
		Port: getEnv("PORT", "8080"),
	}

	if err := globalConfig.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Redis: %s:%s (TLS: %v)", globalConfig.RedisHost, globalConfig.RedisPort, globalConfig.RedisUseTLS)
	log.Printf("   Supabase: %s", globalConfig.SupabaseURL)
	log.Printf("   Gemini: planner=%s image=%s tts=%s (%d keys)",
		globalConfig.PlannerModel, globalConfig.ImageModel, globalConfig.TTSModel, len(globalConfig.GeminiAPIKeys))
	log.Printf("   Pacing: %v between image calls", globalConfig.PacingDelay)

	return globalConfig, nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

func (c *Config) validate() error {
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if len(c.GeminiAPIKeys) == 0 {
		return fmt.Errorf("GEMINI_API_KEYS is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseAPIKeys splits a comma separated key list, dropping empty entries.
func parseAPIKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(k); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}

// GetRedisAddr builds the Redis connection address.
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

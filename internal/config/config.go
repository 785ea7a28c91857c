package config

import (
	"log"
	"os"
)

type Config struct {
	Port string

	// Storage: "memory" or "firestore"
	StorageBackend string
	GCPProjectID   string

	// Auth: "stub" or "google"
	AuthProvider      string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string

	// Text generation
	GeminiAPIKey string
	ModelName    string
	UseMockLLM   bool

	// Credential cache: empty = in-memory
	RedisURL string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

// Load reads all env vars and builds the config
func Load() *Config {
	cfg := &Config{
		Port: getEnv("ANOTA_PORT", "8080"),

		StorageBackend: getEnv("ANOTA_STORAGE_BACKEND", "memory"),
		GCPProjectID:   getEnv("ANOTA_GCP_PROJECT", ""),

		AuthProvider:      getEnv("ANOTA_AUTH_PROVIDER", "stub"),
		OAuthClientID:     getEnv("ANOTA_OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getEnv("ANOTA_OAUTH_CLIENT_SECRET", ""),
		OAuthRedirectURL:  getEnv("ANOTA_OAUTH_REDIRECT_URL", "http://localhost:8798/oauth2/callback"),

		GeminiAPIKey: getEnv("ANOTA_GEMINI_API_KEY", ""),
		ModelName:    getEnv("ANOTA_MODEL_NAME", "gemini-2.5-flash"),
		UseMockLLM:   getBoolEnv("ANOTA_USE_MOCK_LLM", os.Getenv("ANOTA_GEMINI_API_KEY") == ""),

		RedisURL: getEnv("ANOTA_REDIS_URL", ""),
	}

	// Minimal validation for the remote-backed setup
	if cfg.StorageBackend == "firestore" && cfg.GCPProjectID == "" {
		log.Fatal("ANOTA_GCP_PROJECT must be set when ANOTA_STORAGE_BACKEND=firestore")
	}
	if cfg.AuthProvider == "google" && cfg.OAuthClientID == "" {
		log.Fatal("ANOTA_OAUTH_CLIENT_ID must be set when ANOTA_AUTH_PROVIDER=google")
	}

	return cfg
}

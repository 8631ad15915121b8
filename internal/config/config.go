// Package config loads process configuration from the environment, in the
// teacher's style of reading everything once at startup with os.Getenv
// rather than a config-file/flag framework.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every environment-derived setting the server needs.
type Config struct {
	// LLMAPIKey authenticates outbound chat-completion calls. Spec.md calls
	// this LOVABLE_API_KEY; empty means the orchestrator always falls back.
	LLMAPIKey string
	LLMBaseURL string

	// StorageURL/StorageServiceKey/StorageAnonKey name the durable
	// collaborator's credentials (spec.md's SUPABASE_* trio). This build
	// uses modernc.org/sqlite as the concrete collaborator, addressed by
	// SQLitePath instead of a URL, but the env var names are kept so an
	// operator migrating from the original collaborator recognises them.
	StorageURL        string
	StorageServiceKey string
	StorageAnonKey    string
	SQLitePath        string

	LogAllTranslations      bool
	RunQueryValidationChecks bool

	HTTPAddr    string
	CORSOrigin  string

	LLMTimeout time.Duration
}

// Load reads every field from the environment, applying the defaults the
// spec calls out where a variable is unset.
func Load() Config {
	return Config{
		LLMAPIKey:  os.Getenv("LOVABLE_API_KEY"),
		LLMBaseURL: envOr("LLM_BASE_URL", "https://api.openai.com"),

		StorageURL:        os.Getenv("SUPABASE_URL"),
		StorageServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		StorageAnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		SQLitePath:        envOr("TRANSLATOR_SQLITE_PATH", "translator.db"),

		LogAllTranslations:       envBool("LOG_ALL_TRANSLATIONS", false),
		RunQueryValidationChecks: envBool("RUN_QUERY_VALIDATION_CHECKS", false),

		HTTPAddr:   envOr("TRANSLATOR_HTTP_ADDR", ":8080"),
		CORSOrigin: envOr("TRANSLATOR_CORS_ORIGIN", "*"),

		LLMTimeout: 15 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

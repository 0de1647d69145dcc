package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the runtime configuration for the ArctiCalls backend
type Config struct {
	// Server settings
	HTTPPort int
	DataDir  string
	SiteURL  string // deployed site origin, allowed at the credential endpoint
	BaseURL  string // public URL Twilio uses to reach the webhooks

	// Extra origins allowed at the credential endpoint, beyond SiteURL
	// and local development hosts
	AllowedOrigins []string

	// Twilio credentials
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioAPIKeySID    string
	TwilioAPIKeySecret string
	TwilioAppSID       string // TwiML application for the voice grant

	// Call routing
	AccountNumber string // the number owned by this account, used as caller ID
	ForwardNumber string // optional parallel-ring / click-to-dial leg

	// API auth
	JWTSecret         string
	AdminEmail        string
	AdminPasswordHash string // bcrypt

	DebugMode bool
}

// Load creates a Config from environment variables with defaults
func Load() *Config {
	return &Config{
		HTTPPort: getEnvInt("ARCTICALLS_HTTP_PORT", DefaultHTTPPort),
		DataDir:  getEnv("ARCTICALLS_DATA_DIR", DefaultDataDir),
		SiteURL:  getEnv("SITE_URL", ""),
		BaseURL:  getEnv("ARCTICALLS_BASE_URL", ""),

		AllowedOrigins: getEnvStringSlice("ARCTICALLS_ALLOWED_ORIGINS", nil),

		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioAPIKeySID:    getEnv("TWILIO_API_KEY_SID", ""),
		TwilioAPIKeySecret: getEnv("TWILIO_API_KEY_SECRET", ""),
		TwilioAppSID:       getEnv("TWILIO_TWIML_APP_SID", ""),

		AccountNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		ForwardNumber: getEnv("ARCTICALLS_FORWARD_NUMBER", ""),

		JWTSecret:         getEnv("ARCTICALLS_JWT_SECRET", ""),
		AdminEmail:        getEnv("ARCTICALLS_ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnv("ARCTICALLS_ADMIN_PASSWORD_HASH", ""),

		DebugMode: getEnvBool("ARCTICALLS_DEBUG", false),
	}
}

// DBPath returns the full path to the SQLite database file
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DefaultDBFile)
}

// EnsureDirectories creates the data directory
func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// Helper functions for environment variable parsing
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

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

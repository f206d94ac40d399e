package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultMaxUploadBytes = 10 * 1024 * 1024
	// maxUploadBytesLimit keeps request body limits derived from
	// MaxUploadBytes well inside int64.
	maxUploadBytesLimit   = 1 << 30
)

type Config struct {
	ListenAddr     string
	DBPath         string
	StoragePath    string
	StaticDir      string
	MaxUploadBytes int64
	CORSOrigins    []string

	AdminPasswordHash string
	AdminTokenSecret  string
	AdminTokenTTL     time.Duration

	VisionBackend string
	ClaudeAPIKey  string
	ClaudeModel   string
	OllamaHost    string
	OllamaModel   string

	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment. A .env file in the working
// directory, if present, fills in variables that are not already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", "/data/vault.db"),
		StoragePath:       getEnv("STORAGE_PATH", "/data/images"),
		StaticDir:         getEnv("STATIC_DIR", ""),
		MaxUploadBytes:    min(getEnvInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes), maxUploadBytesLimit),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminTokenSecret:  getEnv("ADMIN_TOKEN_SECRET", ""),
		AdminTokenTTL:     getEnvDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		VisionBackend:     getEnv("VISION_BACKEND", ""),
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-3-5-sonnet-20241022"),
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llava"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", ""),
	}
}

// AuthEnabled reports whether admin routes require a token.
func (c *Config) AuthEnabled() bool {
	return c.AdminPasswordHash != ""
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

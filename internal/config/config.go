package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Question source backends.
const (
	SourceXLSX     = "xlsx"
	SourceGSheet   = "gsheet"
	SourcePostgres = "postgres"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Level is one entry of the fixed training progression.
type Level struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// InternalAPIKey is the shared secret expected in the x-api-key header.
	// When InternalAPIKeyHash is set it takes precedence and the key is
	// checked against the bcrypt hash instead.
	InternalAPIKey     string
	InternalAPIKeyHash string
	BcryptCost         int

	Levels []Level

	QuestionSource string
	XLSXPath       string
	SpreadsheetID  string
	SheetsBaseURL  string
	SheetGIDs      map[string]string
	SourceTimeout  time.Duration
	RowCacheTTL    time.Duration

	DatabaseURL string
	MaxDBConns  int32
	RedisURL    string

	SessionStore     string
	SessionTTL       time.Duration
	AnswerLogEnabled bool

	RateLimitPerMinute int
	// AllowedOrigins controls HTTP CORS.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string

	// Proxy variant.
	GASWebAppURL string
	GASAPIKey    string
	ProxyTimeout time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "pretty"),
		InternalAPIKey:     getEnv("INTERNAL_API_KEY", ""),
		InternalAPIKeyHash: getEnv("INTERNAL_API_KEY_HASH", ""),
		BcryptCost:         getEnvInt("BCRYPT_COST", 6),
		Levels:             ParseLevels(getEnv("LEVELS", "Beginner,Intermediate,Advanced")),
		QuestionSource:     strings.ToLower(getEnv("QUESTION_SOURCE", SourceXLSX)),
		XLSXPath:           getEnv("XLSX_PATH", "./data/questions.xlsx"),
		SpreadsheetID:      getEnv("SPREADSHEET_ID", ""),
		SheetsBaseURL:      getEnv("SHEETS_BASE_URL", "https://docs.google.com"),
		SheetGIDs:          ParseSheetGIDs(getEnv("SHEET_GIDS", "")),
		SourceTimeout:      time.Duration(getEnvInt("SOURCE_TIMEOUT_SECONDS", 15)) * time.Second,
		RowCacheTTL:        time.Duration(getEnvInt("ROW_CACHE_TTL_SECONDS", 300)) * time.Second,
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MaxDBConns:         int32(getEnvInt("MAX_DB_CONNS", 8)),
		RedisURL:           getEnv("REDIS_URL", ""),
		SessionStore:       strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
		SessionTTL:         time.Duration(getEnvInt("SESSION_TTL_MINUTES", 24*60)) * time.Minute,
		AnswerLogEnabled:   getEnvBool("ANSWER_LOG_ENABLED", false),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		AllowedOrigins:     parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		GASWebAppURL:       getEnv("GAS_WEB_APP_URL", ""),
		GASAPIKey:          getEnv("GAS_API_KEY", ""),
		ProxyTimeout:       time.Duration(getEnvInt("PROXY_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// ParseLevels parses the LEVELS value: a comma-separated list of "id" or
// "id:display name" items. Order is preserved; blanks and duplicate ids are
// dropped.
func ParseLevels(raw string) []Level {
	var levels []Level
	seen := make(map[string]bool)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, name, _ := strings.Cut(item, ":")
		id = strings.TrimSpace(id)
		name = strings.TrimSpace(name)
		if id == "" || seen[id] {
			continue
		}
		if name == "" {
			name = id
		}
		seen[id] = true
		levels = append(levels, Level{ID: id, Name: name})
	}
	return levels
}

// ParseSheetGIDs parses the SHEET_GIDS value: a comma-separated list of
// "level:gid" items. Returns nil when nothing usable is configured.
func ParseSheetGIDs(raw string) map[string]string {
	var gids map[string]string
	for _, item := range strings.Split(raw, ",") {
		level, gid, ok := strings.Cut(item, ":")
		level = strings.TrimSpace(level)
		gid = strings.TrimSpace(gid)
		if !ok || level == "" || gid == "" {
			continue
		}
		if gids == nil {
			gids = make(map[string]string)
		}
		gids[level] = gid
	}
	return gids
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
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

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

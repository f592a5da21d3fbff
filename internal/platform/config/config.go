package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration. Values are read once at
// startup and treated as immutable.
type Server struct {
	Addr           string
	JWTSigningKey  string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	// TemplateUsersPath points at the JSON template identity set. The
	// process refuses to start if it cannot be parsed.
	TemplateUsersPath string

	Redis    RedisConfig
	Database DatabaseConfig
	OpenAI   OpenAIConfig

	// Renewal and reminder policy knobs.
	ExpiryThreshold time.Duration
	ReminderWindow  time.Duration
	ProposalTTL     time.Duration
	SweepInterval   time.Duration
	ComposerTimeout time.Duration

	CORSAllowedOrigin string
}

// RedisConfig holds optional redis connection settings. An empty URL means
// redis is not configured and the in-memory proposal store is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds optional postgres settings. An empty URL means the
// in-memory notification store is used.
type DatabaseConfig struct {
	URL string
}

// OpenAIConfig configures the LLM-backed message composer. An empty APIKey
// switches the composer to deterministic template output.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:           getEnv("ABSHER_ADDR", ":8080"),
		JWTSigningKey:  getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:      getEnv("JWT_ISSUER", "absher-agent"),
		AccessTokenTTL: getDuration("ACCESS_TOKEN_TTL", time.Hour),

		TemplateUsersPath: getEnv("TEMPLATE_USERS_PATH", "users.json"),

		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},

		ExpiryThreshold: getDuration("EXPIRY_THRESHOLD", 3*24*time.Hour),
		ReminderWindow:  getDuration("REMINDER_WINDOW", 7*24*time.Hour),
		ProposalTTL:     getDuration("PROPOSAL_TTL", 5*time.Minute),
		SweepInterval:   getDuration("SWEEP_INTERVAL", 10*time.Minute),
		ComposerTimeout: getDuration("COMPOSER_TIMEOUT", 10*time.Second),

		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
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

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	//App
	Env string // dev / staging / prod
	//HTTP
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	StaticDir        string

	// Upstream auth service
	AuthAPIBaseURL  string
	AuthLoginPath   string
	UpstreamTimeout time.Duration

	// Sessions
	SessionTTL        time.Duration
	SessionCookieName string

	// Infrastructure (all optional; empty means in-process fallback)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	DBAddr         string
	DBDebug        bool
	RabbitURL      string
	RabbitExchange string

	// Directory
	DirectoryCacheTTL    time.Duration
	DirectoryCacheSize   int
	DirectoryMockLatency bool

	// Login rate limit
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Tracing
	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() (*Config, error) {
	// .env is optional; real environment wins
	_ = godotenv.Load()

	cfg := &Config{
		Env:               getEnv("ENV", "dev"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		StaticDir:         os.Getenv("STATIC_DIR"),
		AuthAPIBaseURL:    strings.TrimRight(getEnv("AUTH_API_BASE_URL", "http://localhost:8000"), "/"),
		AuthLoginPath:     getEnv("AUTH_LOGIN_PATH", "/api/auth/login"),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		DBAddr:            os.Getenv("DB_ADDR"),
		RabbitURL:         os.Getenv("RABBIT_URL"),
		RabbitExchange:    getEnv("RABBIT_EXCHANGE", "admin.events"),
		OTLPEndpoint:      os.Getenv("OTLP_ENDPOINT"),
	}

	if _, err := url.ParseRequestURI(cfg.AuthAPIBaseURL); err != nil {
		return nil, fmt.Errorf("invalid AUTH_API_BASE_URL %q: %w", cfg.AuthAPIBaseURL, err)
	}
	if !strings.HasPrefix(cfg.AuthLoginPath, "/") {
		return nil, fmt.Errorf("AUTH_LOGIN_PATH must start with `/`")
	}

	var err error
	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 8*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}
	if cfg.DirectoryCacheTTL, err = getDuration("DIRECTORY_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.LoginRateWindow, err = getDuration("LOGIN_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.DirectoryCacheSize, err = getInt("DIRECTORY_CACHE_SIZE", 1024); err != nil {
		return nil, err
	}
	if cfg.LoginRateLimit, err = getInt("LOGIN_RATE_LIMIT", 10); err != nil {
		return nil, err
	}

	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.DirectoryMockLatency, err = getBool("DIRECTORY_MOCK_LATENCY", false); err != nil {
		return nil, err
	}
	if cfg.TracingEnabled, err = getBool("TRACING_ENABLED", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SecureCookies is false only for local plain-HTTP development.
func (c *Config) SecureCookies() bool {
	return c.Env != "dev"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}

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
	DatabaseURL        string
	HTTPAddr           string
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration
	DefaultLanguage    string
	SupportedLanguages []string
	DropdownSource     string
	MigrationsPath     string
	AutoMigrate        bool
	DBMaxConns         int32
	DBMinConns         int32
	DBMaxConnIdleTime  time.Duration
	LogLevel           string
	Env                string
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional when variables come from the environment (Docker, CI, ...).
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		DefaultLanguage: strings.TrimSpace(os.Getenv("DEFAULT_LANGUAGE")),
		DropdownSource:  strings.ToLower(strings.TrimSpace(os.Getenv("DROPDOWN_SOURCE"))),
		MigrationsPath:  strings.TrimSpace(os.Getenv("MIGRATIONS_PATH")),
		LogLevel:        strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		Env:             strings.TrimSpace(os.Getenv("APP_ENV")),
	}

	var err error
	if cfg.CacheTTL, err = parseDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CacheSweepInterval, err = parseDuration("CACHE_SWEEP_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.DBMaxConnIdleTime, err = parseDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DBMaxConns, err = parseInt32("DB_MAX_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.DBMinConns, err = parseInt32("DB_MIN_CONNS", 1); err != nil {
		return nil, err
	}
	if cfg.AutoMigrate, err = parseBool("AUTO_MIGRATE", false); err != nil {
		return nil, err
	}
	cfg.SupportedLanguages = splitList(os.Getenv("SUPPORTED_LANGUAGES"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether human-readable logs are wanted.
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

// validate applies defaults and checks every rule on the loaded configuration.
func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		// Local default when DATABASE_URL is not provided.
		c.DatabaseURL = "postgres://localhost:5432/content?sslmode=disable"
	}

	parsed, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("config: invalid DATABASE_URL (%q): %w", c.DatabaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: invalid DATABASE_URL (%q): missing scheme or host", c.DatabaseURL)
	}

	if strings.TrimSpace(c.HTTPAddr) == "" {
		c.HTTPAddr = ":8003"
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("config: CACHE_TTL must be positive")
	}

	if c.DBMaxConns <= 0 {
		return fmt.Errorf("config: DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("config: DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}

	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
	if len(c.SupportedLanguages) == 0 {
		c.SupportedLanguages = []string{"en", "he", "ru"}
	}
	// Default language first: the language matcher treats index 0 as fallback.
	langs := []string{c.DefaultLanguage}
	for _, l := range c.SupportedLanguages {
		if l != c.DefaultLanguage {
			langs = append(langs, l)
		}
	}
	c.SupportedLanguages = langs

	switch c.DropdownSource {
	case "":
		c.DropdownSource = "relational"
	case "relational", "jsonb":
	default:
		return fmt.Errorf("config: DROPDOWN_SOURCE must be relational or jsonb, got %q", c.DropdownSource)
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	return nil
}

func parseDuration(name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s (%q): %w", name, raw, err)
	}
	return d, nil
}

func parseInt32(name string, def int32) (int32, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s (%q): %w", name, raw, err)
	}
	return int32(n), nil
}

func parseBool(name string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s (%q): %w", name, raw, err)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

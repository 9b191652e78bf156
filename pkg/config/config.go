// Package config reads the scraper's settings from the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port          string        `env:"PORT"`
	CacheTTL      time.Duration `env:"CACHE_TTL"`
	ScrapeTimeout time.Duration `env:"SCRAPE_TIMEOUT"`
	// UserAgent is empty unless set; the agent then picks a desktop browser one.
	UserAgent string `env:"USER_AGENT"`
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
	DebugMode bool   `env:"DEBUG_MODE"`

	// Rate limiting
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE"`
	ScrapeRateLimit    int `env:"SCRAPE_RATE_LIMIT"`

	// Security
	TrustedProxies string `env:"TRUSTED_PROXIES"`

	// Bookmeter
	Root            string `env:"BOOKMETER_ROOT"`
	CredentialsFile string `env:"BOOKMETER_CONFIG"`
	Mail            string `env:"BOOKMETER_MAIL"`
	Password        string `env:"BOOKMETER_PASSWORD"`
}

// Load reads an optional .env file from the working directory, then builds
// a Config from environment variables or defaults. Variables already set
// win over the .env file.
func Load() *Config {
	_ = loadDotEnv(".env")

	return &Config{
		Port:          getEnv("PORT", "8080"),
		CacheTTL:      getDurationEnv("CACHE_TTL", 6*time.Hour),
		ScrapeTimeout: getDurationEnv("SCRAPE_TIMEOUT", 30*time.Second),
		UserAgent:     getEnv("USER_AGENT", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		DebugMode:     getBoolEnv("DEBUG_MODE", false),

		// Scraping reaches a third-party site, so its budget is much lower.
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
		ScrapeRateLimit:    getIntEnv("SCRAPE_RATE_LIMIT", 10),

		TrustedProxies: getEnv("TRUSTED_PROXIES", "127.0.0.1,::1"),

		Root:            getEnv("BOOKMETER_ROOT", "https://bookmeter.com"),
		CredentialsFile: getEnv("BOOKMETER_CONFIG", "config.yml"),
		Mail:            getEnv("BOOKMETER_MAIL", ""),
		Password:        getEnv("BOOKMETER_PASSWORD", ""),
	}
}

// TrustedProxyList splits TrustedProxies on commas, dropping blanks.
func (c *Config) TrustedProxyList() []string {
	var proxies []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}

// loadDotEnv exports the variables of path that are not set yet. A missing
// file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// getEnv returns the variable key, or defaultValue when it is unset or empty.
func getEnv(key, defaultValue string) string {
	return parseEnv(key, defaultValue, func(v string) (string, error) { return v, nil })
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration)
}

func getIntEnv(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

func getBoolEnv(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, strconv.ParseBool)
}

// parseEnv falls back to defaultValue when key is unset or does not parse.
func parseEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

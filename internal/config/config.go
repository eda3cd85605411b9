package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/voyagen/regiontv/internal/models"
)

const (
	defaultBaseURL    = "https://i.mjh.nz/au"
	defaultServerPort = "8080"
	defaultUserAgent  = "RegionTV/1.0"
	defaultTimeout    = 30 * time.Second
	defaultRate       = 2.0
	defaultSQLitePath = "regiontv.db"
)

// Config holds application configuration.
type Config struct {
	BaseURL       string        `yaml:"base_url" env:"PLAYLIST_BASE_URL"`
	DefaultRegion models.Region `yaml:"default_region" env:"DEFAULT_REGION"`
	ServerPort    string        `yaml:"server_port" env:"SERVER_PORT"`
	UserAgent     string        `yaml:"user_agent" env:"FETCHER_USER_AGENT"`
	Timeout       time.Duration `yaml:"timeout" env:"FETCHER_TIMEOUT"`
	RateLimit     float64       `yaml:"rate_limit" env:"FETCHER_RATE"` // requests per second, 0 = unlimited
	DatabaseURL   string        `yaml:"database_url" env:"DATABASE_URL"`
	SQLitePath    string        `yaml:"sqlite_path" env:"SQLITE_PATH"`
	RedisURL      string        `yaml:"redis_url" env:"REDIS_URL"`
	RefreshCron   string        `yaml:"refresh_cron" env:"REFRESH_CRON"`
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat     string        `yaml:"log_format" env:"LOG_FORMAT"`
}

// Load builds config from environment variables, after filling unset
// variables from .env.local and .env. Every key is optional.
func Load() (*Config, error) {
	loadEnvFiles()
	c := &Config{
		BaseURL:       os.Getenv("PLAYLIST_BASE_URL"),
		DefaultRegion: models.Region(os.Getenv("DEFAULT_REGION")),
		ServerPort:    os.Getenv("SERVER_PORT"),
		UserAgent:     os.Getenv("FETCHER_USER_AGENT"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    os.Getenv("SQLITE_PATH"),
		RedisURL:      os.Getenv("REDIS_URL"),
		RefreshCron:   os.Getenv("REFRESH_CRON"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		LogFormat:     os.Getenv("LOG_FORMAT"),
	}
	if s := os.Getenv("FETCHER_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("FETCHER_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if s := os.Getenv("FETCHER_RATE"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("FETCHER_RATE: %w", err)
		}
		c.RateLimit = f
	} else {
		c.RateLimit = defaultRate
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

// finish applies defaults and validates.
func (c *Config) finish() error {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.ServerPort == "" {
		c.ServerPort = defaultServerPort
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.SQLitePath == "" {
		c.SQLitePath = defaultSQLitePath
	}
	if c.DefaultRegion == "" {
		c.DefaultRegion = models.DefaultRegion
	}
	region, err := models.ParseRegion(string(c.DefaultRegion))
	if err != nil {
		return fmt.Errorf("default region: %w", err)
	}
	c.DefaultRegion = region
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative: %v", c.RateLimit)
	}
	if c.RefreshCron != "" {
		if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
			return fmt.Errorf("refresh cron %q: %w", c.RefreshCron, err)
		}
	}
	return nil
}

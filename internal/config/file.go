package config

import (
	"fmt"
	"os"
	"time"

	"github.com/voyagen/regiontv/internal/models"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	BaseURL       string   `yaml:"base_url"`
	DefaultRegion string   `yaml:"default_region"`
	ServerPort    string   `yaml:"server_port"`
	UserAgent     string   `yaml:"user_agent"`
	Timeout       string   `yaml:"timeout"`
	RateLimit     *float64 `yaml:"rate_limit"`
	DatabaseURL   string   `yaml:"database_url"`
	SQLitePath    string   `yaml:"sqlite_path"`
	RedisURL      string   `yaml:"redis_url"`
	RefreshCron   string   `yaml:"refresh_cron"`
	LogLevel      string   `yaml:"log_level"`
	LogFormat     string   `yaml:"log_format"`
}

// LoadFromFile loads config from a YAML file. Unset keys get the same
// defaults as Load.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c := &Config{
		BaseURL:       f.BaseURL,
		DefaultRegion: models.Region(f.DefaultRegion),
		ServerPort:    f.ServerPort,
		UserAgent:     f.UserAgent,
		RateLimit:     defaultRate,
		DatabaseURL:   f.DatabaseURL,
		SQLitePath:    f.SQLitePath,
		RedisURL:      f.RedisURL,
		RefreshCron:   f.RefreshCron,
		LogLevel:      f.LogLevel,
		LogFormat:     f.LogFormat,
	}
	if f.RateLimit != nil {
		c.RateLimit = *f.RateLimit
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return nil, fmt.Errorf("timeout: %w", err)
		}
		c.Timeout = d
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

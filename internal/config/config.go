// Package config loads application configuration via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config wraps the viper instance backing all settings.
type Config struct {
	v *viper.Viper
}

// New loads configuration from config.yaml (searched in /etc/rulewatch,
// $HOME/.rulewatch, ./configs and the working directory) with
// RULEWATCH_ environment overrides. A missing file is not an error.
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/rulewatch/")
	v.AddConfigPath("$HOME/.rulewatch")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("RULEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper wraps an existing viper instance, mainly for tests.
func NewFromViper(v *viper.Viper) *Config {
	setDefaults(v)
	return &Config{v: v}
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.listen_address", "127.0.0.1:8080")
	v.SetDefault("server.default_query", "medicare medicaid")
	v.SetDefault("server.per_page", 30)

	// Upstream defaults
	v.SetDefault("fedreg.base_url", "https://www.federalregister.gov/api/v1")
	v.SetDefault("fedreg.timeout", "30s")
	v.SetDefault("fedreg.agency_id", 54)

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")

	// Store defaults
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.sqlite_path", "cache/app_state.db")
	v.SetDefault("store.postgres_dsn", "")

	// arXiv defaults
	v.SetDefault("arxiv.endpoint", "http://export.arxiv.org/api/query")
	v.SetDefault("arxiv.search_queries", []string{"cat:cs.LG", "cat:cs.CL"})
	v.SetDefault("arxiv.keywords", []string{"transformer", "healthcare", "reinforcement learning", "medical", "graph", "privacy"})
	v.SetDefault("arxiv.max_results", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

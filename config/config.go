package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Stores    StoresConfig
	Cache     CacheConfig
	Fetch     FetchConfig
	Lists     ListsConfig
	RateLimit RateLimitConfig
}

// StoresConfig holds the scraper gateway configuration. Each retailer is
// served under its own path off the base URL.
type StoresConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CacheConfig holds search-result cache configuration
type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// FetchConfig holds fetch-orchestrator configuration
type FetchConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	PerStoreTimeout time.Duration `mapstructure:"per_store_timeout"`
	MaxResults      int           `mapstructure:"max_results"`
}

// ListsConfig holds list-generator tuning
type ListsConfig struct {
	NamePool []string `mapstructure:"name_pool"`
	// CheapTierMultiplier and MidTierMultiplier bound the balanced strategy's
	// price tiers relative to the candidate pool's mean price.
	CheapTierMultiplier float64 `mapstructure:"cheap_tier_multiplier"`
	MidTierMultiplier   float64 `mapstructure:"mid_tier_multiplier"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP    int `mapstructure:"per_ip"`
	PerStore int `mapstructure:"per_store"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Populate the environment from a local .env file first so development
	// setups need no exported variables.
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/basketly/")

	// Environment variable settings
	v.SetEnvPrefix("BASKETLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})

	// Store scraper gateway defaults
	v.SetDefault("stores.base_url", "http://localhost:3000")

	// Cache defaults
	v.SetDefault("cache.ttl", "300s")
	v.SetDefault("cache.sweep_interval", "10m")

	// Fetch defaults
	v.SetDefault("fetch.concurrency", 8)
	v.SetDefault("fetch.per_store_timeout", "60s")
	v.SetDefault("fetch.max_results", 100)

	// List generator defaults
	v.SetDefault("lists.name_pool", []string{
		"Smart Saver", "Budget Basket", "Pantry Picks", "Weekly Haul",
		"Fresh Finds", "Thrifty Trolley", "Value Cart", "Corner Cupboard",
	})
	v.SetDefault("lists.cheap_tier_multiplier", 0.7)
	v.SetDefault("lists.mid_tier_multiplier", 1.3)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.per_store", 60)
}

// loadEnvFile loads KEY=value pairs from a .env file in the working
// directory into the process environment. Variables that are already set
// win. A missing file is not an error.
func loadEnvFile() error {
	data, err := os.ReadFile(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || os.Getenv(key) != "" {
			continue
		}
		os.Setenv(key, strings.TrimSpace(value))
	}
	return nil
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Stores.BaseURL == "" {
		return fmt.Errorf("stores base_url is required (set BASKETLY_STORES_BASE_URL)")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	if config.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch concurrency must be positive, got: %d", config.Fetch.Concurrency)
	}

	if config.Fetch.MaxResults <= 0 {
		return fmt.Errorf("fetch max_results must be positive, got: %d", config.Fetch.MaxResults)
	}

	if config.Lists.CheapTierMultiplier <= 0 || config.Lists.MidTierMultiplier <= config.Lists.CheapTierMultiplier {
		return fmt.Errorf("tier multipliers must satisfy 0 < cheap < mid, got: %.2f/%.2f",
			config.Lists.CheapTierMultiplier, config.Lists.MidTierMultiplier)
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config carries everything the driver runtime needs to start. The database
// and redis sections are optional: leaving their hosts empty disables the
// trip-history archive and the recent-search store respectively.
type Config struct {
	Backend struct {
		BaseURL string // HTTP command endpoint of the booking backend
		WSURL   string // WebSocket push endpoint
	}
	RabbitMQ struct {
		Host     string
		Port     int
		User     string
		Password string
	}
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string // YAML key: "database"
	}
	Redis struct {
		Addr string
	}
	Maps struct {
		APIKey   string `yaml:"api_key"`
		Language string
		Region   string
	}
	Driver struct {
		ID        string
		SecretKey string `yaml:"secret_key"`
	}
	Runtime struct {
		LocationIntervalMS int
		RouteDebounceMS    int
		SearchDebounceMS   int
		NearbyIntervalMS   int
		Demo               bool
	}
}

// LoadFromFile loads config from a YAML file, applies defaults, and validates
// required fields.
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := parseYAML(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:3001"
	}
	if cfg.Backend.WSURL == "" {
		cfg.Backend.WSURL = "ws://localhost:3001"
	}

	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	if cfg.Maps.Language == "" {
		cfg.Maps.Language = "en"
	}

	if cfg.Runtime.LocationIntervalMS == 0 {
		cfg.Runtime.LocationIntervalMS = 1000
	}
	if cfg.Runtime.RouteDebounceMS == 0 {
		cfg.Runtime.RouteDebounceMS = 1000
	}
	if cfg.Runtime.SearchDebounceMS == 0 {
		cfg.Runtime.SearchDebounceMS = 500
	}
	if cfg.Runtime.NearbyIntervalMS == 0 {
		cfg.Runtime.NearbyIntervalMS = 2000
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	if strings.TrimSpace(c.Driver.ID) == "" {
		problems = append(problems, "driver.id is required")
	}
	if strings.TrimSpace(c.Driver.SecretKey) == "" {
		problems = append(problems, "driver.secret_key is required")
	}

	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}

	// database is optional; when a host is set the rest must be complete
	if c.Database.Host != "" {
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			problems = append(problems, "database.port must be in 1..65535")
		}
		if c.Database.User == "" {
			problems = append(problems, "database.user is required")
		}
		if c.Database.Password == "" {
			problems = append(problems, "database.password is required")
		}
		if c.Database.Name == "" {
			problems = append(problems, "database.database is required")
		}
	}

	if c.Runtime.LocationIntervalMS < 0 || c.Runtime.RouteDebounceMS < 0 ||
		c.Runtime.SearchDebounceMS < 0 || c.Runtime.NearbyIntervalMS < 0 {
		problems = append(problems, "runtime intervals must not be negative")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ----- duration accessors -----

func (c *Config) LocationInterval() time.Duration {
	return time.Duration(c.Runtime.LocationIntervalMS) * time.Millisecond
}

func (c *Config) RouteDebounce() time.Duration {
	return time.Duration(c.Runtime.RouteDebounceMS) * time.Millisecond
}

func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.Runtime.SearchDebounceMS) * time.Millisecond
}

func (c *Config) NearbyInterval() time.Duration {
	return time.Duration(c.Runtime.NearbyIntervalMS) * time.Millisecond
}

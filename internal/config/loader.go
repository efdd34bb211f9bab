package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

// DefaultConfigPaths defines the default locations to search for configuration files
var DefaultConfigPaths = []string{
	"./config.yaml",
	"./config.yml",
	"./configs/config.yaml",
	"./configs/config.yml",
	"./configs/development.yaml",
	"/etc/multioauth/config.yaml",
	"/etc/multioauth/config.yml",
}

// Load loads the configuration from the specified file or default locations
func Load(configPath string) (*Config, error) {
	// Set default values
	config := &Config{
		Server: ServerConfig{
			Host:    "localhost",
			Port:    8080,
			BaseURL: "http://localhost:8080",
			NodeID:  1,
		},
		Store: StoreConfig{
			Driver: "redis",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Database: DatabaseConfig{
			Driver: "postgres",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "multioauth",
				User:     "postgres",
				SSLMode:  "disable",
			},
		},
		Session: SessionConfig{
			Lifetime: 168 * time.Hour,
		},
		Discovery: DiscoveryConfig{
			Timeout:  10 * time.Second,
			CacheTTL: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Environment: "local",
	}

	// If no config path is provided, search in default locations
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" && fileExists(configPath) {
		fmt.Printf("[CONFIG] Loading config from: %s\n", configPath)
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		fmt.Printf("[CONFIG] No config file found, using defaults\n")
	}

	applyEnvOverrides(config)

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides lets deployments set the most common values without a file
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("BASE_URL"); v != "" {
		config.Server.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.Store.Redis.Addr = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		config.Session.Secret = v
	}
}

// findConfigFile searches for a configuration file in default locations
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// validate performs basic validation on the configuration
func validate(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	u, err := url.Parse(config.Server.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server.base_url must be an absolute http(s) URL")
	}

	switch config.Store.Driver {
	case "memory":
	case "redis":
		if config.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", config.Store.Driver)
	}

	switch config.Database.Driver {
	case "memory":
	case "postgres":
		if config.Database.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if config.Database.Postgres.Database == "" {
			return fmt.Errorf("postgres database name is required")
		}
		if config.Database.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", config.Database.Driver)
	}

	if config.Session.Secret == "" {
		return fmt.Errorf("session.secret is required")
	}
	if config.Session.Lifetime <= 0 {
		return fmt.Errorf("session.lifetime must be positive")
	}

	return nil
}

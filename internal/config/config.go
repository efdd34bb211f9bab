package config

import (
	"fmt"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Store       StoreConfig     `yaml:"store"`
	Database    DatabaseConfig  `yaml:"database"`
	Session     SessionConfig   `yaml:"session"`
	Discovery   DiscoveryConfig `yaml:"discovery"`
	Logging     LoggingConfig   `yaml:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Environment string          `yaml:"environment" default:"local"` // local, dev, prod
}

// ServerConfig holds general server configuration
type ServerConfig struct {
	Host    string `yaml:"host" default:"localhost"`
	Port    int    `yaml:"port" default:"8080"`
	BaseURL string `yaml:"base_url"` // public URL prefix used to build callback URLs
	NodeID  int64  `yaml:"node_id" default:"1"`
}

// Addr returns the listen address
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig selects the key/value backend holding strategies and links
type StoreConfig struct {
	Driver    string      `yaml:"driver" default:"redis"` // redis, memory
	KeyPrefix string      `yaml:"key_prefix"`
	Redis     RedisConfig `yaml:"redis"`
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig holds the host user/group/settings database configuration
type DatabaseConfig struct {
	Driver   string         `yaml:"driver" default:"postgres"` // postgres, memory
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific configuration
type PostgresConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"5432"`
	Database string `yaml:"database" default:"multioauth"`
	User     string `yaml:"user" default:"postgres"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode" default:"disable"` // disable, require, verify-ca, verify-full
}

// SessionConfig holds cookie session and session token settings
type SessionConfig struct {
	Secret       string        `yaml:"secret"`      // cookie store authentication key
	SigningKey   string        `yaml:"signing_key"` // session JWT key, falls back to Secret
	Lifetime     time.Duration `yaml:"lifetime" default:"168h"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

// JWTSigningKey returns the key used to sign session tokens
func (s *SessionConfig) JWTSigningKey() string {
	if s.SigningKey != "" {
		return s.SigningKey
	}
	return s.Secret
}

// DiscoveryConfig holds OpenID discovery client settings
type DiscoveryConfig struct {
	Timeout  time.Duration `yaml:"timeout" default:"10s"`
	CacheTTL time.Duration `yaml:"cache_ttl" default:"1h"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"text"` // text, json
	File   string `yaml:"file"`
}

// MetricsConfig holds prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

// ConnectionString returns the PostgreSQL connection string
func (p *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

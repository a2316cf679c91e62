package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix prefixes every environment override (e.g. PLSYNC_SERVER_PORT).
const EnvPrefix = "PLSYNC_"

// Undo store backends
const (
	UndoBackendMemory = "memory"
	UndoBackendSQLite = "sqlite"
	UndoBackendRedis  = "redis"
)

// Config represents the application configuration loaded from a TOML file and overridden by environment variables.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database" envPrefix:"DATABASE_"`
	Server      ServerConfig      `toml:"server" envPrefix:"SERVER_"`
	API         APIConfig         `toml:"api" envPrefix:"API_"`
	Undo        UndoConfig        `toml:"undo" envPrefix:"UNDO_"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify" envPrefix:"SPOTIFY_"`
}

// SpotifyConfig contains Spotify API credentials and the token saved by `plsync auth`.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id" env:"CLIENT_ID"`
	ClientSecret string    `toml:"client_secret" env:"CLIENT_SECRET"`
	RedirectURI  string    `toml:"redirect_uri" env:"REDIRECT_URI"`
	AccessToken  string    `toml:"access_token" env:"ACCESS_TOKEN"`
	RefreshToken string    `toml:"refresh_token" env:"REFRESH_TOKEN"`
	TokenExpiry  time.Time `toml:"token_expiry,omitempty"`
	Scope        string    `toml:"scope" env:"SCOPE"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"PATH"`
	MaxOpenConns int    `toml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                string `toml:"host" env:"HOST"`
	Port                int    `toml:"port" env:"PORT"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds" env:"READ_TIMEOUT_SECONDS"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds" env:"WRITE_TIMEOUT_SECONDS"`
	SecureCookies       bool   `toml:"secure_cookies" env:"SECURE_COOKIES"`
}

// APIConfig tunes the outbound Spotify client.
type APIConfig struct {
	BaseURL             string  `toml:"base_url" env:"BASE_URL"`
	RequestsPerSecond   float64 `toml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	MaxAttempts         int     `toml:"max_attempts" env:"MAX_ATTEMPTS"`
	DefaultRetryAfterMS int     `toml:"default_retry_after_ms" env:"DEFAULT_RETRY_AFTER_MS"`
	MaxPages            int     `toml:"max_pages" env:"MAX_PAGES"`
	TimeoutSeconds      int     `toml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

// UndoConfig selects and tunes the undo store backend.
type UndoConfig struct {
	Backend    string `toml:"backend" env:"BACKEND"`
	RedisURL   string `toml:"redis_url" env:"REDIS_URL"`
	Capacity   int    `toml:"capacity" env:"CAPACITY"`
	TTLSeconds int    `toml:"ttl_seconds" env:"TTL_SECONDS"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TTL returns the undo entry lifetime; zero means entries never expire.
func (u UndoConfig) TTL() time.Duration {
	if u.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(u.TTLSeconds) * time.Second
}

// Token returns the saved OAuth token, or nil when no access token has been stored.
func (s *SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.TokenExpiry,
	}
}

// Update stores the token fields, keeping the previous refresh token and scope when the new token omits them.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}
	s.AccessToken = token.AccessToken
	s.TokenExpiry = token.Expiry
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		s.Scope = scope
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Undo.Backend {
	case UndoBackendMemory, UndoBackendSQLite, UndoBackendRedis:
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnsupportedUndoStore, c.Undo.Backend)
	}
	if c.Undo.Backend == UndoBackendRedis && c.Undo.RedisURL == "" {
		return fmt.Errorf("%w: undo.redis_url is required for the redis backend", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.API.MaxAttempts <= 0 {
		return fmt.Errorf("%w: api.max_attempts must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides configuration values from PLSYNC_* environment variables.
//
// A nil environment reads the process environment.
func ApplyEnv(config *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ResolveConfig loads path when it exists (defaults otherwise), applies environment overrides, and validates the result.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnv(config, nil); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML. The file holds tokens, so it is created owner-readable only.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

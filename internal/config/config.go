package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Skill    SkillConfig    `yaml:"skill"`
	Verifier VerifierConfig `yaml:"verifier"`
	Cache    CacheConfig    `yaml:"cache"`
	Admin    AdminConfig    `yaml:"admin"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
}

// SkillConfig describes the skill endpoint and the upstream it forwards to
type SkillConfig struct {
	Path            string   `yaml:"path"`
	UpstreamURL     string   `yaml:"upstream_url"`
	UpstreamTimeout string   `yaml:"upstream_timeout"`
	ApplicationIDs  []string `yaml:"application_ids"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
}

// VerifierConfig contains request authentication settings
type VerifierConfig struct {
	TimestampTolerance int    `yaml:"timestamp_tolerance"`
	AuthorityDomain    string `yaml:"authority_domain"`
	FetchTimeout       string `yaml:"fetch_timeout"`
	// DisableSignature skips certificate and signature checks. Development only.
	DisableSignature bool `yaml:"disable_signature"`
}

// CacheConfig selects the certificate cache backend
type CacheConfig struct {
	Backend     string `yaml:"backend"`
	Dir         string `yaml:"dir"`
	LevelDBPath string `yaml:"leveldb_path"`
	SQLitePath  string `yaml:"sqlite_path"`
}

// AdminConfig contains admin configuration
type AdminConfig struct {
	Token      string `yaml:"token"`
	TokenHash  string `yaml:"token_hash"`
	TOTPSecret string `yaml:"totp_secret"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig toggles the /metrics endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Cache backends
const (
	BackendFile    = "file"
	BackendLevelDB = "leveldb"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// Default returns a configuration populated with defaults. Loaders decode on top of it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:   ":8080",
			ReadTimeout:  "15s",
			WriteTimeout: "15s",
		},
		Skill: SkillConfig{
			Path:            "/skill",
			UpstreamTimeout: "10s",
			MaxBodyBytes:    256 * 1024,
		},
		Verifier: VerifierConfig{
			TimestampTolerance: 150,
			AuthorityDomain:    "echo-api.amazon.com",
			FetchTimeout:       "10s",
		},
		Cache: CacheConfig{
			Backend:     BackendFile,
			Dir:         filepath.Join(os.TempDir(), "skillguard-certs"),
			LevelDBPath: "./data/certcache",
			SQLitePath:  "./data/certcache.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if _, err := time.ParseDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("server.read_timeout is invalid: %w", err)
	}
	if _, err := time.ParseDuration(c.Server.WriteTimeout); err != nil {
		return fmt.Errorf("server.write_timeout is invalid: %w", err)
	}

	// Skill validation
	if c.Skill.Path == "" || c.Skill.Path[0] != '/' {
		return fmt.Errorf("skill.path must start with '/'")
	}
	if c.Skill.UpstreamURL == "" {
		return fmt.Errorf("skill.upstream_url is required")
	}
	u, err := url.Parse(c.Skill.UpstreamURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("skill.upstream_url must be an absolute http(s) URL")
	}
	if _, err := time.ParseDuration(c.Skill.UpstreamTimeout); err != nil {
		return fmt.Errorf("skill.upstream_timeout is invalid: %w", err)
	}
	if c.Skill.MaxBodyBytes <= 0 {
		return fmt.Errorf("skill.max_body_bytes must be positive")
	}

	// Verifier validation
	if c.Verifier.TimestampTolerance < 0 {
		return fmt.Errorf("verifier.timestamp_tolerance must not be negative")
	}
	if c.Verifier.AuthorityDomain == "" {
		return fmt.Errorf("verifier.authority_domain is required")
	}
	if _, err := time.ParseDuration(c.Verifier.FetchTimeout); err != nil {
		return fmt.Errorf("verifier.fetch_timeout is invalid: %w", err)
	}
	if c.Verifier.DisableSignature {
		fmt.Fprintf(os.Stderr, "WARNING: Signature validation is disabled. Never run this in production!\n")
	}

	// Cache validation
	switch c.Cache.Backend {
	case BackendFile:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is required for the file backend")
		}
	case BackendLevelDB:
		if c.Cache.LevelDBPath == "" {
			return fmt.Errorf("cache.leveldb_path is required for the leveldb backend")
		}
	case BackendSQLite:
		if c.Cache.SQLitePath == "" {
			return fmt.Errorf("cache.sqlite_path is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("cache.backend must be one of: file, leveldb, sqlite, memory")
	}

	// Admin validation
	if c.Admin.Token != "" && c.Admin.TokenHash != "" {
		return fmt.Errorf("admin.token and admin.token_hash are mutually exclusive")
	}
	if c.Admin.TOTPSecret != "" && !c.AdminEnabled() {
		return fmt.Errorf("admin.totp_secret requires admin.token or admin.token_hash")
	}

	// Logging validation
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text'")
	}

	return nil
}

// AdminEnabled reports whether admin routes should be served
func (c *Config) AdminEnabled() bool {
	return c.Admin.Token != "" || c.Admin.TokenHash != ""
}

// GetReadTimeout returns the server read timeout as time.Duration
func (c *Config) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadTimeout)
	return d
}

// GetWriteTimeout returns the server write timeout as time.Duration
func (c *Config) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

// GetUpstreamTimeout returns the upstream request timeout as time.Duration
func (c *Config) GetUpstreamTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Skill.UpstreamTimeout)
	return d
}

// GetFetchTimeout returns the certificate fetch timeout as time.Duration
func (c *Config) GetFetchTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Verifier.FetchTimeout)
	return d
}

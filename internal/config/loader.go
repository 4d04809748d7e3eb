package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv loads configuration from a file and applies environment variable overrides
func LoadWithEnv(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration after env overrides: %w", err)
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if listenAddr := os.Getenv("SKILLGUARD_LISTEN_ADDR"); listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	if upstream := os.Getenv("SKILLGUARD_UPSTREAM_URL"); upstream != "" {
		cfg.Skill.UpstreamURL = upstream
	}

	if cacheDir := os.Getenv("SKILLGUARD_CACHE_DIR"); cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}

	if adminToken := os.Getenv("SKILLGUARD_ADMIN_TOKEN"); adminToken != "" {
		cfg.Admin.Token = adminToken
		cfg.Admin.TokenHash = ""
	}

	if level := os.Getenv("SKILLGUARD_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if disable := os.Getenv("SKILLGUARD_DISABLE_SIGNATURE"); disable != "" {
		b, err := strconv.ParseBool(disable)
		if err != nil {
			return fmt.Errorf("SKILLGUARD_DISABLE_SIGNATURE is invalid: %w", err)
		}
		cfg.Verifier.DisableSignature = b
	}

	return nil
}

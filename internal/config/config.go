package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/clborne/toolgate/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig         `toml:"server"`
	Auth     AuthConfig           `toml:"auth"`
	Registry RegistryConfig       `toml:"registry"`
	Logging  common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Name string `toml:"name"`
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// AuthConfig contains bearer-token verification settings.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// RegistryConfig contains tool registry settings.
type RegistryConfig struct {
	// MaxConcurrentResolves caps in-flight dynamic provider resolutions
	// per catalog request.
	MaxConcurrentResolves int `toml:"max_concurrent_resolves"`
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier
// files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies TOOLGATE_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("TOOLGATE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TOOLGATE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if secret := os.Getenv("TOOLGATE_JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if limit := os.Getenv("TOOLGATE_RESOLVE_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			config.Registry.MaxConcurrentResolves = n
		}
	}
	if level := os.Getenv("TOOLGATE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate reports configuration issues that prevent startup.
func (c *Config) Validate() []string {
	var issues []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Registry.MaxConcurrentResolves < 1 {
		issues = append(issues, fmt.Sprintf("registry.max_concurrent_resolves must be at least 1, got %d", c.Registry.MaxConcurrentResolves))
	}
	return issues
}

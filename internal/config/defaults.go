package config

import (
	"github.com/clborne/toolgate/internal/common"
)

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "toolgate",
			Host: "localhost",
			Port: 4270,
		},
		Auth: AuthConfig{},
		Registry: RegistryConfig{
			MaxConcurrentResolves: 8,
		},
		Logging: common.LoggingConfig{
			Level: "info",
		},
	}
}

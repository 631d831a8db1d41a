package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// File paths
	DBPath      string
	SourcesPath string

	// Server settings
	ServerHost string
	ServerPort int
	APIKey     string

	// Import settings
	ImportWorkers int

	// Log settings
	LogLevel zerolog.Level
}

// DefaultConfig returns an initial configuration with hardcoded defaults.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		DBPath:        DefaultDBPath,
		SourcesPath:   DefaultSourcesPath,
		ServerHost:    DefaultServerHost,
		ServerPort:    DefaultServerPort,
		APIKey:        GetEnvString("FEEDCORE_API_KEY", ""),
		ImportWorkers: DefaultImportWorkers,
		LogLevel:      logLevel,
	}
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

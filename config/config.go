// Package config loads the application configuration from a YAML file
// with sensible defaults for a local demo run. Secrets (API keys) stay
// out of the file; they come from the environment, optionally via a
// .env file loaded at startup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Model    Model    `yaml:"model"`
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr string `yaml:"addr"`
}

// Model selects the LLM behind every pipeline stage.
type Model struct {
	Name string `yaml:"name"`
}

// Database points at the demo database queried by the SQL executor.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Log configures the framework logger.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server:   Server{Addr: ":8080"},
		Model:    Model{Name: "deepseek-chat"},
		Database: Database{Driver: "sqlite3", DSN: "bi_demo.db"},
		Log:      Log{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults. A missing file
// is not an error: the defaults are returned so a fresh checkout runs
// without any configuration step.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

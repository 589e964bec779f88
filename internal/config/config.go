// Package config loads a node's configuration the way the original's
// config crate layers sources: a default file, a run-mode file, an
// optional local override, then environment variables take the final
// word.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Database holds the durable-store connection fields.
type Database struct {
	Host     string `yaml:"host" envconfig:"DATABASE_HOST"`
	Username string `yaml:"username" envconfig:"DATABASE_USERNAME"`
	Password string `yaml:"password" envconfig:"DATABASE_PASSWORD"`
	Name     string `yaml:"name" envconfig:"DATABASE_NAME"`
}

// Config holds a node's full configuration. Defaults live in
// config/default.yaml rather than struct tags, so the environment layer
// never silently overwrites a file-supplied value with a hardcoded default.
type Config struct {
	LocalAddr string   `yaml:"local_addr" envconfig:"LOCAL_ADDR"`
	LocalPort int      `yaml:"local_port" envconfig:"LOCAL_PORT"`
	LogLevel  string   `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Database  Database `yaml:"database"`
}

// DatabaseDSN synthesizes a connection string in the canonical form the
// cluster has always reported, independent of the backing driver actually
// in use underneath (the durable store is SQLite; the display form is
// retained for operational familiarity).
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s",
		c.Database.Username, c.Database.Password, c.Database.Host, c.Database.Name)
}

// Load layers configuration the way the original does: config/default.yaml,
// then a run-mode file (RUN_MODE, default "development"), then
// config/local.yaml if present, then APP_-prefixed environment variables.
// Each layer's zero values are left untouched, so only fields a later
// layer actually sets get overridden.
func Load(configDir string) (*Config, error) {
	var cfg Config

	runMode := os.Getenv("RUN_MODE")
	if runMode == "" {
		runMode = "development"
	}

	layers := []string{
		configDir + "/default.yaml",
		fmt.Sprintf("%s/%s.yaml", configDir, runMode),
		configDir + "/local.yaml",
	}

	for _, path := range layers {
		if err := mergeYAMLFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("loading config layer %s: %w", path, err)
		}
	}

	if err := envconfig.Process("app", &cfg); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	return &cfg, nil
}

// mergeYAMLFile decodes path into cfg, silently skipping a layer that does
// not exist — only config/default.yaml is required to be present in
// practice.
func mergeYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

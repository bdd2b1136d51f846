package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config is the CLI's YAML configuration file shape.
type config struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	Adapter  string `yaml:"adapter"`
}

func defaultCLIConfig() config {
	return config{
		URI:      "mongodb://localhost:27017",
		Database: "silt",
		Adapter:  "mongo",
	}
}

// loadConfig reads the YAML file at path, or returns defaults when no
// path is given.
func loadConfig(path string) (config, error) {
	cfg := defaultCLIConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// merge applies non-empty flag overrides on top of the file values.
func (c *config) merge(uri, database, adapter string) {
	if uri != "" {
		c.URI = uri
	}
	if database != "" {
		c.Database = database
	}
	if adapter != "" {
		c.Adapter = adapter
	}
}

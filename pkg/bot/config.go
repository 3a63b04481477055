// Copyright 2024-2026 Aiku AI

// Package bot holds yarrbot's configuration and startup wiring.
package bot

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/aiku/yarrbot/pkg/matrix"
)

//go:embed example-config.yaml
var ExampleConfig string

// Config is yarrbot's YAML configuration.
type Config struct {
	// HomeserverURL is the base URL of the Matrix homeserver.
	HomeserverURL string `yaml:"homeserver_url"`
	// Username is the localpart or full user ID of the bot account.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// ServerName optionally prefixes every relayed message's heading so
	// one bot can serve several media servers. Leave empty to disable.
	ServerName string `yaml:"server_name"`

	// ListenAddr is the webhook ingress listen address. Defaults to ":8080".
	ListenAddr string `yaml:"listen_addr"`
	// DatabasePath is the SQLite database file. Defaults to "yarrbot.db".
	DatabasePath string `yaml:"database_path"`

	SendQueueSize int    `yaml:"send_queue_size"`
	MaxOpenConns  int    `yaml:"max_open_conns"`
	LogLevel      string `yaml:"log_level"`

	logLevel zerolog.Level `yaml:"-"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// PostProcess validates required fields and fills in defaults.
func (c *Config) PostProcess() error {
	if c.HomeserverURL == "" {
		return fmt.Errorf("homeserver_url is required")
	}
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "yarrbot.db"
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = matrix.DefaultSendQueueSize
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	c.logLevel = level
	return nil
}

// Level returns the parsed log level. Only valid after PostProcess.
func (c *Config) Level() zerolog.Level {
	return c.logLevel
}

// LoadConfig reads and validates a config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.PostProcess(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Copyright 2024-2026 Aiku AI

package bot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
homeserver_url: https://matrix.example.com
username: yarrbot
password: hunter2
server_name: Home Media
listen_addr: :9000
database_path: /var/lib/yarrbot/yarrbot.db
send_queue_size: 64
max_open_conns: 4
log_level: debug
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.HomeserverURL != "https://matrix.example.com" || cfg.Username != "yarrbot" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.ServerName != "Home Media" || cfg.ListenAddr != ":9000" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.SendQueueSize != 64 || cfg.MaxOpenConns != 4 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Level() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", cfg.Level())
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
homeserver_url: https://matrix.example.com
username: yarrbot
password: hunter2
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "yarrbot.db" {
		t.Errorf("DatabasePath = %q, want yarrbot.db", cfg.DatabasePath)
	}
	if cfg.SendQueueSize != 32 || cfg.MaxOpenConns != 10 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Level() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", cfg.Level())
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		content string
	}{
		{"missing homeserver", "username: yarrbot\npassword: pw\n"},
		{"missing username", "homeserver_url: https://matrix.example.com\npassword: pw\n"},
		{"missing password", "homeserver_url: https://matrix.example.com\nusername: yarrbot\n"},
		{"bad log level", "homeserver_url: https://matrix.example.com\nusername: yarrbot\npassword: pw\nlog_level: loud\n"},
		{"not yaml", "{{{{"},
	}
	for _, tc := range cases {
		path := writeConfig(t, tc.content)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: LoadConfig accepted an invalid config", tc.name)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig accepted a missing file")
	}
}

func TestExampleConfigIsValidYAML(t *testing.T) {
	t.Parallel()
	var cfg Config
	if err := yaml.Unmarshal([]byte(ExampleConfig), &cfg); err != nil {
		t.Fatalf("example config does not parse: %v", err)
	}
	if err := cfg.PostProcess(); err != nil {
		t.Errorf("example config does not validate: %v", err)
	}
}

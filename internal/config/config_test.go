package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:           "8080",
		SQLiteDBPath:   "./data/tally.db",
		AMQPExchange:   "tally",
		AMQPQueue:      "tally_changes",
		RemoteBackend:  "memory",
		SyncAuthWait:   5 * time.Second,
		StatsCacheTTL:  30 * time.Second,
		StatsCacheSize: 128,
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %s", cfg.Port)
	}
	if cfg.RemoteBackend != "memory" {
		t.Errorf("RemoteBackend = %s", cfg.RemoteBackend)
	}
	if cfg.AMQPURL != "" {
		t.Errorf("AMQPURL should default empty, got %s", cfg.AMQPURL)
	}
	if cfg.SyncAuthWait != 5*time.Second {
		t.Errorf("SyncAuthWait = %v", cfg.SyncAuthWait)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REMOTE_BACKEND", "firestore")
	t.Setenv("FIRESTORE_PROJECT_ID", "tally-prod")
	t.Setenv("SYNC_AUTH_WAIT", "10s")

	cfg := Load()
	if cfg.Port != "9090" || cfg.RemoteBackend != "firestore" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.SyncAuthWait != 10*time.Second {
		t.Errorf("SyncAuthWait = %v", cfg.SyncAuthWait)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Port = "nope" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"bad backend", func(c *Config) { c.RemoteBackend = "dynamo" }, "invalid remote backend"},
		{"firestore without project", func(c *Config) { c.RemoteBackend = "firestore" }, "project ID is required"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "AMQP URL scheme"},
		{"amqp without queue", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPQueue = "" }, "queue name"},
		{"auth wait too short", func(c *Config) { c.SyncAuthWait = 100 * time.Millisecond }, "sync auth wait"},
		{"cache size", func(c *Config) { c.StatsCacheSize = 0 }, "stats cache size"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "bad"
	cfg.RemoteBackend = "dynamo"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "invalid port") || !strings.Contains(err.Error(), "remote backend") {
		t.Errorf("error should list every problem: %v", err)
	}
}

// Package config loads the server configuration from a YAML file, .env and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Editor  EditorConfig  `yaml:"editor"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend          string        `yaml:"backend"`
	FirestoreProject string        `yaml:"firestore_project"`
	Collection       string        `yaml:"collection"`
	FlushInterval    time.Duration `yaml:"flush_interval"`
}

// EditorConfig tunes editing sessions.
type EditorConfig struct {
	HistoryLimit     int           `yaml:"history_limit"`
	CommitDelay      time.Duration `yaml:"commit_delay"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Backend:       BackendMemory,
			Collection:    "documents",
			FlushInterval: 5 * time.Second,
		},
		Editor: EditorConfig{
			HistoryLimit:     100,
			CommitDelay:      time.Second,
			AutosaveInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			Color: true,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies .env and
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("EDITOR_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("EDITOR_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("FIRESTORE_PROJECT"); v != "" {
		c.Store.FirestoreProject = v
	}
	if v := os.Getenv("EDITOR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	c.Store.Backend = strings.ToLower(c.Store.Backend)
}

// Validate reports the first problem found in c.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendFirestore:
		if c.Store.FirestoreProject == "" {
			return errors.New("store.firestore_project is required for the firestore backend (set FIRESTORE_PROJECT)")
		}
		if c.Store.Collection == "" {
			return errors.New("store.collection is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Editor.HistoryLimit < 0 {
		return fmt.Errorf("editor.history_limit must not be negative, got %d", c.Editor.HistoryLimit)
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"store.flush_interval", c.Store.FlushInterval},
		{"editor.commit_delay", c.Editor.CommitDelay},
		{"editor.autosave_interval", c.Editor.AutosaveInterval},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.d)
		}
	}
	return nil
}

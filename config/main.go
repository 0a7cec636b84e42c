package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"nyiyui.ca/hato/senro/store"
)

const (
	DefaultDBPath     = "./senro.db"
	DefaultListenAddr = "127.0.0.1:8080"
)

type Config struct {
	DBPath         string   `json:"db-path"`
	ListenAddr     string   `json:"listen-addr"`
	AllowedOrigins []string `json:"allowed-origins"`
	// SyncPolicy is one of "always", "every-second", or "never".
	SyncPolicy string `json:"sync-policy"`
}

// Load reads a config from the JSON file at path and validates it.
// If path is empty, the default config is returned.
func Load(path string) (Config, error) {
	var c Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		err = json.Unmarshal(data, &c)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	err := Validate(&c)
	if err != nil {
		return Config{}, fmt.Errorf("validate: %w", err)
	}
	return c, nil
}

// Validate checks c and fills in defaults.
func Validate(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.SyncPolicy == "" {
		c.SyncPolicy = "every-second"
	}
	if _, err := store.ParseSyncPolicy(c.SyncPolicy); err != nil {
		return err
	}
	for i, origin := range c.AllowedOrigins {
		if origin == "" {
			return fmt.Errorf("allowed-origins[%d] is empty", i)
		}
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultAPIURL = "http://localhost:8080"

// Config is the persisted CLI state in ~/.auractl.yaml.
type Config struct {
	APIURL    string `yaml:"api_url"`
	PublicURL string `yaml:"public_url,omitempty"`
	CartDir   string `yaml:"cart_dir,omitempty"`
	Email     string `yaml:"email,omitempty"`
	Token     string `yaml:"token,omitempty"`
	Session   string `yaml:"session,omitempty"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".auractl.yaml"
	}
	return filepath.Join(home, ".auractl.yaml")
}

func defaultCartDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".auractl", "cart")
	}
	return filepath.Join(home, ".auractl", "cart")
}

// loadConfig reads path. A missing file yields an empty config; callers
// apply flag overrides and then withDefaults.
func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// saveConfig writes cfg with owner-only permissions; it holds tokens.
func saveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func (c Config) withDefaults() Config {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	c.PublicURL = strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	if c.PublicURL == "" {
		c.PublicURL = c.APIURL
	}
	if c.CartDir == "" {
		c.CartDir = defaultCartDir()
	}
	return c
}

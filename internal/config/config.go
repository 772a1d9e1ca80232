// Package config resolves server settings from three layers: compiled
// defaults, an optional YAML file, and environment variables, in that order
// of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server binary needs at startup.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":3000".
	Addr string `yaml:"addr"`

	// StaticDir, when set, is served at / for the bundled UI.
	StaticDir string `yaml:"static_dir"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig enables the cross-instance relay when Addr is non-empty.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// Default returns the compiled-in settings.
func Default() Config {
	return Config{
		Addr: ":3000",
		Redis: RedisConfig{
			Channel: "watchroom-relay",
		},
	}
}

// Load resolves the effective configuration. path may be empty, in which
// case only defaults and the environment apply; a named file that does not
// exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	return sanitize(cfg), nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		cfg.StaticDir = dir
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if channel := os.Getenv("REDIS_CHANNEL"); channel != "" {
		cfg.Redis.Channel = channel
	}
}

func sanitize(cfg Config) Config {
	if cfg.Addr == "" {
		cfg.Addr = Default().Addr
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = Default().Redis.Channel
	}
	return cfg
}

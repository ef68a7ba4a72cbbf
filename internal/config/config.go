package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Game struct {
		MaxPoints      int  `yaml:"max_points"`
		MinPoints      int  `yaml:"min_points"`
		AllowLateJoin  bool `yaml:"allow_late_join"`
		EnablePowerups bool `yaml:"enable_powerups"`
	} `yaml:"game"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// GameOptions maps the game section onto session options.
func (c Config) GameOptions() domain.Options {
	return domain.Options{
		AllowLateJoin:  c.Game.AllowLateJoin,
		EnablePowerups: c.Game.EnablePowerups,
		MaxPoints:      c.Game.MaxPoints,
		MinPoints:      c.Game.MinPoints,
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

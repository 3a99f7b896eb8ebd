package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-game-service/internal/task"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Game struct {
		LobbyDelay    string  `yaml:"lobbyDelay"`
		AverageWPM    float64 `yaml:"averageWPM"`
		CharReadingMs int     `yaml:"charReadingMs"`
		ReadingCapMs  int     `yaml:"readingCapMs"`
		MaxRetries    uint64  `yaml:"maxRetries"`
	} `yaml:"game"`
}

// Load reads YAML config from path. A missing file yields the zero config, so the service
// can run on defaults and flags alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
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

// Timing returns the transition timing with unset values taken from the defaults.
func (c Config) Timing() task.Timing {
	timing := task.DefaultTiming()
	timing.LobbyDelay = TTLDuration(c.Game.LobbyDelay, timing.LobbyDelay)
	if c.Game.AverageWPM > 0 {
		timing.AverageWPM = c.Game.AverageWPM
	}
	if c.Game.CharReadingMs > 0 {
		timing.CharReading = time.Duration(c.Game.CharReadingMs) * time.Millisecond
	}
	if c.Game.ReadingCapMs > 0 {
		timing.ReadingCap = time.Duration(c.Game.ReadingCapMs) * time.Millisecond
	}
	return timing
}

// MaxRetries is the number of retries of a conflicting game update.
func (c Config) MaxRetries() uint64 {
	if c.Game.MaxRetries == 0 {
		return 5
	}
	return c.Game.MaxRetries
}

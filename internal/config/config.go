package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"ainaru/internal/database"
	"ainaru/internal/timeslot"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	BusinessHours struct {
		Open        string `yaml:"open"`  // "10:00"
		Close       string `yaml:"close"` // "26:00" = 02:00 next day
		SlotMinutes int    `yaml:"slot_minutes"`
	} `yaml:"business_hours"`

	Booking struct {
		CancelCutoffHours int `yaml:"cancel_cutoff_hours"`
	} `yaml:"booking"`

	Backup database.BackupConfig `yaml:"backup"`

	Session struct {
		TTLMinutes int `yaml:"ttl_minutes"`
	} `yaml:"session"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Managers []int64 `yaml:"managers"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/ainaru.db"
	}
	if cfg.BusinessHours.Open == "" {
		cfg.BusinessHours.Open = "10:00"
	}
	if cfg.BusinessHours.Close == "" {
		cfg.BusinessHours.Close = "26:00"
	}
	if cfg.BusinessHours.SlotMinutes == 0 {
		cfg.BusinessHours.SlotMinutes = 15
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Hours builds the operating window from config.
func (c *Config) Hours() (timeslot.BusinessHours, error) {
	return timeslot.ParseBusinessHours(
		c.BusinessHours.Open, c.BusinessHours.Close, c.BusinessHours.SlotMinutes)
}

// CancelCutoff returns the cancellation cutoff, defaulting to 24 hours.
func (c *Config) CancelCutoff() time.Duration {
	if c.Booking.CancelCutoffHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Booking.CancelCutoffHours) * time.Hour
}

// SessionTTL returns the bot session lifetime, defaulting to 30 minutes.
func (c *Config) SessionTTL() time.Duration {
	if c.Session.TTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// Package config loads process configuration from the environment (with an
// optional .env file) and tunable behavior from a YAML settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vthunder/taskly/internal/gesture"
	"github.com/vthunder/taskly/internal/logging"
	"github.com/vthunder/taskly/internal/reminder"
)

// Config is everything cmd/taskly needs to start.
type Config struct {
	StatePath    string
	Store        string
	SettingsPath string
	UserEmail    string
	Timezone     *time.Location

	DiscordToken   string
	DiscordChannel string

	Settings Settings
}

// Settings is the YAML settings file.
type Settings struct {
	Gesture  gesture.Config  `yaml:"gesture"`
	Reminder ReminderConfig  `yaml:"reminder"`
	Archive  ArchiveSettings `yaml:"archive"`
	Panel    PanelSettings   `yaml:"panel"`
}

type ReminderConfig struct {
	Presets []int `yaml:"presets"`
}

type ArchiveSettings struct {
	// Retention is how long archived tasks are kept; 0 keeps them forever.
	Retention time.Duration `yaml:"retention"`
	// PurgeInterval is how often the retention sweep runs.
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

type PanelSettings struct {
	Size int `yaml:"size"`
}

func DefaultSettings() Settings {
	return Settings{
		Gesture:  gesture.DefaultConfig(),
		Reminder: ReminderConfig{Presets: append([]int(nil), reminder.DefaultPresets...)},
		Archive: ArchiveSettings{
			Retention:     30 * 24 * time.Hour,
			PurgeInterval: time.Hour,
		},
		Panel: PanelSettings{Size: 50},
	}
}

// Load reads .env (if present), the environment, and the settings file.
func Load() (*Config, error) {
	// Load .env file (optional - won't error if missing)
	if err := godotenv.Load(); err != nil {
		logging.Debug("config", "No .env file found, using environment variables")
	} else {
		logging.Info("config", "Loaded .env file")
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		StatePath:      os.Getenv("STATE_PATH"),
		Store:          os.Getenv("TASKLY_STORE"),
		SettingsPath:   os.Getenv("TASKLY_SETTINGS"),
		UserEmail:      os.Getenv("TASKLY_USER_EMAIL"),
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordChannel: os.Getenv("DISCORD_CHANNEL_ID"),
		Timezone:       time.Local,
	}
	if cfg.StatePath == "" {
		cfg.StatePath = "state"
	}
	if cfg.Store == "" {
		cfg.Store = "file"
	}
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = filepath.Join(cfg.StatePath, "settings.yaml")
	}
	if tz := os.Getenv("TASKLY_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TASKLY_TIMEZONE %q: %w", tz, err)
		}
		cfg.Timezone = loc
	}

	settings, err := LoadSettings(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}
	cfg.Settings = settings
	return cfg, nil
}

// LoadSettings reads path over the defaults. A missing file yields defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if len(settings.Reminder.Presets) == 0 {
		settings.Reminder.Presets = append([]int(nil), reminder.DefaultPresets...)
	}
	return settings, nil
}

// SaveSettings writes settings as YAML, creating the directory if needed.
func SaveSettings(path string, settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

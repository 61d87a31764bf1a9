package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s.Gesture.CommitThreshold != 80 || s.Gesture.Clamp != 120 {
		t.Errorf("unexpected gesture defaults: %+v", s.Gesture)
	}
	if s.Gesture.CommitDelay != 300*time.Millisecond {
		t.Errorf("unexpected commit delay: %v", s.Gesture.CommitDelay)
	}
	if len(s.Reminder.Presets) != 3 {
		t.Errorf("unexpected presets: %v", s.Reminder.Presets)
	}
	if s.Archive.Retention != 720*time.Hour {
		t.Errorf("unexpected retention: %v", s.Archive.Retention)
	}
}

func TestLoadSettings_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	yamlData := `
gesture:
  commit_threshold: 100
  commit_delay: 150ms
reminder:
  presets: [15, 60]
archive:
  retention: 0s
`
	if err := os.WriteFile(path, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s.Gesture.CommitThreshold != 100 {
		t.Errorf("Expected threshold 100, got %v", s.Gesture.CommitThreshold)
	}
	if s.Gesture.Clamp != 120 {
		t.Errorf("Expected untouched clamp 120, got %v", s.Gesture.Clamp)
	}
	if s.Gesture.CommitDelay != 150*time.Millisecond {
		t.Errorf("Expected 150ms delay, got %v", s.Gesture.CommitDelay)
	}
	if len(s.Reminder.Presets) != 2 || s.Reminder.Presets[1] != 60 {
		t.Errorf("unexpected presets: %v", s.Reminder.Presets)
	}
	if s.Archive.Retention != 0 {
		t.Errorf("Expected retention disabled, got %v", s.Archive.Retention)
	}
}

func TestLoadSettings_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	os.WriteFile(path, []byte("gesture: [unclosed"), 0644)
	if _, err := LoadSettings(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	s := DefaultSettings()
	s.Panel.Size = 7
	if err := SaveSettings(path, s); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got.Panel.Size != 7 {
		t.Errorf("Expected panel size 7, got %d", got.Panel.Size)
	}
}

func TestFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STATE_PATH", dir)
	t.Setenv("TASKLY_STORE", "sqlite")
	t.Setenv("TASKLY_SETTINGS", "")
	t.Setenv("TASKLY_TIMEZONE", "UTC")
	t.Setenv("TASKLY_USER_EMAIL", "me@example.com")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.StatePath != dir || cfg.Store != "sqlite" || cfg.UserEmail != "me@example.com" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.SettingsPath != filepath.Join(dir, "settings.yaml") {
		t.Errorf("unexpected settings path: %s", cfg.SettingsPath)
	}
	if cfg.Timezone != time.UTC {
		t.Errorf("Expected UTC, got %v", cfg.Timezone)
	}

	t.Setenv("TASKLY_TIMEZONE", "Mars/Olympus")
	if _, err := FromEnv(); err == nil {
		t.Error("Expected error for unknown timezone")
	}
}

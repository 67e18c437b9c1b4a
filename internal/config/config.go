// Package config owns tool settings and preset file discovery. Settings
// (logging, defaults for the start command) come from viper with a VDE_ env
// override prefix. Preset documents are deliberately NOT read through viper:
// viper lowercases mapping keys, which would corrupt camelCase preset keys
// like closeOnError, so preset files are parsed with yaml.v3 directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yuki-yano/vde-layout/internal/logging"
)

// Settings is the tool configuration persisted in config.yaml.
type Settings struct {
	Logging LoggingSettings `mapstructure:"logging"`
	Start   StartSettings   `mapstructure:"start"`
	UI      UISettings      `mapstructure:"ui"`
}

// LoggingSettings controls the structured log sink.
type LoggingSettings struct {
	// Enabled controls whether the logger writes anywhere at all.
	Enabled bool `mapstructure:"enabled"`
	// Level is one of "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// File is the log destination path. Empty logs to stderr.
	File string `mapstructure:"file"`
}

// StartSettings supplies defaults for the start command.
type StartSettings struct {
	// CurrentWindow applies layouts into the attached window instead of a
	// new one.
	CurrentWindow bool `mapstructure:"current_window"`
	// WindowName names created windows. Empty falls back to the preset name.
	WindowName string `mapstructure:"window_name"`
	// ConfirmClose asks before killing existing panes in current-window mode.
	ConfirmClose bool `mapstructure:"confirm_close"`
}

// UISettings controls terminal output rendering.
type UISettings struct {
	// NoColor disables lipgloss styling in preview and list output.
	NoColor bool `mapstructure:"no_color"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Logging: LoggingSettings{
			Enabled: false,
			Level:   "info",
			File:    "",
		},
		Start: StartSettings{
			CurrentWindow: false,
			WindowName:    "",
			ConfirmClose:  true,
		},
		UI: UISettings{
			NoColor: false,
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)

	viper.SetDefault("start.current_window", defaults.Start.CurrentWindow)
	viper.SetDefault("start.window_name", defaults.Start.WindowName)
	viper.SetDefault("start.confirm_close", defaults.Start.ConfirmClose)

	viper.SetDefault("ui.no_color", defaults.UI.NoColor)
}

// Load reads the configuration from viper and validates it.
func Load() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Get returns the current settings, falling back to defaults when loading
// fails.
func Get() *Settings {
	s, err := Load()
	if err != nil {
		return Default()
	}
	return s
}

// Validate checks value ranges. Unknown keys are tolerated.
func (s *Settings) Validate() error {
	level := strings.ToUpper(s.Logging.Level)
	for _, valid := range logging.ValidLevels() {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("logging.level: %q is not one of %s",
		s.Logging.Level, strings.Join(logging.ValidLevels(), ", "))
}

// ConfigDir returns the user configuration directory, honoring
// XDG_CONFIG_HOME.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vde")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vde"
	}
	return filepath.Join(home, ".config", "vde")
}

// ConfigFile returns the settings file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

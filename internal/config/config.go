// Package config provides configuration management for viewnav applications
// using Viper for flexible configuration loading from files, environment
// variables, and command-line flags.
//
// The configuration mirrors the declarative surface of an application:
// its name and version, the start path used for empty navigations, the
// router adapter kind, where views come from, whether the start animation
// runs, and debug mode. Values that cannot be expressed in a file, such as
// loader functions, are supplied to app.New as options instead.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Router kinds understood by router.ForKind.
const (
	RouterMemory = "memory"
	RouterFile   = "file"
	RouterSocket = "socket"
)

type Config struct {
	Name      string        `yaml:"name" mapstructure:"name" validate:"required"`
	Version   string        `yaml:"version" mapstructure:"version"`
	Start     string        `yaml:"start" mapstructure:"start" validate:"required,startswith=/"`
	Router    RouterConfig  `yaml:"router" mapstructure:"router"`
	Views     ViewsConfig   `yaml:"views" mapstructure:"views"`
	Animation *bool         `yaml:"animation,omitempty" mapstructure:"animation"`
	Debug     bool          `yaml:"debug" mapstructure:"debug"`
	Log       LogConfig     `yaml:"log" mapstructure:"log"`
	Metrics   MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Server    ServerConfig  `yaml:"server" mapstructure:"server"`
	Locale    LocaleConfig  `yaml:"locale" mapstructure:"locale"`
	// Theme names the body class "theme-<name>"; empty installs no theme.
	Theme string `yaml:"theme,omitempty" mapstructure:"theme"`
}

type RouterConfig struct {
	Kind      string `yaml:"kind" mapstructure:"kind" validate:"oneof=memory file socket"`
	StateFile string `yaml:"state_file" mapstructure:"state_file"`
}

type ViewsConfig struct {
	// Module is the identifier prefix used for module-style view lookup.
	Module string `yaml:"module" mapstructure:"module" validate:"required"`
	// Descriptors optionally names a YAML file of page descriptors that
	// becomes the static view mapping.
	Descriptors string `yaml:"descriptors" mapstructure:"descriptors"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=text json"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
}

type LocaleConfig struct {
	Lang string `yaml:"lang" mapstructure:"lang"`
	Path string `yaml:"path" mapstructure:"path"`
}

// AnimationEnabled reports whether the start animation runs. Animation is on
// unless explicitly disabled.
func (c *Config) AnimationEnabled() bool {
	return c.Animation == nil || *c.Animation
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(config *Config) {
	if config.Name == "" {
		config.Name = "App"
	}
	if config.Version == "" {
		config.Version = "1.0"
	}
	if config.Start == "" {
		config.Start = "/home"
	}
	if config.Router.Kind == "" {
		config.Router.Kind = RouterMemory
	}
	if config.Router.Kind == RouterFile && config.Router.StateFile == "" {
		config.Router.StateFile = ".viewnav/route"
	}
	if config.Views.Module == "" {
		config.Views.Module = "views"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Locale.Lang == "" {
		config.Locale.Lang = "en"
	}
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle values set via viper (workaround for viper bool handling)
	if viper.IsSet("animation") {
		animation := viper.GetBool("animation")
		config.Animation = &animation
	}
	if viper.IsSet("debug") {
		config.Debug = viper.GetBool("debug")
	}
	if viper.IsSet("log-level") && !viper.IsSet("log.level") {
		config.Log.Level = viper.GetString("log-level")
	}

	applyDefaults(&config)

	// Validate configuration values
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return err
	}

	if config.Router.StateFile != "" {
		if err := validatePath(config.Router.StateFile); err != nil {
			return fmt.Errorf("router config: invalid state file: %w", err)
		}
	}

	if config.Views.Descriptors != "" {
		if err := validatePath(config.Views.Descriptors); err != nil {
			return fmt.Errorf("views config: invalid descriptors file: %w", err)
		}
	}

	if strings.ContainsAny(config.Views.Module, `\.`) {
		return fmt.Errorf("views config: module prefix %q must use '/' separators", config.Views.Module)
	}

	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	// Clean the path
	cleanPath := filepath.Clean(path)

	// Reject path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	// Reject dangerous characters
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

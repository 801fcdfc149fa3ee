package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ConfigBuilder provides a fluent interface for building configurations.
//
// Usage:
//
//	config, err := NewConfigBuilder().
//	    WithName("Shop", "2.1").
//	    WithStart("/dashboard").
//	    WithRouter(RouterFile, ".viewnav/route").
//	    Build()
type ConfigBuilder struct {
	config     *Config
	validators []ValidatorFunc
}

// ValidatorFunc represents a configuration validation function
type ValidatorFunc func(*Config) error

// NewConfigBuilder creates a new configuration builder seeded with Default.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config:     Default(),
		validators: []ValidatorFunc{},
	}
}

func (cb *ConfigBuilder) WithName(name, version string) *ConfigBuilder {
	cb.config.Name = name
	cb.config.Version = version
	return cb
}

// WithStart sets the path shown for empty or root navigations.
func (cb *ConfigBuilder) WithStart(start string) *ConfigBuilder {
	cb.config.Start = start
	return cb
}

func (cb *ConfigBuilder) WithRouter(kind, stateFile string) *ConfigBuilder {
	cb.config.Router = RouterConfig{Kind: kind, StateFile: stateFile}
	return cb
}

func (cb *ConfigBuilder) WithViews(module, descriptors string) *ConfigBuilder {
	cb.config.Views = ViewsConfig{Module: module, Descriptors: descriptors}
	return cb
}

func (cb *ConfigBuilder) WithAnimation(enabled bool) *ConfigBuilder {
	cb.config.Animation = &enabled
	return cb
}

// WithDebug enables debug mode and lowers the log level to match.
func (cb *ConfigBuilder) WithDebug() *ConfigBuilder {
	cb.config.Debug = true
	cb.config.Log.Level = "debug"
	return cb
}

func (cb *ConfigBuilder) WithLogging(level, format string) *ConfigBuilder {
	cb.config.Log = LogConfig{Level: level, Format: format}
	return cb
}

func (cb *ConfigBuilder) WithMetrics() *ConfigBuilder {
	cb.config.Metrics.Enabled = true
	return cb
}

func (cb *ConfigBuilder) WithServer(host string, port int) *ConfigBuilder {
	cb.config.Server = ServerConfig{Host: host, Port: port}
	return cb
}

func (cb *ConfigBuilder) WithLocale(lang, path string) *ConfigBuilder {
	cb.config.Locale = LocaleConfig{Lang: lang, Path: path}
	return cb
}

// WithValidator adds a custom validator run by Build after the built-in checks.
func (cb *ConfigBuilder) WithValidator(validator ValidatorFunc) *ConfigBuilder {
	cb.validators = append(cb.validators, validator)
	return cb
}

// FromViper overlays values present in the global viper state.
func (cb *ConfigBuilder) FromViper() *ConfigBuilder {
	if viper.IsSet("name") {
		cb.config.Name = viper.GetString("name")
	}
	if viper.IsSet("version") {
		cb.config.Version = viper.GetString("version")
	}
	if viper.IsSet("start") {
		cb.config.Start = viper.GetString("start")
	}
	if viper.IsSet("router.kind") {
		cb.config.Router.Kind = viper.GetString("router.kind")
	}
	if viper.IsSet("router.state_file") {
		cb.config.Router.StateFile = viper.GetString("router.state_file")
	}
	if viper.IsSet("views.module") {
		cb.config.Views.Module = viper.GetString("views.module")
	}
	if viper.IsSet("views.descriptors") {
		cb.config.Views.Descriptors = viper.GetString("views.descriptors")
	}
	if viper.IsSet("animation") {
		animation := viper.GetBool("animation")
		cb.config.Animation = &animation
	}
	if viper.IsSet("debug") {
		cb.config.Debug = viper.GetBool("debug")
	}
	return cb
}

// Build validates and returns the configuration.
func (cb *ConfigBuilder) Build() (*Config, error) {
	applyDefaults(cb.config)

	if err := validateConfig(cb.config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	for i, validator := range cb.validators {
		if err := validator(cb.config); err != nil {
			return nil, fmt.Errorf("custom validator %d failed: %w", i, err)
		}
	}

	return cb.config, nil
}

// MustBuild is Build that panics on error.
func (cb *ConfigBuilder) MustBuild() *Config {
	config, err := cb.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build configuration: %v", err))
	}
	return config
}

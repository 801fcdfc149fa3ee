package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation Errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation Warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateStructTags(config, result)
	validateRouterConfigDetails(config, result)
	validateViewsConfigDetails(&config.Views, result)
	validateServerConfigDetails(&config.Server, result)
	validateLocaleConfigDetails(&config.Locale, result)

	if config.Debug && config.Metrics.Enabled {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "debug",
			Value:   true,
			Message: "debug mode logs every reported error with a stack trace",
			Suggestions: []string{
				"Disable debug mode when collecting production metrics",
			},
		})
	}

	result.Valid = !result.HasErrors()

	return result
}

// suggestions keyed by validator tag
var tagSuggestions = map[string][]string{
	"required":   {"Set a non-empty value or remove the key to use the default"},
	"startswith": {"Paths are absolute, e.g. \"/home\" or \"/users?id=1\""},
	"oneof":      {"Allowed values are listed in the message"},
	"gte":        {"Use a value of 0 or more"},
	"lte":        {"Use a port between 1024-65535 for non-privileged access"},
}

func validateStructTags(config *Config, result *ValidationResult) {
	err := validate.Struct(config)
	if err == nil {
		return
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "config",
			Message: err.Error(),
		})
		return
	}

	for _, fe := range fieldErrors {
		message := fmt.Sprintf("failed %q check", fe.Tag())
		if fe.Param() != "" {
			message = fmt.Sprintf("failed %q check (%s)", fe.Tag(), fe.Param())
		}
		result.Errors = append(result.Errors, ValidationError{
			Field:       fieldPath(fe.Namespace()),
			Value:       fe.Value(),
			Message:     message,
			Suggestions: tagSuggestions[fe.Tag()],
		})
	}
}

// fieldPath turns "Config.Router.Kind" into "router.kind".
func fieldPath(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	return strings.ToLower(namespace)
}

func validateRouterConfigDetails(config *Config, result *ValidationResult) {
	router := &config.Router
	if router.StateFile != "" {
		if err := validatePath(router.StateFile); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "router.state_file",
				Value:   router.StateFile,
				Message: err.Error(),
				Suggestions: []string{
					"Use a path relative to the project directory",
				},
			})
		}
	}

	if router.Kind != RouterFile && router.StateFile != "" {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "router.state_file",
			Value:   router.StateFile,
			Message: fmt.Sprintf("state file is ignored by the %q router", router.Kind),
			Suggestions: []string{
				"Set router.kind to \"file\" to persist the current path",
			},
		})
	}

	if router.Kind == RouterSocket && config.Server.Port == 0 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   0,
			Message: "socket router listens on a system assigned port",
		})
	}
}

func validateViewsConfigDetails(config *ViewsConfig, result *ValidationResult) {
	if strings.ContainsAny(config.Module, `\.`) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "views.module",
			Value:   config.Module,
			Message: "module prefix must use '/' separators",
			Suggestions: []string{
				fmt.Sprintf("Use %q", strings.NewReplacer(`\`, "/", ".", "/").Replace(config.Module)),
			},
		})
	}

	if config.Descriptors == "" {
		return
	}
	if err := validatePath(config.Descriptors); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "views.descriptors",
			Value:   config.Descriptors,
			Message: err.Error(),
		})
		return
	}
	if _, err := os.Stat(config.Descriptors); os.IsNotExist(err) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "views.descriptors",
			Value:   config.Descriptors,
			Message: "descriptor file does not exist",
			Suggestions: []string{
				"Create the file or remove views.descriptors to use module lookup",
			},
		})
	}
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Common development ports: 3000, 8080, 8000, 3001",
			},
		})
	}

	if config.Host == "0.0.0.0" {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.host",
			Value:   config.Host,
			Message: "server is reachable from other machines",
		})
	}
}

func validateLocaleConfigDetails(config *LocaleConfig, result *ValidationResult) {
	if config.Path == "" {
		return
	}
	info, err := os.Stat(config.Path)
	if err != nil {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "locale.path",
			Value:   config.Path,
			Message: "locale directory is not accessible",
		})
		return
	}
	if !info.IsDir() {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "locale.path",
			Value:   config.Path,
			Message: "locale path must be a directory of TOML message files",
		})
	}
}

//go:build property
// +build property

package config

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestConfigurationProperties tests configuration validation properties
func TestConfigurationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: any absolute start path with a known router kind validates
	properties.Property("valid config validates", prop.ForAll(
		func(page string, kind string, port int) bool {
			cfg := Default()
			cfg.Start = "/" + page
			cfg.Router.Kind = kind
			cfg.Server.Port = port

			return validateConfig(cfg) == nil
		},
		gen.AlphaString(),
		gen.OneConstOf(RouterMemory, RouterFile, RouterSocket),
		gen.IntRange(0, 65535),
	))

	// Property: relative start paths are always rejected
	properties.Property("relative start rejected", prop.ForAll(
		func(page string) bool {
			cfg := Default()
			cfg.Start = page
			return validateConfig(cfg) != nil
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	// Property: paths containing traversal never validate
	properties.Property("traversal rejected", prop.ForAll(
		func(prefix, suffix string) bool {
			return validatePath(prefix+"/../../"+suffix) != nil ||
				!strings.Contains(prefix+"/../../"+suffix, "..")
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	// Property: defaults are idempotent
	properties.Property("defaults idempotent", prop.ForAll(
		func(name string) bool {
			cfg := &Config{Name: name}
			applyDefaults(cfg)
			first := *cfg
			applyDefaults(cfg)
			return first == *cfg
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

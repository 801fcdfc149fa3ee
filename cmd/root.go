// Package cmd provides the viewnav command-line interface.
//
// Configuration System:
//
//	The CLI reads its configuration from several sources, highest priority first:
//	1. Command-line flags (--config, --log-level, --debug, ...)
//	2. VIEWNAV_CONFIG_FILE environment variable: custom config file path
//	3. Individual environment variables (VIEWNAV_START, VIEWNAV_ROUTER_KIND, ...)
//	4. Configuration file (.viewnav.yml)
//
// Environment Variables:
//
//	VIEWNAV_CONFIG_FILE: Path to custom configuration file
//	VIEWNAV_START: Start path used for empty navigations
//	VIEWNAV_VIEWS_DESCRIPTORS: YAML file of page descriptors
//	And any other key following the VIEWNAV_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/viewnav/internal/config"
	"github.com/conneroisu/viewnav/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "viewnav",
	Short: "Drive a path-routed view application from the command line",
	Long: `viewnav boots an application whose screen is a stack of views selected by
a navigation path such as /users/details?id=42, and lets you navigate it,
inspect paths and serve it over HTTP.

Quick Start:
  viewnav navigate /home /users     Render each path in turn and print the page
  viewnav parse "/users?id=4/info"  Show the segments of a path
  viewnav serve                     Serve the application with a websocket router
  viewnav config                    Print the effective configuration

Command Aliases:
  navigate (nav, n), parse (p), serve (s)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .viewnav.yml, can also use VIEWNAV_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("debug", false, "report application errors with stack traces")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initConfig selects the configuration file. The --config flag wins over
// VIEWNAV_CONFIG_FILE, which wins over .viewnav.yml in the working directory.
// Every key can also be set from the environment with the VIEWNAV_ prefix.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("VIEWNAV_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".viewnav")
	}

	viper.SetEnvPrefix("VIEWNAV")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or unreadable file leaves the defaults in place.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    w,
		Component: "cli",
	})
}

// commandContext returns the command's context, which is nil when a run
// function is called outside of Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/viewnav/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging the config file, VIEWNAV_ environment
variables and flags, with defaults applied.

Examples:
  viewnav config                # YAML
  viewnav config -o json        # JSON
  viewnav config --check        # Also report validation warnings`,
	RunE: runConfig,
}

var (
	configOutput string
	configCheck  bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	addOutputFlag(configCmd, &configOutput, "yaml", []string{"json", "yaml"})
	configCmd.Flags().BoolVar(&configCheck, "check", false, "Report validation errors and warnings")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := writeStructured(cmd.OutOrStdout(), configOutput, cfg); err != nil {
		return err
	}
	if !configCheck {
		return nil
	}

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "config file: %s\n", used)
	}
	result := config.ValidateConfigWithDetails(cfg)
	if result.HasErrors() || result.HasWarnings() {
		fmt.Fprint(cmd.ErrOrStderr(), result.String())
	}
	if result.HasErrors() {
		return fmt.Errorf("configuration has %d error(s)", len(result.Errors))
	}
	return nil
}

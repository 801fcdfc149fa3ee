package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/viewnav/internal/version"
)

var (
	versionFormat   string
	versionShort    bool
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for viewnav: the version, git commit, build
time, Go version and target platform.

Examples:
  viewnav version               # Show version and commit
  viewnav version --detailed    # Show every known build field
  viewnav version -f json       # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json, yaml)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show the version only")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
	AddFlagValidation(versionCmd, "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"text", "json", "yaml"})
	})
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	switch versionFormat {
	case "json", "yaml":
		return writeStructured(out, versionFormat, info)
	case "text":
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", versionFormat)
	}

	switch {
	case versionShort:
		fmt.Fprintln(out, info.Version)
	case versionDetailed:
		fmt.Fprintln(out, info.Detailed())
		if info.IsRelease() {
			fmt.Fprintln(out, "Build type: release")
		} else {
			fmt.Fprintln(out, "Build type: development")
		}
	default:
		fmt.Fprintf(out, "viewnav %s\n", info.Short())
	}
	return nil
}

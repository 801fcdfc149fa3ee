package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/viewnav/internal/urlpath"
)

var parseCmd = &cobra.Command{
	Use:     "parse <path>",
	Aliases: []string{"p"},
	Short:   "Show the route segments of a navigation path",
	Long: `Split a navigation path into its route segments, outer view first.
An empty path or "/" stands for the configured start path.

Examples:
  viewnav parse "/users?tab=info/details?id=42"
  viewnav parse "" -o json          # Segments of the start path as JSON`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

var parseOutput string

func init() {
	rootCmd.AddCommand(parseCmd)
	addOutputFlag(parseCmd, &parseOutput, "table", structuredFormats)
}

type segmentRow struct {
	Index  int               `json:"index" yaml:"index"`
	Page   string            `json:"page" yaml:"page"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

type parsedPath struct {
	Input      string       `json:"input" yaml:"input"`
	Normalized string       `json:"normalized" yaml:"normalized"`
	Segments   []segmentRow `json:"segments" yaml:"segments"`
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	url := urlpath.Parser{Start: cfg.Start}.Parse(args[0])
	result := parsedPath{
		Input:      args[0],
		Normalized: urlpath.Serialize(url),
		Segments:   segmentRows(url),
	}

	if parseOutput == "table" {
		return writeSegmentTable(cmd.OutOrStdout(), result)
	}
	return writeStructured(cmd.OutOrStdout(), parseOutput, result)
}

func segmentRows(url urlpath.URL) []segmentRow {
	rows := make([]segmentRow, 0, len(url))
	for i, seg := range url {
		rows = append(rows, segmentRow{Index: i, Page: seg.Page, Params: seg.Params})
	}
	return rows
}

func writeSegmentTable(out io.Writer, result parsedPath) error {
	upper := cases.Upper(language.English)

	fmt.Fprintf(out, "Path: %s\n\n", result.Normalized)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", upper.String("#"), upper.String("page"), upper.String("params"))
	for _, row := range result.Segments {
		fmt.Fprintf(w, "%d\t%s\t%s\n", row.Index, row.Page, formatParams(row.Params))
	}
	return w.Flush()
}

func formatParams(params map[string]string) string {
	if len(params) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, ", ")
}

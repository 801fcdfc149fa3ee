package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/viewnav/internal/app"
	"github.com/conneroisu/viewnav/internal/dom"
	"github.com/conneroisu/viewnav/internal/errors"
	"github.com/conneroisu/viewnav/internal/events"
)

var navigateCmd = &cobra.Command{
	Use:     "navigate [paths...]",
	Aliases: []string{"nav", "n"},
	Short:   "Navigate the application through paths and print the result",
	Long: `Boot the application on an in-memory document with the views described in
views.descriptors, start it at the first path and show every following path
in turn. The final page is printed as HTML, or the final route as a table,
JSON or YAML. Errors reported by the application are listed on stderr.

Examples:
  viewnav navigate                           # Render the start page
  viewnav navigate /home /users/details?id=4 # Start at /home, then show a user
  viewnav navigate /users -o json            # Print the resulting route as JSON
  viewnav navigate /missing --strict         # Exit non-zero on reported errors`,
	RunE: runNavigate,
}

var (
	navigateOutput string
	navigateStrict bool
)

func init() {
	rootCmd.AddCommand(navigateCmd)
	addOutputFlag(navigateCmd, &navigateOutput, "html", append([]string{"html"}, structuredFormats...))
	navigateCmd.Flags().BoolVar(&navigateStrict, "strict", false, "Fail when the application reports errors")
}

type navigateResult struct {
	Path     string       `json:"path" yaml:"path"`
	View     string       `json:"view" yaml:"view"`
	Segments []segmentRow `json:"segments" yaml:"segments"`
	Errors   []string     `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func runNavigate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// nothing observes the start transition of an in-memory document
	off := false
	cfg.Animation = &off

	doc := dom.NewDocument()
	logger := newLogger(cfg, cmd.ErrOrStderr())
	a, err := newApplication(cfg, doc, logger)
	if err != nil {
		return err
	}
	defer a.Destroy()

	ctx := commandContext(cmd)
	collector := collectErrors(ctx, a, errors.NewErrorHandler(logger))

	first := ""
	if len(args) > 0 {
		first = args[0]
	}
	if err := a.Start(ctx, first); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	for _, path := range args[min(1, len(args)):] {
		if err := a.Show(ctx, path); err != nil {
			collector.AddError(fmt.Errorf("show %s: %w", path, err))
		}
	}
	if err := a.Queue().Flush(ctx); err != nil {
		return err
	}

	result := navigateResult{
		Path:     a.Router().Get(),
		Segments: segmentRows(a.URL()),
	}
	if v := a.View(); v != nil {
		result.View = v.Name()
	}
	for _, e := range collector.GetAllErrors() {
		result.Errors = append(result.Errors, e.Error())
	}

	out := cmd.OutOrStdout()
	switch navigateOutput {
	case "html":
		page, err := doc.HTML(ctx)
		if err != nil {
			return fmt.Errorf("failed to render page: %w", err)
		}
		fmt.Fprintln(out, page)
	case "table":
		if err := writeNavigateTable(out, result); err != nil {
			return err
		}
	default:
		if err := writeStructured(out, navigateOutput, result); err != nil {
			return err
		}
	}

	if collector.HasErrors() {
		fmt.Fprintln(cmd.ErrOrStderr(), collector.Summary())
		if navigateStrict {
			return fmt.Errorf("navigation reported %d error(s)", len(result.Errors))
		}
	}
	return nil
}

// collectErrors records the errors the application reports while resolving
// and rendering views, logging each through handler.
func collectErrors(ctx context.Context, a *app.App, handler *errors.ErrorHandler) *errors.ErrorCollector {
	collector := errors.NewErrorCollector()
	a.On(events.ErrorResolve, events.Listener(func(args ...any) {
		r := errors.Report{Event: events.ErrorResolve}
		if len(args) > 0 {
			r.Err, _ = args[0].(error)
		}
		if len(args) > 1 {
			r.Page, _ = args[1].(string)
		}
		collector.Add(r)
		handler.Handle(ctx, r.Err)
	}))
	a.On(events.ErrorRender, events.Listener(func(args ...any) {
		r := errors.Report{Event: events.ErrorRender}
		if len(args) > 0 {
			r.Err, _ = args[0].(error)
		}
		collector.Add(r)
		handler.Handle(ctx, r.Err)
	}))
	return collector
}

func writeNavigateTable(out io.Writer, result navigateResult) error {
	fmt.Fprintf(out, "View: %s\n", result.View)
	return writeSegmentTable(out, parsedPath{Normalized: result.Path, Segments: result.Segments})
}

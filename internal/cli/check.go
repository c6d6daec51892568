package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sprite-ai/plugver/internal/governance"
	"github.com/sprite-ai/plugver/internal/model"
	"github.com/sprite-ai/plugver/internal/tui"
)

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report changed plugins whose version must be bumped",
		Long: `Find every plugin changed on the branch and ask the oracle whether its
changes require a version bump. Useful for CI and pre-commit hooks.

The manifest's current version is not consulted, so a change that already
includes its bump can still be reported.

Exit codes:
  0 - every changed plugin is compliant
  1 - at least one plugin needs a version bump
  2 - the check could not run`,
		Args: cobra.NoArgs,
		RunE: a.runCheck,
	}
	cmd.Flags().Bool("staged", false, "include staged changes")
	cmd.Flags().String("branch", model.DefaultBranchRef, "branch ref compared against the base")
	cmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown")
	cmd.Flags().BoolP("interactive", "i", false, "show a live dashboard (needs a terminal)")
	cmd.Flags().Int("concurrency", 0, "plugins classified in parallel (default 1)")
	return cmd
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	staged, _ := cmd.Flags().GetBool("staged")
	branch, _ := cmd.Flags().GetString("branch")
	format, _ := cmd.Flags().GetString("format")
	interactive, _ := cmd.Flags().GetBool("interactive")

	var render func(io.Writer, *governance.CheckReport) error
	switch format {
	case "text":
		render = outputText
	case "json":
		render = outputJSON
	case "markdown":
		render = outputMarkdown
	default:
		return &ExitError{Code: 2, Err: fmt.Errorf("unknown format %q (want text, json or markdown)", format)}
	}
	if interactive && !term.IsTerminal(int(os.Stdout.Fd())) {
		return &ExitError{Code: 2, Err: errors.New("--interactive needs a terminal")}
	}

	orch, err := a.orchestrator(cmd.Context())
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	scope := model.Scope{IncludeStaged: staged, BranchRef: branch}
	var report *governance.CheckReport
	if interactive {
		report, err = tui.Run(cmd.Context(), func(ctx context.Context, opts governance.CheckOptions) (*governance.CheckReport, error) {
			return orch.Check(ctx, scope, opts)
		})
	} else {
		report, err = orch.Check(cmd.Context(), scope, governance.CheckOptions{})
	}
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	if err := render(cmd.OutOrStdout(), report); err != nil {
		return &ExitError{Code: 2, Err: err}
	}
	if !report.Compliant() {
		return &ExitError{Code: 1}
	}
	return nil
}

func outputText(out io.Writer, report *governance.CheckReport) error {
	if report.Compliant() {
		if len(report.Plugins) > 0 {
			fmt.Fprintf(out, "✓ %d changed plugin(s) checked, no version updates required\n", len(report.Plugins))
		}
		return nil
	}

	fmt.Fprintln(out, "⚠️  Plugin version updates required:")
	for _, st := range report.Plugins {
		if st.Required {
			fmt.Fprintf(out, "   - %s (%s)\n", st.Plugin, st.ManifestPath)
		}
	}
	return nil
}

func outputJSON(out io.Writer, report *governance.CheckReport) error {
	type jsonOutput struct {
		Compliant bool `json:"compliant"`
		*governance.CheckReport
	}

	if report.Plugins == nil {
		report.Plugins = []governance.PluginStatus{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutput{Compliant: report.Compliant(), CheckReport: report})
}

func outputMarkdown(out io.Writer, report *governance.CheckReport) error {
	fmt.Fprintf(out, "## Plugin Version Check\n\n")

	if len(report.Plugins) == 0 {
		fmt.Fprintln(out, "No changed plugins.")
		return nil
	}

	fmt.Fprintln(out, "| Plugin | Files | Changes | Bump required | Manifest |")
	fmt.Fprintln(out, "|--------|-------|---------|---------------|----------|")
	for _, st := range report.Plugins {
		required := "no"
		if st.Required {
			required = "**yes**"
		}
		fmt.Fprintf(out, "| %s | %d | +%d -%d | %s | `%s` |\n",
			st.Plugin, st.Stats.Files, st.Stats.Added, st.Stats.Deleted, required, st.ManifestPath)
	}
	fmt.Fprintln(out)

	if report.Compliant() {
		fmt.Fprintln(out, "All changed plugins are compliant.")
	} else {
		fmt.Fprintf(out, "**%d plugin(s) need a version bump.**\n", len(report.NonCompliant))
	}
	return nil
}

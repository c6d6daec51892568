package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/plugver/internal/governance"
	"github.com/sprite-ai/plugver/internal/model"
)

func newBumpCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bump <plugin>",
		Short: "Classify a plugin's changes and bump its manifest version",
		Long: `Diff one plugin against the base branch, ask the oracle whether the
change is a MAJOR, MINOR, PATCH or no-bump change, and write the next version
into the plugin manifest. Running it again on the same state is a no-op.

Examples:
  plugver bump my-plugin                  # committed + staged changes vs origin/main
  plugver bump my-plugin --staged=false   # committed changes only
  plugver bump my-plugin --dry-run        # show the decision, write nothing`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBump(cmd, args[0])
		},
	}
	cmd.Flags().Bool("staged", true, "include staged changes")
	cmd.Flags().String("branch", model.DefaultBranchRef, "branch ref compared against the base")
	cmd.Flags().Bool("dry-run", false, "compute the new version without writing the manifest")
	cmd.Flags().StringP("format", "f", "text", "output format: text, json")
	return cmd
}

func (a *app) runBump(cmd *cobra.Command, plugin string) error {
	staged, _ := cmd.Flags().GetBool("staged")
	branch, _ := cmd.Flags().GetString("branch")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	orch, err := a.orchestrator(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	text := format == "text"
	if text {
		fmt.Fprintf(out, "Analyzing changes for plugin: %s\n", plugin)
	}

	res, err := orch.Apply(cmd.Context(), plugin, model.Scope{IncludeStaged: staged, BranchRef: branch}, governance.ApplyOptions{
		DryRun: dryRun,
		OnDecision: func(v model.Verdict) {
			if text {
				fmt.Fprintf(out, "\nDecision: %s\nReason: %s\n\n", v.Kind, v.Reason)
			}
		},
	})
	if err != nil {
		return err
	}

	if !text {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printApplyResult(out, res)
	return nil
}

func printApplyResult(out io.Writer, res *governance.ApplyResult) {
	switch res.Status {
	case governance.StatusNoChanges:
		fmt.Fprintf(out, "No changes detected for %s\n", res.Plugin)
	case governance.StatusNoBump:
		fmt.Fprintf(out, "%s\nNo version bump needed for %s\n", statsLine(res.Stats), res.Plugin)
	case governance.StatusBumped:
		fmt.Fprintln(out, statsLine(res.Stats))
		if res.DryRun {
			fmt.Fprintf(out, "Would bump %s version: %s → %s (dry run, %s unchanged)\n", res.Plugin, res.OldVersion, res.NewVersion, res.ManifestPath)
			return
		}
		fmt.Fprintf(out, "✓ Bumped %s version: %s → %s\n", res.Plugin, res.OldVersion, res.NewVersion)
	}
}

func statsLine(s governance.DiffStats) string {
	return fmt.Sprintf("%d file(s) changed, +%d -%d", s.Files, s.Added, s.Deleted)
}

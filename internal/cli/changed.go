package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sprite-ai/plugver/internal/diff"
	"github.com/sprite-ai/plugver/internal/model"
)

// highlightStyle is the chroma style used for coloured diffs.
const highlightStyle = "dracula"

func newChangedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changed [plugin]",
		Short: "List changed plugins, or print one plugin's diff",
		Long: `Without an argument, print the name of every plugin changed on the
branch, one per line. With a plugin name, print that plugin's diff and exit 1
if it has no changes.

Examples:
  plugver changed                    # changed plugins vs origin/main
  plugver changed --staged           # include staged changes
  plugver changed my-plugin --color=always | less -R`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runChanged,
	}
	cmd.Flags().Bool("staged", false, "include staged changes")
	cmd.Flags().String("branch", model.DefaultBranchRef, "branch ref compared against the base")
	cmd.Flags().String("color", "auto", "colour the diff: auto, always, never")
	return cmd
}

func (a *app) runChanged(cmd *cobra.Command, args []string) error {
	staged, _ := cmd.Flags().GetBool("staged")
	branch, _ := cmd.Flags().GetString("branch")
	color, _ := cmd.Flags().GetString("color")

	var colorize bool
	switch color {
	case "always":
		colorize = true
	case "never":
	case "auto":
		colorize = term.IsTerminal(int(os.Stdout.Fd()))
	default:
		return fmt.Errorf("unknown color mode %q (want auto, always or never)", color)
	}

	ctx := cmd.Context()
	root, err := a.repoRoot(ctx)
	if err != nil {
		return err
	}
	repo := a.repo(root)
	scope := model.Scope{IncludeStaged: staged, BranchRef: branch}

	plugins, err := repo.ChangedPlugins(ctx, scope)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		for _, p := range plugins {
			fmt.Fprintln(out, p)
		}
		return nil
	}

	plugin := args[0]
	if !slices.Contains(plugins, plugin) {
		a.log.With("plugin", plugin).Debug("plugin not in changed set")
		return &ExitError{Code: 1}
	}
	raw, err := repo.PluginDiff(ctx, plugin, scope)
	if err != nil {
		return err
	}
	if raw == "" {
		return &ExitError{Code: 1}
	}
	return writeDiff(out, raw, colorize)
}

func writeDiff(out io.Writer, raw string, colorize bool) error {
	if !strings.HasSuffix(raw, "\n") {
		raw += "\n"
	}
	if colorize {
		return diff.Highlight(out, raw, highlightStyle)
	}
	_, err := io.WriteString(out, raw)
	return err
}

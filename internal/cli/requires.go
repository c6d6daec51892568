package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRequiresCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "requires [diff-file|-]",
		Short: "Decide whether a diff requires a version bump",
		Long: `Read a unified diff (from a file or stdin) and print YES when the change
requires a plugin version bump, NO otherwise. When the oracle fails or answers
ambiguously the answer is YES.

Exit codes:
  0 - no bump required
  1 - bump required

Example:
  git diff origin/main -- plugins/my-plugin | plugver requires`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runRequires,
	}
}

func (a *app) runRequires(cmd *cobra.Command, args []string) error {
	raw, err := readDiffInput(cmd, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if strings.TrimSpace(raw) == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "No diff provided")
		fmt.Fprintln(out, "NO")
		return nil
	}

	c, err := a.classifier(cmd.Context())
	if err != nil {
		return err
	}

	if !c.ClassifyRequired(cmd.Context(), raw) {
		fmt.Fprintln(out, "NO")
		return nil
	}
	fmt.Fprintln(out, "YES")
	return &ExitError{Code: 1}
}

// readDiffInput reads the named file, or stdin for "-" or no argument.
func readDiffInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading diff: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

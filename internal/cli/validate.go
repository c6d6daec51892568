package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/plugver/internal/schema"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the marketplace and plugin manifests",
		Long: `Check the marketplace manifest and every plugin manifest under the
plugins root against the bundled JSON Schemas. Exits 1 if any file fails.`,
		Args: cobra.NoArgs,
		RunE: a.runValidate,
	}
}

func (a *app) runValidate(cmd *cobra.Command, args []string) error {
	root, err := a.cfg.RepoDir()
	if err != nil {
		return fmt.Errorf("resolving repository directory: %w", err)
	}

	v, err := schema.NewValidator()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🔍 Validating plugin manifests")
	fmt.Fprintln(out, "====================================")
	fmt.Fprintln(out)

	var passed, failed int
	tally := func(res schema.Result) {
		if report(out, root, res) {
			passed++
		} else {
			failed++
		}
	}

	fmt.Fprintln(out, "📦 Validating marketplace manifest...")
	tally(v.ValidateFile(filepath.Join(root, filepath.FromSlash(a.cfg.Repo.MarketplaceManifest)), schema.KindMarketplace))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "🔌 Validating plugin manifests...")
	for _, path := range a.store(root).Discover() {
		tally(v.ValidateFile(path, schema.KindPlugin))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "====================================")
	fmt.Fprintln(out, "📊 Summary:")
	fmt.Fprintf(out, "   ✅ Passed: %d\n", passed)
	fmt.Fprintf(out, "   ❌ Failed: %d\n", failed)
	fmt.Fprintln(out)

	if failed > 0 {
		fmt.Fprintln(out, "⚠️  Some validations failed")
		return &ExitError{Code: 1}
	}
	fmt.Fprintln(out, "✨ All validations passed!")
	return nil
}

// report prints one file's outcome and returns whether it passed.
func report(out io.Writer, root string, res schema.Result) bool {
	rel, err := filepath.Rel(root, res.Path)
	if err != nil {
		rel = res.Path
	}
	if res.Valid() {
		fmt.Fprintf(out, "  ✓ %s\n", filepath.ToSlash(rel))
		return true
	}
	fmt.Fprintf(out, "  ✗ %s\n", filepath.ToSlash(rel))
	for _, e := range res.Errors {
		fmt.Fprintf(out, "      %s\n", e)
	}
	return false
}

// Package cli implements the plugver command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/plugver/internal/analysis"
	"github.com/sprite-ai/plugver/internal/config"
	"github.com/sprite-ai/plugver/internal/governance"
	"github.com/sprite-ai/plugver/internal/logger"
	"github.com/sprite-ai/plugver/internal/manifest"
	"github.com/sprite-ai/plugver/internal/oracle"
	"github.com/sprite-ai/plugver/internal/vcs"
)

// ExitError ends the process with Code. A nil Err means the command already
// reported the outcome and nothing more is printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// app holds what every command shares once flags and config are parsed.
type app struct {
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger

	git       vcs.Runner
	newOracle func(ctx context.Context, opts oracle.Options, log *logger.Logger) (oracle.Classifier, error)
}

func newApp() *app {
	return &app{
		git:       vcs.ExecRunner{},
		newOracle: oracle.New,
		log:       logger.Nop(),
	}
}

var rootCmd = newRootCmd(newApp())

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugver",
		Short: "Semantic-version governance for marketplace plugins",
		Long: `plugver keeps plugin manifest versions in step with what changed.

It finds the plugins touched on a branch, asks a classification oracle how
significant each change is, and either bumps the manifest version (bump) or
reports plugins whose changes need a bump (check).`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	cmd.SetVersionTemplate(`{{.Name}} {{.Version}}` + "\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: .plugver.yaml in the repository)")
	pf.String("repo", "", "repository directory (default: current directory)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text, json")
	pf.String("oracle", "", fmt.Sprintf("classification backend: %v", oracle.Backends))
	pf.String("model", "", "model passed to the oracle backend")

	cmd.AddCommand(
		newBumpCmd(a),
		newCheckCmd(a),
		newChangedCmd(a),
		newRequiresCmd(a),
		newValidateCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if cfg.FileUsed != "" {
		a.log.Debugf("using config file %s", cfg.FileUsed)
	}
	return nil
}

// repoRoot resolves the top level of the configured repository.
func (a *app) repoRoot(ctx context.Context) (string, error) {
	dir, err := a.cfg.RepoDir()
	if err != nil {
		return "", fmt.Errorf("resolving repository directory: %w", err)
	}
	root, err := vcs.RepoRoot(ctx, a.git, dir)
	if err != nil {
		return "", fmt.Errorf("not in a git repository (or git not installed): %w", err)
	}
	return root, nil
}

func (a *app) repo(root string) *vcs.Repo {
	return vcs.New(vcs.Config{
		Dir:         root,
		PluginsRoot: a.cfg.Repo.PluginsRoot,
		Remote:      a.cfg.Repo.Remote,
		BaseBranch:  a.cfg.Repo.BaseBranch,
	}, a.git, a.log)
}

func (a *app) store(root string) *manifest.Store {
	return manifest.NewStore(root, manifest.Layout{
		PluginsRoot:  a.cfg.Repo.PluginsRoot,
		ManifestDir:  a.cfg.Repo.ManifestDir,
		ManifestFile: a.cfg.Repo.ManifestFile,
	})
}

// layout tells the rule passes where manifests live.
func (a *app) layout() analysis.Layout {
	return analysis.Layout{ManifestDir: a.cfg.Repo.ManifestDir, ManifestFile: a.cfg.Repo.ManifestFile}
}

func (a *app) classifier(ctx context.Context) (oracle.Classifier, error) {
	o := a.cfg.Oracle
	c, err := a.newOracle(ctx, oracle.Options{
		Backend: o.Backend,
		Command: o.Command,
		Model:   o.Model,
		Timeout: o.Timeout,
		APIKey:  o.APIKey,
		Layout:  a.layout(),
	}, a.log)
	if err != nil {
		return nil, fmt.Errorf("creating %s oracle: %w", o.Backend, err)
	}
	return c, nil
}

// orchestrator wires the full pipeline for the configured repository.
func (a *app) orchestrator(ctx context.Context) (*governance.Orchestrator, error) {
	c, err := a.classifier(ctx)
	if err != nil {
		return nil, err
	}
	return a.pipeline(ctx, c)
}

// pipeline is orchestrator with an existing classifier.
func (a *app) pipeline(ctx context.Context, c oracle.Classifier) (*governance.Orchestrator, error) {
	root, err := a.repoRoot(ctx)
	if err != nil {
		return nil, err
	}
	r := a.repo(root)
	return governance.New(r, r, c, a.store(root),
		governance.WithLogger(a.log),
		governance.WithConcurrency(a.cfg.Check.Concurrency),
	), nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return run(ctx, rootCmd, os.Stderr)
}

func run(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *ExitError
	if errors.As(err, &exit) {
		if exit.Err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exit.Err)
		}
		return exit.Code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

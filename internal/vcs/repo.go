package vcs

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sprite-ai/plugver/internal/logger"
	"github.com/sprite-ai/plugver/internal/model"
)

// Config describes where plugins live and what they are compared against.
type Config struct {
	Dir         string // repository root
	PluginsRoot string // first path segment of every plugin file
	Remote      string // e.g. "origin"
	BaseBranch  string // e.g. "main"
}

// Repo is the Diff Source and Change Locator for one repository.
type Repo struct {
	cfg Config
	git Runner
	log *logger.Logger

	refreshOnce sync.Once
	refreshErr  error
}

// New creates a Repo. A nil runner uses ExecRunner.
func New(cfg Config, git Runner, log *logger.Logger) *Repo {
	if git == nil {
		git = ExecRunner{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Repo{cfg: cfg, git: git, log: log.Component("vcs")}
}

// Base is the remote tracking ref every comparison starts from.
func (r *Repo) Base() string {
	return r.cfg.Remote + "/" + r.cfg.BaseBranch
}

// Refresh fetches the base branch so a stale tracking ref cannot hide
// changes. The fetch runs at most once per Repo; later calls return the
// first result.
func (r *Repo) Refresh(ctx context.Context) error {
	r.refreshOnce.Do(func() {
		_, r.refreshErr = r.git.Run(ctx, r.cfg.Dir, "fetch", r.cfg.Remote, r.cfg.BaseBranch, "--quiet")
	})
	return r.refreshErr
}

func (r *Repo) rangeSpec(scope model.Scope) string {
	return r.Base() + "..." + scope.Ref()
}

func (r *Repo) pluginPath(plugin string) string {
	return r.cfg.PluginsRoot + "/" + plugin
}

// PluginDiff returns the unified diff of one plugin's subtree in scope. With
// IncludeStaged the staged diff is appended after the committed one. A git
// failure is logged and counts as "no diff"; only cancellation is returned.
func (r *Repo) PluginDiff(ctx context.Context, plugin string, scope model.Scope) (string, error) {
	log := r.log.With("plugin", plugin)
	if err := r.Refresh(ctx); err != nil {
		log.Warn("could not refresh base branch, diffing against local tracking ref", err)
	}

	path := r.pluginPath(plugin)
	committed, err := r.git.Run(ctx, r.cfg.Dir, "diff", r.rangeSpec(scope), "--", path)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Warn("committed diff failed", err)
		committed = ""
	}

	if !scope.IncludeStaged {
		return normalize(committed), nil
	}

	staged, err := r.git.Run(ctx, r.cfg.Dir, "diff", "--cached", "--", path)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Warn("staged diff failed", err)
		staged = ""
	}

	return JoinDiffs(committed, staged), nil
}

// JoinDiffs concatenates a committed and a staged diff, separated by a
// newline when both are present.
func JoinDiffs(committed, staged string) string {
	committed, staged = normalize(committed), normalize(staged)
	switch {
	case committed != "" && staged != "":
		return committed + "\n" + staged
	case committed != "":
		return committed
	default:
		return staged
	}
}

func normalize(d string) string {
	if strings.TrimSpace(d) == "" {
		return ""
	}
	return d
}

// ChangedFiles lists every path changed in scope. Any git failure, including
// a failed fetch, yields an empty list: callers cannot tell "nothing changed"
// from "could not tell".
func (r *Repo) ChangedFiles(ctx context.Context, scope model.Scope) []string {
	if err := r.Refresh(ctx); err != nil {
		r.log.Warn("could not refresh base branch, reporting no changes", err)
		return nil
	}

	out, err := r.git.Run(ctx, r.cfg.Dir, "diff", "--name-only", "-z", r.rangeSpec(scope))
	if err != nil {
		r.log.Warn("listing committed changes failed, reporting no changes", err)
		return nil
	}
	files := splitPaths(out)

	if scope.IncludeStaged {
		out, err := r.git.Run(ctx, r.cfg.Dir, "diff", "--name-only", "-z", "--cached")
		if err != nil {
			r.log.Warn("listing staged changes failed, reporting no changes", err)
			return nil
		}
		files = append(files, splitPaths(out)...)
	}
	return files
}

// ChangedPlugins returns the sorted set of plugins touched in scope.
func (r *Repo) ChangedPlugins(ctx context.Context, scope model.Scope) ([]string, error) {
	files := r.ChangedFiles(ctx, scope)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plugins := PluginsFromPaths(r.cfg.PluginsRoot, files)
	r.log.Debugf("%d changed file(s) touch %d plugin(s)", len(files), len(plugins))
	return plugins, nil
}

// PluginFromPath returns the plugin a repository-relative path belongs to.
// The path must start with root and have at least one further segment.
func PluginFromPath(root, path string) (string, bool) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != root || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// PluginsFromPaths collapses paths into a sorted, de-duplicated plugin list.
func PluginsFromPaths(root string, paths []string) []string {
	set := make(map[string]struct{})
	for _, p := range paths {
		if id, ok := PluginFromPath(root, p); ok {
			set[id] = struct{}{}
		}
	}

	plugins := make([]string, 0, len(set))
	for id := range set {
		plugins = append(plugins, id)
	}
	sort.Strings(plugins)
	return plugins
}

// splitPaths splits NUL-terminated `--name-only -z` output. Paths are taken
// verbatim; git does not quote them in this mode.
func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, "\x00") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

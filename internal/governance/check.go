package governance

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/plugver/internal/model"
)

// PluginStatus is the check outcome for one changed plugin.
type PluginStatus struct {
	Plugin       string    `json:"plugin"`
	Changed      bool      `json:"changed"`
	Required     bool      `json:"required"`
	ManifestPath string    `json:"manifest_path"`
	Stats        DiffStats `json:"stats"`

	// Diff is the raw plugin diff, kept for interactive display.
	Diff string `json:"-"`
}

// CheckReport aggregates a check run.
type CheckReport struct {
	Scope        model.Scope    `json:"-"`
	Plugins      []PluginStatus `json:"plugins"`
	NonCompliant []string       `json:"non_compliant"`
}

// Compliant reports whether no plugin needs a bump.
func (r *CheckReport) Compliant() bool {
	return len(r.NonCompliant) == 0
}

// CheckOptions tunes a Check run.
type CheckOptions struct {
	// OnStart is called once with the plugins about to be checked.
	OnStart func(plugins []string)
	// OnResult is called as each plugin finishes. Calls never overlap but
	// arrive in completion order.
	OnResult func(PluginStatus)
}

// Check asks, for every changed plugin, whether its diff requires a version
// bump. The manifest's current version is never consulted, so a plugin
// whose bump is already part of the change can still be reported.
func (o *Orchestrator) Check(ctx context.Context, scope model.Scope, opts CheckOptions) (*CheckReport, error) {
	plugins, err := o.locator.ChangedPlugins(ctx, scope)
	if err != nil {
		return nil, err
	}
	o.log.Infof("checking %d changed plugin(s)", len(plugins))
	if opts.OnStart != nil {
		opts.OnStart(plugins)
	}

	results := make([]PluginStatus, len(plugins))
	var notify sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, plugin := range plugins {
		g.Go(func() error {
			st, err := o.checkPlugin(gctx, plugin, scope)
			if err != nil {
				return err
			}
			results[i] = st
			if opts.OnResult != nil {
				notify.Lock()
				opts.OnResult(st)
				notify.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &CheckReport{Scope: scope, Plugins: results, NonCompliant: []string{}}
	for _, st := range results {
		if st.Required {
			report.NonCompliant = append(report.NonCompliant, st.Plugin)
		}
	}
	sort.Strings(report.NonCompliant)
	return report, nil
}

func (o *Orchestrator) checkPlugin(ctx context.Context, plugin string, scope model.Scope) (PluginStatus, error) {
	st := PluginStatus{Plugin: plugin, ManifestPath: o.store.RelPath(plugin)}

	raw, err := o.diffs.PluginDiff(ctx, plugin, scope)
	if err != nil {
		return st, err
	}
	if raw == "" {
		o.log.With("plugin", plugin).Debug("empty diff, compliant")
		return st, nil
	}

	st.Changed = true
	st.Diff = raw
	st.Stats = o.statsOf(raw)
	st.Required = o.oracle.ClassifyRequired(ctx, raw)
	o.log.With("plugin", plugin).Debugf("version bump required: %t", st.Required)
	return st, nil
}

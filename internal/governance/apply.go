package governance

import (
	"context"
	"fmt"

	"github.com/sprite-ai/plugver/internal/apperr"
	"github.com/sprite-ai/plugver/internal/manifest"
	"github.com/sprite-ai/plugver/internal/model"
	"github.com/sprite-ai/plugver/internal/semver"
)

// Status is the outcome of Apply.
type Status string

const (
	StatusNoChanges Status = "no-changes"
	StatusNoBump    Status = "no-bump"
	StatusBumped    Status = "bumped"
)

// ApplyOptions tunes a single Apply run.
type ApplyOptions struct {
	// DryRun computes the new version without writing the manifest.
	DryRun bool
	// OnDecision is called with the verdict before the manifest is touched.
	OnDecision func(model.Verdict)
}

// ApplyResult describes what Apply did.
type ApplyResult struct {
	Plugin       string          `json:"plugin"`
	Status       Status          `json:"status"`
	Verdict      *model.Verdict  `json:"verdict,omitempty"`
	OldVersion   *semver.Version `json:"old_version,omitempty"`
	NewVersion   *semver.Version `json:"new_version,omitempty"`
	ManifestPath string          `json:"manifest_path"`
	DryRun       bool            `json:"dry_run,omitempty"`
	Stats        DiffStats       `json:"stats"`
}

// Apply classifies one plugin's diff and bumps its manifest version
// accordingly. An empty diff or a NONE verdict leaves the manifest alone and
// unread.
// Manifest and graded-oracle failures are returned; no version is guessed.
func (o *Orchestrator) Apply(ctx context.Context, plugin string, scope model.Scope, opts ApplyOptions) (*ApplyResult, error) {
	if !manifest.ValidPluginID(plugin) {
		return nil, apperr.New(apperr.CodeInvalidArgument, fmt.Sprintf("invalid plugin name %q", plugin))
	}
	log := o.log.With("plugin", plugin)
	res := &ApplyResult{Plugin: plugin, ManifestPath: o.store.RelPath(plugin), DryRun: opts.DryRun}

	raw, err := o.diffs.PluginDiff(ctx, plugin, scope)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		log.Info("no changes detected")
		res.Status = StatusNoChanges
		return res, nil
	}
	res.Stats = o.statsOf(raw)

	verdict, err := o.oracle.ClassifyBump(ctx, plugin, raw)
	if err != nil {
		return nil, err
	}
	res.Verdict = &verdict
	log.Infof("decision %s: %s", verdict.Kind, verdict.Reason)
	if opts.OnDecision != nil {
		opts.OnDecision(verdict)
	}

	if verdict.Kind == model.BumpNone {
		res.Status = StatusNoBump
		return res, nil
	}

	// The manifest is only read once a bump is due.
	m, err := o.store.Load(plugin)
	if err != nil {
		return nil, err
	}
	old := m.Version
	res.OldVersion = &old

	next := semver.Next(old, verdict.Kind)
	res.NewVersion = &next
	res.Status = StatusBumped

	if opts.DryRun {
		log.Infof("dry run: would bump %s -> %s", old, next)
		return res, nil
	}

	m.Version = next
	if err := o.store.Save(plugin, m); err != nil {
		return nil, err
	}
	log.Infof("bumped %s -> %s", old, next)
	return res, nil
}

// Package governance runs the version-governance pipeline: locate changed
// plugins, diff them, classify the diff and apply or verify the bump.
package governance

import (
	"context"

	"github.com/sprite-ai/plugver/internal/diff"
	"github.com/sprite-ai/plugver/internal/logger"
	"github.com/sprite-ai/plugver/internal/manifest"
	"github.com/sprite-ai/plugver/internal/model"
)

// DiffSource returns one plugin's unified diff in scope; "" means unchanged.
type DiffSource interface {
	PluginDiff(ctx context.Context, plugin string, scope model.Scope) (string, error)
}

// ChangeLocator lists the plugins touched in scope.
type ChangeLocator interface {
	ChangedPlugins(ctx context.Context, scope model.Scope) ([]string, error)
}

// Classifier judges a diff, graded or yes/no.
type Classifier interface {
	ClassifyBump(ctx context.Context, plugin, diff string) (model.Verdict, error)
	ClassifyRequired(ctx context.Context, diff string) bool
}

// ManifestStore reads and writes plugin manifests.
type ManifestStore interface {
	Load(plugin string) (*manifest.Manifest, error)
	Save(plugin string, m *manifest.Manifest) error
	RelPath(plugin string) string
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	diffs       DiffSource
	locator     ChangeLocator
	oracle      Classifier
	store       ManifestStore
	log         *logger.Logger
	concurrency int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l.Component("governance")
		}
	}
}

// WithConcurrency bounds how many plugins Check classifies at once.
// Values below 2 keep the loop sequential.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// New creates an Orchestrator.
func New(diffs DiffSource, locator ChangeLocator, oracle Classifier, store ManifestStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		diffs:       diffs,
		locator:     locator,
		oracle:      oracle,
		store:       store,
		log:         logger.Nop(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DiffStats summarises a diff for reporting.
type DiffStats struct {
	Files   int `json:"files"`
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

// statsOf parses raw for reporting only; an unparseable diff reports zeros.
func (o *Orchestrator) statsOf(raw string) DiffStats {
	ds, err := diff.Parse(raw)
	if err != nil {
		o.log.Debugf("diff stats unavailable: %v", err)
		return DiffStats{}
	}
	files, added, deleted := ds.Stats()
	return DiffStats{Files: files, Added: added, Deleted: deleted}
}

package oracle

import (
	"context"
	"strings"

	"github.com/sprite-ai/plugver/internal/analysis"
	"github.com/sprite-ai/plugver/internal/apperr"
	"github.com/sprite-ai/plugver/internal/diff"
	"github.com/sprite-ai/plugver/internal/logger"
	"github.com/sprite-ai/plugver/internal/model"
)

// Rules classifies diffs with the heuristic passes in package analysis. It
// needs no network and answers deterministically, which suits offline runs.
type Rules struct {
	layout analysis.Layout
	skip   []string
	log    *logger.Logger
}

// NewRules creates a rule-based classifier for plugins whose manifests sit
// at layout, optionally skipping passes.
func NewRules(log *logger.Logger, layout analysis.Layout, skip ...string) *Rules {
	if log == nil {
		log = logger.Nop()
	}
	return &Rules{layout: layout, skip: skip, log: log.Component("rules")}
}

// ClassifyBump implements the graded classification.
func (r *Rules) ClassifyBump(_ context.Context, plugin, raw string) (model.Verdict, error) {
	ds, err := diff.Parse(raw)
	if err != nil {
		return model.Verdict{}, apperr.Wrap(err, apperr.CodeOracleUnparseable, "could not parse diff for rule-based classification")
	}

	results := analysis.Run(ds, r.layout, r.skip)
	r.log.With("plugin", plugin).Debugf("rule findings: %s", results.Summary())
	return results.Verdict(), nil
}

// ClassifyRequired implements the binary classification. A diff that
// cannot be parsed is reported as requiring a bump.
func (r *Rules) ClassifyRequired(_ context.Context, raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}

	ds, err := diff.Parse(raw)
	if err != nil {
		r.log.Warn("could not parse diff, assuming a version bump is required", err)
		return true
	}
	return analysis.Run(ds, r.layout, r.skip).Kind() != model.BumpNone
}

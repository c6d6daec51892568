// Package analysis implements heuristic passes that estimate the semantic
// impact of a plugin diff without consulting an oracle.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sprite-ai/plugver/internal/diff"
	"github.com/sprite-ai/plugver/internal/model"
)

// Finding is one observation about a file, with the bump it implies.
type Finding struct {
	Pass    string // which analysis pass produced this
	File    string
	Line    int // primary line number (in new file), 0 if file-level
	Message string
	Kind    model.BumpKind
}

func (f Finding) String() string {
	loc := f.File
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	return fmt.Sprintf("[%s] %s: %s (%s)", f.Pass, loc, f.Message, f.Kind)
}

// Results holds all findings from running analysis passes.
type Results struct {
	Findings []Finding
}

// ByFile returns findings grouped by file path.
func (r *Results) ByFile() map[string][]Finding {
	m := make(map[string][]Finding)
	for _, f := range r.Findings {
		m[f.File] = append(m[f.File], f)
	}
	return m
}

// AtLeast returns findings implying a bump of kind or higher.
func (r *Results) AtLeast(kind model.BumpKind) []Finding {
	var result []Finding
	for _, f := range r.Findings {
		if f.Kind >= kind {
			result = append(result, f)
		}
	}
	return result
}

// Kind returns the highest bump implied by any finding.
func (r *Results) Kind() model.BumpKind {
	max := model.BumpNone
	for _, f := range r.Findings {
		if f.Kind > max {
			max = f.Kind
		}
	}
	return max
}

// Verdict condenses the results into a decision and a one-sentence reason
// taken from the strongest finding.
func (r *Results) Verdict() model.Verdict {
	if len(r.Findings) == 0 {
		return model.Verdict{Kind: model.BumpNone, Reason: "No changes to classify"}
	}

	kind := r.Kind()
	top := r.AtLeast(kind)
	files := make(map[string]bool)
	for _, f := range top {
		files[f.File] = true
	}

	reason := top[0].Message
	if others := len(files) - 1; others > 0 {
		reason = fmt.Sprintf("%s (plus %s-level changes in %d other file(s))", reason, kind, others)
	}
	return model.Verdict{Kind: kind, Reason: reason}
}

// Summary returns a one-line summary of findings.
func (r *Results) Summary() string {
	if len(r.Findings) == 0 {
		return "No changes found"
	}

	counts := make(map[model.BumpKind]int)
	for _, f := range r.Findings {
		counts[f.Kind]++
	}

	var parts []string
	for _, kind := range []model.BumpKind{model.BumpMajor, model.BumpMinor, model.BumpPatch, model.BumpNone} {
		if c := counts[kind]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, kind))
		}
	}
	return strings.Join(parts, ", ")
}

// Pass is a function that analyzes a diff and returns findings.
type Pass func(ds *diff.DiffSet, l Layout) []Finding

// AllPasses returns the ordered list of all analysis passes.
func AllPasses() []Pass {
	return []Pass{
		ComponentPass,
		ManifestPass,
		FrontmatterPass,
		ContentPass,
	}
}

// PassNames maps pass names to pass functions (for skipping).
var PassNames = map[string]Pass{
	"components":  ComponentPass,
	"manifest":    ManifestPass,
	"frontmatter": FrontmatterPass,
	"content":     ContentPass,
}

// passOrder ranks passes from most to least specific.
var passOrder = map[string]int{
	"components":  0,
	"manifest":    1,
	"frontmatter": 2,
	"content":     3,
}

// Run executes all passes (or a subset) and returns the aggregated results,
// ordered by file, then pass specificity, then line.
func Run(ds *diff.DiffSet, l Layout, skip []string) *Results {
	skipSet := make(map[string]bool)
	for _, s := range skip {
		skipSet[s] = true
	}

	results := &Results{}

	for name, pass := range PassNames {
		if skipSet[name] {
			continue
		}
		results.Findings = append(results.Findings, pass(ds, l)...)
	}

	sort.SliceStable(results.Findings, func(i, j int) bool {
		a, b := results.Findings[i], results.Findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if passOrder[a.Pass] != passOrder[b.Pass] {
			return passOrder[a.Pass] < passOrder[b.Pass]
		}
		return a.Line < b.Line
	})

	return results
}

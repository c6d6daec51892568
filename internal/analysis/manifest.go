package analysis

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/sprite-ai/plugver/internal/diff"
	"github.com/sprite-ai/plugver/internal/model"
)

var (
	jsonKeyLine     = regexp.MustCompile(`^\s*"([^"]+)"\s*:`)
	versionKeyLine  = regexp.MustCompile(`^\s*"version"\s*:`)
	structuralToken = regexp.MustCompile(`^\s*[\[\]{},]*\s*$`)
)

// Layout locates the manifest inside each plugin directory.
type Layout struct {
	ManifestDir  string
	ManifestFile string
}

// DefaultLayout is the Claude plugin marketplace layout.
var DefaultLayout = Layout{ManifestDir: ".claude-plugin", ManifestFile: "plugin.json"}

// IsManifestPath reports whether p is a plugin manifest under l. A zero
// Layout means DefaultLayout.
func (l Layout) IsManifestPath(p string) bool {
	if l.ManifestFile == "" {
		l = DefaultLayout
	}
	suffix := path.Join(l.ManifestDir, l.ManifestFile)
	return p == suffix || strings.HasSuffix(p, "/"+suffix)
}

// ManifestPass inspects plugin.json edits. A diff touching only the version
// line is the bump itself and implies nothing further; any other metadata
// edit is user-visible.
func ManifestPass(ds *diff.DiffSet, l Layout) []Finding {
	var findings []Finding

	for _, f := range ds.Files {
		if !l.IsManifestPath(f.Path()) {
			continue
		}

		switch {
		case f.IsNew:
			findings = append(findings, Finding{
				Pass:    "manifest",
				File:    f.Path(),
				Message: "Introduces the plugin manifest",
				Kind:    model.BumpNone,
			})
			continue
		case f.IsDeleted:
			findings = append(findings, Finding{
				Pass:    "manifest",
				File:    f.Path(),
				Message: "Deletes the plugin manifest",
				Kind:    model.BumpMajor,
			})
			continue
		}

		keys, versionOnly := changedManifestKeys(f)
		if versionOnly {
			findings = append(findings, Finding{
				Pass:    "manifest",
				File:    f.Path(),
				Message: "Only the manifest version changed",
				Kind:    model.BumpNone,
			})
			continue
		}

		msg := "Changes plugin manifest metadata"
		if len(keys) > 0 {
			msg = fmt.Sprintf("Changes plugin manifest metadata: %s", strings.Join(keys, ", "))
		}
		findings = append(findings, Finding{
			Pass:    "manifest",
			File:    f.Path(),
			Message: msg,
			Kind:    model.BumpPatch,
		})
	}

	return findings
}

// changedManifestKeys lists the non-version keys on changed lines, in order
// of first appearance. versionOnly is true when every substantive changed
// line is the version key.
func changedManifestKeys(f *diff.File) (keys []string, versionOnly bool) {
	seen := make(map[string]bool)
	substantive := 0
	versionLines := 0

	for _, frag := range f.Fragments {
		for _, line := range frag.Lines {
			if line.Op == gitdiff.OpContext {
				continue
			}
			text := strings.TrimRight(line.Line, "\r\n")
			if structuralToken.MatchString(text) {
				continue
			}
			substantive++
			if versionKeyLine.MatchString(text) {
				versionLines++
				continue
			}
			if m := jsonKeyLine.FindStringSubmatch(text); m != nil && !seen[m[1]] {
				seen[m[1]] = true
				keys = append(keys, m[1])
			}
		}
	}

	return keys, substantive > 0 && substantive == versionLines
}

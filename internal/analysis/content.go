package analysis

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/sprite-ai/plugver/internal/diff"
	"github.com/sprite-ai/plugver/internal/model"
)

// ContentPass covers every file the more specific passes leave alone.
// Edits that only move whitespace around imply no bump; anything else is a
// patch-level content change.
func ContentPass(ds *diff.DiffSet, l Layout) []Finding {
	var findings []Finding

	for _, f := range ds.Files {
		if l.IsManifestPath(f.Path()) || ownedByComponentPass(f) {
			continue
		}

		finding := Finding{Pass: "content", File: f.Path(), Kind: model.BumpPatch}
		switch {
		case f.IsBinary:
			finding.Message = "Changes a binary file"
		case f.IsNew:
			finding.Message = fmt.Sprintf("Adds %s", f.Path())
		case f.IsDeleted:
			finding.Message = fmt.Sprintf("Removes %s", f.Path())
		case f.AddedLines == 0 && f.DeletedLines == 0:
			if !f.IsRenamed {
				continue
			}
			finding.Message = fmt.Sprintf("Moves %s to %s", f.OldName, f.NewName)
		case whitespaceOnly(f):
			finding.Message = "Only whitespace changed"
			finding.Kind = model.BumpNone
		default:
			finding.Message = fmt.Sprintf("Changes content (+%d -%d)", f.AddedLines, f.DeletedLines)
		}
		findings = append(findings, finding)
	}

	return findings
}

// whitespaceOnly compares the removed and added text with all whitespace
// squeezed out.
func whitespaceOnly(f *diff.File) bool {
	var removed, added strings.Builder
	for _, frag := range f.Fragments {
		for _, line := range frag.Lines {
			switch line.Op {
			case gitdiff.OpDelete:
				removed.WriteString(squeeze(line.Line))
			case gitdiff.OpAdd:
				added.WriteString(squeeze(line.Line))
			}
		}
	}
	return removed.String() == added.String()
}

func squeeze(s string) string {
	return strings.Join(strings.Fields(s), "")
}

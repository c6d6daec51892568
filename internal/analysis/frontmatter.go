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

var yamlKeyLine = regexp.MustCompile(`^([A-Za-z0-9_-]+)\s*:`)

// FrontmatterPass detects edits inside the YAML frontmatter of markdown
// files. Frontmatter configures how commands, agents and skills are invoked.
func FrontmatterPass(ds *diff.DiffSet, _ Layout) []Finding {
	var findings []Finding

	for _, f := range ds.Files {
		if f.IsNew || f.IsDeleted || path.Ext(f.Path()) != ".md" {
			continue
		}

		keys, line := frontmatterEdits(f)
		if line == 0 {
			continue
		}

		msg := "Changes frontmatter"
		if len(keys) > 0 {
			msg = fmt.Sprintf("Changes frontmatter: %s", strings.Join(keys, ", "))
		}
		findings = append(findings, Finding{
			Pass:    "frontmatter",
			File:    f.Path(),
			Line:    line,
			Message: msg,
			Kind:    model.BumpPatch,
		})
	}

	return findings
}

// frontmatterEdits walks fragments that begin at the top of the file and
// returns the keys edited between the opening and closing "---", plus the
// new-file line of the first edit (0 when nothing inside changed).
func frontmatterEdits(f *diff.File) ([]string, int) {
	var keys []string
	seen := make(map[string]bool)
	firstLine := 0

	for _, frag := range f.Fragments {
		if frag.OldPosition > 1 && frag.NewPosition > 1 {
			continue
		}

		lineNum := int(frag.NewPosition)
		opened := false
	walk:
		for i, line := range frag.Lines {
			text := strings.TrimSpace(line.Line)
			switch {
			case i == 0:
				if text != "---" {
					break walk
				}
				opened = true
			case opened && text == "---":
				break walk
			case line.Op != gitdiff.OpContext:
				if firstLine == 0 {
					firstLine = lineNum
				}
				if m := yamlKeyLine.FindStringSubmatch(text); m != nil && !seen[m[1]] {
					seen[m[1]] = true
					keys = append(keys, m[1])
				}
			}
			if line.Op != gitdiff.OpDelete {
				lineNum++
			}
		}
	}

	return keys, firstLine
}

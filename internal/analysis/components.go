package analysis

import (
	"fmt"
	"path"
	"strings"

	"github.com/sprite-ai/plugver/internal/diff"
	"github.com/sprite-ai/plugver/internal/model"
)

// component is a user-invocable unit a plugin ships.
type component struct {
	kind string // command, agent or skill
	name string
}

func (c component) String() string {
	return fmt.Sprintf("%s %q", c.kind, c.name)
}

// componentOf recognises commands/<name>.md, agents/<name>.md and
// skills/<name>/SKILL.md anywhere below a plugin directory.
func componentOf(p string) (component, bool) {
	if p == "" {
		return component{}, false
	}
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		rest := segs[i+1:]
		switch seg {
		case "commands", "agents":
			if len(rest) == 0 || path.Ext(rest[len(rest)-1]) != ".md" {
				continue
			}
			name := strings.TrimSuffix(strings.Join(rest, ":"), ".md")
			return component{kind: strings.TrimSuffix(seg, "s"), name: name}, true
		case "skills":
			if len(rest) == 2 && rest[1] == "SKILL.md" {
				return component{kind: "skill", name: rest[0]}, true
			}
		}
	}
	return component{}, false
}

// ownedByComponentPass reports whether ComponentPass fully describes f.
func ownedByComponentPass(f *diff.File) bool {
	switch {
	case f.IsNew:
		_, ok := componentOf(f.NewName)
		return ok
	case f.IsDeleted:
		_, ok := componentOf(f.OldName)
		return ok
	case f.IsRenamed:
		oldC, oldOK := componentOf(f.OldName)
		newC, newOK := componentOf(f.NewName)
		return (oldOK || newOK) && oldC != newC
	}
	return false
}

// ComponentPass flags commands, agents and skills that were added, removed
// or renamed. Additions are backward compatible; removals and renames break
// anyone invoking the old name.
func ComponentPass(ds *diff.DiffSet, _ Layout) []Finding {
	var findings []Finding

	for _, f := range ds.Files {
		switch {
		case f.IsNew:
			if c, ok := componentOf(f.NewName); ok {
				findings = append(findings, Finding{
					Pass:    "components",
					File:    f.Path(),
					Message: fmt.Sprintf("Adds %s", c),
					Kind:    model.BumpMinor,
				})
			}

		case f.IsDeleted:
			if c, ok := componentOf(f.OldName); ok {
				findings = append(findings, Finding{
					Pass:    "components",
					File:    f.Path(),
					Message: fmt.Sprintf("Removes %s", c),
					Kind:    model.BumpMajor,
				})
			}

		case f.IsRenamed:
			oldC, oldOK := componentOf(f.OldName)
			newC, newOK := componentOf(f.NewName)
			switch {
			case oldOK && (!newOK || oldC != newC):
				findings = append(findings, Finding{
					Pass:    "components",
					File:    f.Path(),
					Message: fmt.Sprintf("Renames %s away from its old name", oldC),
					Kind:    model.BumpMajor,
				})
			case newOK && !oldOK:
				findings = append(findings, Finding{
					Pass:    "components",
					File:    f.Path(),
					Message: fmt.Sprintf("Adds %s", newC),
					Kind:    model.BumpMinor,
				})
			}
		}
	}

	return findings
}

package tui

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/sprite-ai/plugver/internal/diff"
)

// renderedLine is a single line of diff output ready for display.
type renderedLine struct {
	OldNum  int // 0 means not applicable (add-only)
	NewNum  int // 0 means not applicable (delete-only)
	Op      gitdiff.LineOp
	Content string
	IsHunk  bool
	IsFile  bool
}

// renderDiff flattens every file of a plugin diff into display lines, each
// file introduced by a header line.
func renderDiff(ds *diff.DiffSet) []renderedLine {
	if ds == nil {
		return nil
	}

	var lines []renderedLine
	for i, f := range ds.Files {
		if i > 0 {
			lines = append(lines, renderedLine{})
		}
		lines = append(lines, renderedLine{IsFile: true, Content: fileLabel(f)})
		if f.IsBinary {
			lines = append(lines, renderedLine{Content: "Binary file changed"})
			continue
		}
		lines = append(lines, renderFile(f)...)
	}
	return lines
}

func fileLabel(f *diff.File) string {
	switch {
	case f.IsNew:
		return f.Name() + " (new)"
	case f.IsDeleted:
		return f.Name() + " (deleted)"
	default:
		return f.Name()
	}
}

// renderFile produces renderedLines for a file's diff fragments.
func renderFile(f *diff.File) []renderedLine {
	var lines []renderedLine

	for _, frag := range f.Fragments {
		lines = append(lines, renderedLine{
			IsHunk:  true,
			Content: formatHunkHeader(frag),
		})

		oldLine := int(frag.OldPosition)
		newLine := int(frag.NewPosition)

		for _, line := range frag.Lines {
			rl := renderedLine{
				Op:      line.Op,
				Content: strings.TrimRight(line.Line, "\n\r"),
			}

			switch line.Op {
			case gitdiff.OpContext:
				rl.OldNum = oldLine
				rl.NewNum = newLine
				oldLine++
				newLine++
			case gitdiff.OpDelete:
				rl.OldNum = oldLine
				oldLine++
			case gitdiff.OpAdd:
				rl.NewNum = newLine
				newLine++
			}

			lines = append(lines, rl)
		}
	}

	return lines
}

func formatHunkHeader(frag *gitdiff.TextFragment) string {
	old := fmt.Sprintf("-%d", frag.OldPosition)
	if frag.OldLines != 1 {
		old += fmt.Sprintf(",%d", frag.OldLines)
	}
	new := fmt.Sprintf("+%d", frag.NewPosition)
	if frag.NewLines != 1 {
		new += fmt.Sprintf(",%d", frag.NewLines)
	}

	header := fmt.Sprintf("@@ %s %s @@", old, new)
	if frag.Comment != "" {
		header += " " + frag.Comment
	}
	return header
}

func lineNumber(n int) string {
	if n <= 0 {
		return "    "
	}
	return fmt.Sprintf("%4d", n)
}

// styleLine applies styling to a rendered line for unified view.
func styleLine(rl renderedLine, width int) string {
	if rl.IsFile {
		return fileHeaderStyle.Render(truncate(rl.Content, width))
	}
	if rl.IsHunk {
		return hunkHeaderStyle.Width(width).Render(truncate(rl.Content, width))
	}
	if rl.OldNum == 0 && rl.NewNum == 0 {
		return contextLineStyle.Render(truncate(rl.Content, width))
	}

	lineNums := lineNumberStyle.Render(lineNumber(rl.OldNum)) + " " + lineNumberStyle.Render(lineNumber(rl.NewNum))
	content := truncate(rl.Content, width-12)

	switch rl.Op {
	case gitdiff.OpAdd:
		content = addedLineStyle.Render("+" + content)
	case gitdiff.OpDelete:
		content = deletedLineStyle.Render("-" + content)
	default:
		content = contextLineStyle.Render(" " + content)
	}

	return lineNums + " " + content
}

// styleLineSplit renders a line for split (side-by-side) view.
func styleLineSplit(rl renderedLine, halfWidth int) (left, right string) {
	if rl.IsFile {
		return fileHeaderStyle.Render(truncate(rl.Content, halfWidth*2)), ""
	}
	if rl.IsHunk {
		return hunkHeaderStyle.Width(halfWidth).Render(truncate(rl.Content, halfWidth)), ""
	}
	if rl.OldNum == 0 && rl.NewNum == 0 {
		return contextLineStyle.Render(truncate(rl.Content, halfWidth)), ""
	}

	maxContent := halfWidth - 7
	content := truncate(rl.Content, maxContent)

	switch rl.Op {
	case gitdiff.OpDelete:
		left = lineNumberStyle.Render(lineNumber(rl.OldNum)) + " " + deletedLineStyle.Render("-"+content)
		right = strings.Repeat(" ", halfWidth)
	case gitdiff.OpAdd:
		left = strings.Repeat(" ", halfWidth)
		right = lineNumberStyle.Render(lineNumber(rl.NewNum)) + " " + addedLineStyle.Render("+"+content)
	default:
		left = lineNumberStyle.Render(lineNumber(rl.OldNum)) + " " + contextLineStyle.Render(" "+content)
		right = lineNumberStyle.Render(lineNumber(rl.NewNum)) + " " + contextLineStyle.Render(" "+content)
	}

	return left, right
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}

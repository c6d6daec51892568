package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/plugver/internal/governance"
)

const testDiff = `diff --git a/plugins/foo/commands/deploy.md b/plugins/foo/commands/deploy.md
index abc1234..def5678 100644
--- a/plugins/foo/commands/deploy.md
+++ b/plugins/foo/commands/deploy.md
@@ -1,4 +1,5 @@
 # Deploy
 
-Deploy the service.
+Deploy the service to staging.
+Then promote to production.
 
@@ -10,2 +11,2 @@ Usage
-old usage
+new usage
 end
diff --git a/plugins/foo/skills/pdf/SKILL.md b/plugins/foo/skills/pdf/SKILL.md
new file mode 100644
--- /dev/null
+++ b/plugins/foo/skills/pdf/SKILL.md
@@ -0,0 +1,2 @@
+# PDF
+Reads PDFs.
`

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	newM, _ := m.Update(msg)
	return newM.(Model)
}

func press(t *testing.T, m Model, r rune) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func setupModel(t *testing.T) Model {
	t.Helper()
	m := New()
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(t, m, startMsg{"bar", "foo"})
	m = update(t, m, resultMsg(governance.PluginStatus{
		Plugin:  "foo",
		Changed: true,
		Stats:   governance.DiffStats{Files: 2, Added: 5, Deleted: 2},
		Diff:    testDiff,
	}))
	return m
}

func TestStartAndResult(t *testing.T) {
	m := setupModel(t)

	if len(m.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(m.rows))
	}
	if m.rows[0].status != nil {
		t.Error("expected bar to be pending")
	}
	if m.rows[1].status == nil || len(m.rows[1].lines) == 0 {
		t.Error("expected foo to have a rendered diff")
	}
}

func TestResultForUnknownPluginAppends(t *testing.T) {
	m := setupModel(t)
	m = update(t, m, resultMsg(governance.PluginStatus{Plugin: "zed"}))

	if len(m.rows) != 3 || m.rows[2].name != "zed" {
		t.Errorf("expected zed appended, got %+v", m.rows)
	}
}

func TestNavigation(t *testing.T) {
	m := setupModel(t)

	m = press(t, m, 'n')
	if m.rowIndex != 1 {
		t.Errorf("expected rowIndex 1 after next, got %d", m.rowIndex)
	}

	// Past the end it stays put.
	m = press(t, m, 'n')
	if m.rowIndex != 1 {
		t.Errorf("expected rowIndex 1 at end, got %d", m.rowIndex)
	}

	m = press(t, m, 'N')
	if m.rowIndex != 0 {
		t.Errorf("expected rowIndex 0 after prev, got %d", m.rowIndex)
	}
}

func TestScrolling(t *testing.T) {
	m := setupModel(t)
	m = press(t, m, 'n')

	m = press(t, m, 'j')
	if m.scrollOffset != 1 {
		t.Errorf("expected scrollOffset 1, got %d", m.scrollOffset)
	}

	m = press(t, m, 'k')
	m = press(t, m, 'k')
	if m.scrollOffset != 0 {
		t.Errorf("expected scrollOffset 0 at top, got %d", m.scrollOffset)
	}
}

func TestHunkJumps(t *testing.T) {
	m := setupModel(t)
	m = press(t, m, 'n')

	m = press(t, m, ']')
	first := m.scrollOffset
	if !m.lines()[first].IsHunk {
		t.Fatalf("expected a hunk header at %d", first)
	}

	m = press(t, m, ']')
	if m.scrollOffset <= first || !m.lines()[m.scrollOffset].IsHunk {
		t.Errorf("expected the second hunk after %d, got %d", first, m.scrollOffset)
	}

	m = press(t, m, '[')
	if m.scrollOffset != first {
		t.Errorf("expected to return to %d, got %d", first, m.scrollOffset)
	}
}

func TestRenderDiff(t *testing.T) {
	m := setupModel(t)
	lines := m.rows[1].lines

	var files, hunks int
	for _, l := range lines {
		if l.IsFile {
			files++
		}
		if l.IsHunk {
			hunks++
		}
	}
	if files != 2 {
		t.Errorf("expected 2 file headers, got %d", files)
	}
	if hunks != 3 {
		t.Errorf("expected 3 hunk headers, got %d", hunks)
	}
	if lines[len(lines)-1].NewNum != 2 {
		t.Errorf("expected last added line numbered 2, got %d", lines[len(lines)-1].NewNum)
	}
}

func TestToggleView(t *testing.T) {
	m := setupModel(t)

	if m.splitView {
		t.Error("expected unified view by default")
	}
	m = press(t, m, 'v')
	if !m.splitView {
		t.Error("expected split view after toggle")
	}
	if view := m.View(); view == "" {
		t.Error("expected split view to render")
	}
}

func TestViewRenders(t *testing.T) {
	m := setupModel(t)
	m = press(t, m, 'n')

	view := m.View()
	if !strings.Contains(view, "foo") {
		t.Error("expected view to contain the plugin name")
	}
	if !strings.Contains(view, "staging") {
		t.Error("expected view to contain diff content")
	}
	if !strings.Contains(view, "checking") {
		t.Error("expected the status bar to show progress")
	}
}

func TestDoneStatus(t *testing.T) {
	tests := []struct {
		name string
		msg  doneMsg
		want string
	}{
		{"compliant", doneMsg{report: &governance.CheckReport{NonCompliant: []string{}}}, "all plugins compliant"},
		{"non-compliant", doneMsg{report: &governance.CheckReport{NonCompliant: []string{"foo"}}}, "1 plugin(s) need a version bump"},
		{"error", doneMsg{err: errors.New("boom")}, "error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := update(t, setupModel(t), tt.msg)
			if !m.done {
				t.Error("expected done")
			}
			if !strings.Contains(m.View(), tt.want) {
				t.Errorf("expected view to contain %q", tt.want)
			}
		})
	}
}

func TestEmptyCheck(t *testing.T) {
	m := update(t, New(), tea.WindowSizeMsg{Width: 100, Height: 30})
	m = update(t, m, startMsg{})
	m = update(t, m, doneMsg{report: &governance.CheckReport{NonCompliant: []string{}}})

	if !strings.Contains(m.View(), "No changed plugins") {
		t.Error("expected an empty-state message")
	}
	if m.Report() == nil {
		t.Error("expected the report to be kept")
	}
}

func TestQuit(t *testing.T) {
	m := setupModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestHelpToggle(t *testing.T) {
	m := setupModel(t)
	m = press(t, m, '?')
	if !m.showHelp {
		t.Error("expected help to be shown")
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("expected help view to contain shortcuts")
	}
}

package diff

import (
	"sort"
	"testing"
)

const sampleDiff = `diff --git a/plugins/foo/commands/hello.md b/plugins/foo/commands/hello.md
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/plugins/foo/commands/hello.md
@@ -0,0 +1,4 @@
+---
+description: Say hello
+---
+Greet the user by name.
diff --git a/plugins/foo/README.md b/plugins/foo/README.md
index abc1234..def5678 100644
--- a/plugins/foo/README.md
+++ b/plugins/foo/README.md
@@ -1,3 +1,4 @@
 # Foo

-Old description
+New description
+Added line
`

func TestParse(t *testing.T) {
	ds, err := Parse(sampleDiff)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(ds.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(ds.Files))
	}

	f0 := ds.Files[0]
	if !f0.IsNew {
		t.Error("expected hello.md to be new")
	}
	if f0.Name() != "plugins/foo/commands/hello.md" {
		t.Errorf("unexpected name %q", f0.Name())
	}
	if f0.AddedLines != 4 {
		t.Errorf("expected 4 added lines, got %d", f0.AddedLines)
	}

	f1 := ds.Files[1]
	if f1.Name() != "plugins/foo/README.md" {
		t.Errorf("unexpected name %q", f1.Name())
	}
	if f1.AddedLines != 2 {
		t.Errorf("expected 2 added lines, got %d", f1.AddedLines)
	}
	if f1.DeletedLines != 1 {
		t.Errorf("expected 1 deleted line, got %d", f1.DeletedLines)
	}

	files, added, deleted := ds.Stats()
	if files != 2 || added != 6 || deleted != 1 {
		t.Errorf("stats = (%d, %d, %d), expected (2, 6, 1)", files, added, deleted)
	}
}

func TestParseEmpty(t *testing.T) {
	ds, err := Parse("")
	if err != nil {
		t.Fatalf("Parse empty failed: %v", err)
	}
	if len(ds.Files) != 0 {
		t.Errorf("expected 0 files, got %d", len(ds.Files))
	}
}

const renameDiff = `diff --git a/plugins/foo/agents/old.md b/plugins/bar/agents/new.md
similarity index 100%
rename from plugins/foo/agents/old.md
rename to plugins/bar/agents/new.md
`

func TestPathsIncludesBothRenameSides(t *testing.T) {
	ds, err := Parse(renameDiff)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ds.Files) != 1 || !ds.Files[0].IsRenamed {
		t.Fatalf("expected one renamed file, got %+v", ds.Files)
	}

	paths := ds.Paths()
	sort.Strings(paths)
	want := []string{"plugins/bar/agents/new.md", "plugins/foo/agents/old.md"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("Paths() = %v, want %v", paths, want)
	}
	if ds.Files[0].Path() != "plugins/bar/agents/new.md" {
		t.Errorf("Path() = %q", ds.Files[0].Path())
	}
}

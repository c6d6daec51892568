package oracle

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/plugver/internal/analysis"
	"github.com/sprite-ai/plugver/internal/model"
)

// fakeCLI writes an executable shell script standing in for the claude binary.
func fakeCLI(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "claude")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestClaudeCLIPassesModelAndPrompt(t *testing.T) {
	bin := fakeCLI(t, `echo "$# $1 $2 $3"; cat`)

	out, err := NewClaudeCLI(bin, "", 0).Complete(context.Background(), "DECISION please")
	require.NoError(t, err)
	assert.Equal(t, "3 --model haiku -p\nDECISION please", out)
}

func TestClaudeCLIHandlesLargeDiffs(t *testing.T) {
	// Reports the byte count it read on stdin, then a verdict.
	bin := fakeCLI(t, `n=$(wc -c | tr -d ' '); printf 'DECISION: PATCH\nREASON: read %s bytes\n' "$n"`)

	diff := "diff --git a/plugins/foo/skills/big/SKILL.md b/plugins/foo/skills/big/SKILL.md\n" +
		strings.Repeat("+a line of a very large skill file\n", 7000)
	require.Greater(t, len(diff), 200*1024)

	a := NewAdapter(NewClaudeCLI(bin, "", 0), nil)
	v, err := a.ClassifyBump(context.Background(), "foo", diff)
	require.NoError(t, err)
	assert.Equal(t, model.BumpPatch, v.Kind)
	assert.Contains(t, v.Reason, "read ")
	assert.NotEqual(t, "read 0 bytes", v.Reason)

	required := fakeCLI(t, `cat >/dev/null; echo NO`)
	assert.False(t, NewAdapter(NewClaudeCLI(required, "", 0), nil).ClassifyRequired(context.Background(), diff))
}

func TestClaudeCLIFailures(t *testing.T) {
	t.Run("non-zero exit", func(t *testing.T) {
		bin := fakeCLI(t, `echo "not logged in" >&2; exit 3`)
		_, err := NewClaudeCLI(bin, "haiku", time.Second).Complete(context.Background(), "p")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not logged in")
	})

	t.Run("empty output", func(t *testing.T) {
		bin := fakeCLI(t, `exit 0`)
		_, err := NewClaudeCLI(bin, "haiku", time.Second).Complete(context.Background(), "p")
		assert.ErrorContains(t, err, "empty response")
	})

	t.Run("timeout", func(t *testing.T) {
		bin := fakeCLI(t, `exec sleep 5`)
		_, err := NewClaudeCLI(bin, "haiku", 50*time.Millisecond).Complete(context.Background(), "p")
		assert.ErrorContains(t, err, "timed out")
	})
}

func TestClaudeCLIThroughAdapter(t *testing.T) {
	bin := fakeCLI(t, `printf 'DECISION: PATCH\nREASON: Reworded a prompt\n'`)

	v, err := NewAdapter(NewClaudeCLI(bin, "", 0), nil).ClassifyBump(context.Background(), "foo", "D")
	require.NoError(t, err)
	assert.Equal(t, model.Verdict{Kind: model.BumpPatch, Reason: "Reworded a prompt"}, v)
}

const rulesMinorDiff = `diff --git a/plugins/bar/skills/pdf/SKILL.md b/plugins/bar/skills/pdf/SKILL.md
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/plugins/bar/skills/pdf/SKILL.md
@@ -0,0 +1,2 @@
+# PDF
+Extract text from PDFs.
`

const rulesWhitespaceDiff = `diff --git a/plugins/bar/README.md b/plugins/bar/README.md
index abc1234..def5678 100644
--- a/plugins/bar/README.md
+++ b/plugins/bar/README.md
@@ -1,2 +1,2 @@
 # Bar
-Does  things.
+Does things.
`

func TestRules(t *testing.T) {
	r := NewRules(nil, analysis.DefaultLayout)
	ctx := context.Background()

	v, err := r.ClassifyBump(ctx, "bar", rulesMinorDiff)
	require.NoError(t, err)
	assert.Equal(t, model.BumpMinor, v.Kind)
	assert.Equal(t, `Adds skill "pdf"`, v.Reason)
	assert.True(t, r.ClassifyRequired(ctx, rulesMinorDiff))

	v, err = r.ClassifyBump(ctx, "bar", rulesWhitespaceDiff)
	require.NoError(t, err)
	assert.Equal(t, model.BumpNone, v.Kind)
	assert.False(t, r.ClassifyRequired(ctx, rulesWhitespaceDiff))

	assert.False(t, r.ClassifyRequired(ctx, ""))
}

const rulesCustomManifestDiff = `diff --git a/plugins/bar/meta/manifest.json b/plugins/bar/meta/manifest.json
index abc1234..def5678 100644
--- a/plugins/bar/meta/manifest.json
+++ b/plugins/bar/meta/manifest.json
@@ -1,4 +1,4 @@
 {
   "name": "bar",
-  "version": "0.1.0"
+  "version": "0.2.0"
 }
`

func TestRulesFollowManifestLayout(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, Options{
		Backend: BackendRules,
		Layout:  analysis.Layout{ManifestDir: "meta", ManifestFile: "manifest.json"},
	}, nil)
	require.NoError(t, err)

	v, err := c.ClassifyBump(ctx, "bar", rulesCustomManifestDiff)
	require.NoError(t, err)
	assert.Equal(t, model.BumpNone, v.Kind, "a version-only manifest edit is the bump itself")
	assert.False(t, c.ClassifyRequired(ctx, rulesCustomManifestDiff))

	v, err = NewRules(nil, analysis.DefaultLayout).ClassifyBump(ctx, "bar", rulesCustomManifestDiff)
	require.NoError(t, err)
	assert.Equal(t, model.BumpPatch, v.Kind, "under the default layout the file is plain content")
}

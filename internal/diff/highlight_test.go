package diff

import (
	"bytes"
	"strings"
	"testing"
)

func TestHighlightKeepsContent(t *testing.T) {
	var buf bytes.Buffer
	if err := Highlight(&buf, sampleDiff, "dracula"); err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "\x1b[") {
		t.Error("expected ANSI escapes in highlighted output")
	}
	for _, want := range []string{"plugins/foo/README.md", "New description", "Greet the user by name."} {
		if !strings.Contains(out, want) {
			t.Errorf("highlighted output missing %q", want)
		}
	}
}

func TestHighlightUnknownStyleFallsBack(t *testing.T) {
	var buf bytes.Buffer
	if err := Highlight(&buf, "+added\n", "no-such-style-xyz"); err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}
	if !strings.Contains(buf.String(), "added") {
		t.Errorf("expected passthrough content, got %q", buf.String())
	}
}

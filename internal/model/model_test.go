package model

import (
	"testing"
)

func TestBumpKindString(t *testing.T) {
	tests := []struct {
		kind BumpKind
		want string
	}{
		{BumpNone, "NONE"},
		{BumpPatch, "PATCH"},
		{BumpMinor, "MINOR"},
		{BumpMajor, "MAJOR"},
		{BumpKind(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("BumpKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestBumpKindOrdering(t *testing.T) {
	if !(BumpNone < BumpPatch && BumpPatch < BumpMinor && BumpMinor < BumpMajor) {
		t.Error("expected NONE < PATCH < MINOR < MAJOR")
	}
}

func TestParseBumpKind(t *testing.T) {
	for _, in := range []string{"minor", "MINOR", " Minor "} {
		k, err := ParseBumpKind(in)
		if err != nil {
			t.Fatalf("ParseBumpKind(%q): %v", in, err)
		}
		if k != BumpMinor {
			t.Errorf("ParseBumpKind(%q) = %s, want MINOR", in, k)
		}
	}

	if _, err := ParseBumpKind("huge"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestScopeRef(t *testing.T) {
	if got := (Scope{}).Ref(); got != "HEAD" {
		t.Errorf("default ref = %q, want HEAD", got)
	}
	if got := (Scope{BranchRef: "feature"}).Ref(); got != "feature" {
		t.Errorf("ref = %q, want feature", got)
	}
}

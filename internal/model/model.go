// Package model defines the core data types shared across plugver.
package model

import (
	"fmt"
	"strings"
)

// DefaultBranchRef is the ref compared against the remote base when none is given.
const DefaultBranchRef = "HEAD"

// BumpKind is the semantic impact of a change, ordered by severity.
type BumpKind int

const (
	BumpNone BumpKind = iota
	BumpPatch
	BumpMinor
	BumpMajor
)

func (k BumpKind) String() string {
	switch k {
	case BumpNone:
		return "NONE"
	case BumpPatch:
		return "PATCH"
	case BumpMinor:
		return "MINOR"
	case BumpMajor:
		return "MAJOR"
	default:
		return "UNKNOWN"
	}
}

// ParseBumpKind maps a decision word (any case) to a BumpKind.
func ParseBumpKind(s string) (BumpKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return BumpNone, nil
	case "PATCH":
		return BumpPatch, nil
	case "MINOR":
		return BumpMinor, nil
	case "MAJOR":
		return BumpMajor, nil
	default:
		return BumpNone, fmt.Errorf("unknown bump kind %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k BumpKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BumpKind) UnmarshalText(b []byte) error {
	parsed, err := ParseBumpKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Scope selects which diff sources are unioned when looking for changes.
type Scope struct {
	IncludeStaged bool
	BranchRef     string
}

// Ref returns the branch ref, falling back to HEAD.
func (s Scope) Ref() string {
	if s.BranchRef == "" {
		return DefaultBranchRef
	}
	return s.BranchRef
}

// Verdict is the graded classification of one plugin diff.
type Verdict struct {
	Kind   BumpKind
	Reason string
}

func (v Verdict) String() string {
	return fmt.Sprintf("%s: %s", v.Kind, v.Reason)
}

// Package semver implements the plugin version arithmetic.
package semver

import (
	"fmt"
	"strconv"
	"strings"

	modsemver "golang.org/x/mod/semver"

	"github.com/sprite-ai/plugver/internal/model"
)

// Version is a MAJOR.MINOR.PATCH triple. Prerelease and build metadata are not
// part of plugin manifests.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Parse reads a "X.Y.Z" version string with non-negative integer components.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if !modsemver.IsValid("v"+s) || modsemver.Canonical("v"+s) != "v"+s {
		return Version{}, fmt.Errorf("invalid version %q: want MAJOR.MINOR.PATCH", s)
	}

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: want MAJOR.MINOR.PATCH", s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Next returns the version after applying kind to v. NONE returns v unchanged.
func Next(v Version, kind model.BumpKind) Version {
	switch kind {
	case model.BumpMajor:
		return Version{Major: v.Major + 1}
	case model.BumpMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}
	case model.BumpPatch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	default:
		return v
	}
}

// Compare returns -1, 0 or +1 as a is less than, equal to, or greater than b.
func Compare(a, b Version) int {
	return modsemver.Compare("v"+a.String(), "v"+b.String())
}

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/plugver/internal/apperr"
	"github.com/sprite-ai/plugver/internal/semver"
)

const withExtras = `{
  "name": "foo",
  "version": "0.1.0",
  "description": "Does foo things",
  "keywords": [
    "a",
    "b"
  ],
  "author": {
    "name": "Jane",
    "email": "jane@example.com"
  },
  "homepage": "https://example.com/foo",
  "license": "MIT",
  "count": 12.50
}
`

func writeManifest(t *testing.T, repo, plugin, content string) string {
	t.Helper()
	path := filepath.Join(repo, "plugins", plugin, ".claude-plugin", "plugin.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDecodeKnownFields(t *testing.T) {
	m, err := Decode([]byte(withExtras))
	require.NoError(t, err)

	assert.Equal(t, "foo", m.Name)
	assert.Equal(t, "Does foo things", m.Description)
	assert.Equal(t, semver.MustParse("0.1.0"), m.Version)
	require.NotNil(t, m.Author)
	assert.Equal(t, "Jane", m.Author.Name)
	assert.Equal(t, []string{"name", "version", "description", "keywords", "author", "homepage", "license", "count"}, m.Keys())
}

func TestDecodeMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":        `name: foo`,
		"array":           `["foo"]`,
		"missing name":    `{"version": "1.0.0"}`,
		"empty name":      `{"name": "", "version": "1.0.0"}`,
		"missing version": `{"name": "foo"}`,
		"numeric version": `{"name": "foo", "version": 1}`,
		"bad version":     `{"name": "foo", "version": "1.x"}`,
		"bad author":      `{"name": "foo", "version": "1.0.0", "author": "Jane"}`,
		"trailing data":   `{"name": "foo", "version": "1.0.0"} {}`,
		"truncated":       `{"name": "foo", "version": "1.0.0"`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(input))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEncodeRoundTripPreservesEverythingButVersion(t *testing.T) {
	m, err := Decode([]byte(withExtras))
	require.NoError(t, err)

	out, err := m.Encode()
	require.NoError(t, err)
	if diff := cmp.Diff(withExtras, string(out)); diff != "" {
		t.Errorf("unchanged manifest did not round-trip (-want +got):\n%s", diff)
	}

	m.Version = semver.MustParse("0.2.0")
	out, err = m.Encode()
	require.NoError(t, err)

	bumped, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, m.Keys(), bumped.Keys())
	for _, k := range m.Keys() {
		if k == "version" {
			continue
		}
		before, _ := m.Raw(k)
		after, _ := bumped.Raw(k)
		assert.JSONEq(t, string(before), string(after), "field %s changed", k)
	}
	assert.Equal(t, "0.2.0", bumped.Version.String())
}

func TestEncodeTrailingNewlineAndIndent(t *testing.T) {
	m, err := Decode([]byte(`{"name":"x","version":"1.0.0"}`))
	require.NoError(t, err)

	out, err := m.Encode()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"x\",\n  \"version\": \"1.0.0\"\n}\n", string(out))
}

func TestEncodeAuthorChangeKeepsSiblings(t *testing.T) {
	m, err := Decode([]byte(withExtras))
	require.NoError(t, err)

	m.Author.Name = "Sam"
	out, err := m.Encode()
	require.NoError(t, err)

	raw, ok := mustDecode(t, out).Raw("author")
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Sam","email":"jane@example.com"}`, string(raw))
}

func mustDecode(t *testing.T, b []byte) *Manifest {
	t.Helper()
	m, err := Decode(b)
	require.NoError(t, err)
	return m
}

func TestStoreLoadErrors(t *testing.T) {
	repo := t.TempDir()
	s := NewStore(repo, DefaultLayout)

	_, err := s.Load("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, apperr.CodeManifestNotFound, apperr.CodeOf(err))

	writeManifest(t, repo, "broken", "{not json")
	_, err = s.Load("broken")
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, apperr.CodeManifestMalformed, apperr.CodeOf(err))

	_, err = s.Load("../etc")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	repo := t.TempDir()
	path := writeManifest(t, repo, "foo", withExtras)
	s := NewStore(repo, DefaultLayout)

	m, err := s.Load("foo")
	require.NoError(t, err)
	require.NoError(t, s.Save("foo", m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, withExtras, string(data))

	m.Version = semver.MustParse("1.0.0")
	require.NoError(t, s.Save("foo", m))

	reloaded, err := s.Load("foo")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", reloaded.Version.String())

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreSaveRejectsRegression(t *testing.T) {
	repo := t.TempDir()
	writeManifest(t, repo, "foo", `{"name":"foo","version":"2.0.0"}`)
	s := NewStore(repo, DefaultLayout)

	m, err := s.Load("foo")
	require.NoError(t, err)
	m.Version = semver.MustParse("1.9.9")

	err = s.Save("foo", m)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeVersionRegression, apperr.CodeOf(err))

	var ae *apperr.Error
	assert.True(t, errors.As(err, &ae))
}

func TestStorePaths(t *testing.T) {
	s := NewStore("/repo", DefaultLayout)
	assert.Equal(t, "plugins/foo/.claude-plugin/plugin.json", s.RelPath("foo"))
	assert.Equal(t, filepath.Join("/repo", "plugins", "foo", ".claude-plugin", "plugin.json"), s.Path("foo"))
}

func TestDiscover(t *testing.T) {
	repo := t.TempDir()
	a := writeManifest(t, repo, "alpha", `{"name":"alpha","version":"1.0.0"}`)
	nested := filepath.Join(repo, "plugins", "group", "beta", ".claude-plugin", "plugin.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(nested), 0o755))
	require.NoError(t, os.WriteFile(nested, []byte(`{}`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "plugins", "empty"), 0o755))

	found := NewStore(repo, DefaultLayout).Discover()
	assert.ElementsMatch(t, []string{a, nested}, found)
}

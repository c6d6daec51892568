package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sprite-ai/plugver/internal/apperr"
	"github.com/sprite-ai/plugver/internal/semver"
)

// Layout locates manifests inside a repository.
type Layout struct {
	PluginsRoot  string // e.g. "plugins"
	ManifestDir  string // e.g. ".claude-plugin"
	ManifestFile string // e.g. "plugin.json"
}

// DefaultLayout is the Claude plugin marketplace layout.
var DefaultLayout = Layout{
	PluginsRoot:  "plugins",
	ManifestDir:  ".claude-plugin",
	ManifestFile: "plugin.json",
}

// Store is the only writer of plugin manifests.
type Store struct {
	repoDir string
	layout  Layout
}

// NewStore creates a store rooted at repoDir.
func NewStore(repoDir string, layout Layout) *Store {
	return &Store{repoDir: repoDir, layout: layout}
}

// RelPath returns the manifest path relative to the repository root, using
// forward slashes.
func (s *Store) RelPath(plugin string) string {
	return strings.Join([]string{s.layout.PluginsRoot, plugin, s.layout.ManifestDir, s.layout.ManifestFile}, "/")
}

// Path returns the manifest's filesystem path.
func (s *Store) Path(plugin string) string {
	return filepath.Join(s.repoDir, filepath.FromSlash(s.RelPath(plugin)))
}

// ValidPluginID reports whether id can name a plugin directory.
func ValidPluginID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// Load reads and validates a plugin's manifest.
func (s *Store) Load(plugin string) (*Manifest, error) {
	if !ValidPluginID(plugin) {
		return nil, apperr.New(apperr.CodeInvalidArgument, fmt.Sprintf("invalid plugin name %q", plugin))
	}

	path := s.Path(plugin)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.Wrapf(fmt.Errorf("%w: %s", ErrNotFound, path), apperr.CodeManifestNotFound, "no manifest for plugin %s", plugin)
		}
		return nil, apperr.Wrapf(err, apperr.CodeInternal, "reading manifest for plugin %s", plugin)
	}

	m, err := Decode(data)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.CodeManifestMalformed, "invalid manifest %s", path)
	}
	return m, nil
}

// Save replaces the plugin's manifest with m. The content is written to a
// temporary file in the same directory and renamed over the original, so a
// concurrent reader sees either the old or the new file. A version lower than
// the one on disk is rejected.
func (s *Store) Save(plugin string, m *Manifest) error {
	if !ValidPluginID(plugin) {
		return apperr.New(apperr.CodeInvalidArgument, fmt.Sprintf("invalid plugin name %q", plugin))
	}

	path := s.Path(plugin)
	perm := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
		if cur, err := s.Load(plugin); err == nil && semver.Compare(m.Version, cur.Version) < 0 {
			return apperr.New(apperr.CodeVersionRegression,
				fmt.Sprintf("refusing to lower %s from %s to %s", plugin, cur.Version, m.Version))
		}
	}

	data, err := m.Encode()
	if err != nil {
		return apperr.Wrapf(err, apperr.CodeManifestWrite, "encoding manifest for %s", plugin)
	}

	if err := writeFileAtomic(path, data, perm); err != nil {
		return apperr.Wrapf(err, apperr.CodeManifestWrite, "writing %s", path)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Discover finds manifest files under the plugins root. A directory holding
// <ManifestDir>/<ManifestFile> is a plugin; other directories are searched
// recursively. Unreadable entries are skipped.
func (s *Store) Discover() []string {
	return s.discover(filepath.Join(s.repoDir, filepath.FromSlash(s.layout.PluginsRoot)))
}

func (s *Store) discover(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var found []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		full := filepath.Join(dir, e.Name())
		candidate := filepath.Join(full, s.layout.ManifestDir, s.layout.ManifestFile)
		if _, err := os.Stat(candidate); err == nil {
			found = append(found, candidate)
			continue
		}
		found = append(found, s.discover(full)...)
	}
	return found
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("repo", "", "")
	fs.String("oracle", "", "")
	fs.String("model", "", "")
	fs.String("log-level", "", "")
	fs.Int("concurrency", 0, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "plugins", cfg.Repo.PluginsRoot)
	assert.Equal(t, ".claude-plugin", cfg.Repo.ManifestDir)
	assert.Equal(t, "plugin.json", cfg.Repo.ManifestFile)
	assert.Equal(t, "origin", cfg.Repo.Remote)
	assert.Equal(t, "main", cfg.Repo.BaseBranch)
	assert.Equal(t, "claude-cli", cfg.Oracle.Backend)
	assert.Equal(t, "claude", cfg.Oracle.Command)
	assert.Equal(t, 120*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 1, cfg.Check.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Address())
	assert.Empty(t, cfg.FileUsed)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".plugver.yaml", `
oracle:
  backend: rules
  model: from-file
  timeout: 30s
check:
  concurrency: 2
log:
  level: debug
`)
	t.Setenv("PLUGVER_CHECK_CONCURRENCY", "3")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--model", "from-flag"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, ".plugver.yaml", filepath.Base(cfg.FileUsed))
	assert.Equal(t, "rules", cfg.Oracle.Backend, "file beats default")
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 3, cfg.Check.Concurrency, "env beats file")
	assert.Equal(t, "from-flag", cfg.Oracle.Model, "flag beats file")
	assert.Equal(t, "debug", cfg.Log.Level, "unset flag does not override file")
}

func TestLoadConfigFromRepoDir(t *testing.T) {
	repo := t.TempDir()
	t.Chdir(t.TempDir())
	writeFile(t, repo, ".plugver.yaml", "repo:\n  plugins_root: extensions\n")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--repo", repo}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "extensions", cfg.Repo.PluginsRoot)
	assert.Equal(t, repo, cfg.Repo.Dir)
}

func TestLoadExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err, "an explicitly named file must exist")

	path := writeFile(t, t.TempDir(), "custom.yaml", "server:\n  port: 9000\n")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "k-123")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "k-123", cfg.Oracle.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "PLUGVER_ORACLE_API_KEY=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("PLUGVER_ORACLE_API_KEY") })

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Oracle.APIKey)
}

func TestLoadDotEnvFromRepoDir(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, repo, ".env", "PLUGVER_ORACLE_API_KEY=from-repo\n")
	wd := t.TempDir()
	t.Chdir(wd)
	writeFile(t, wd, ".env", "PLUGVER_ORACLE_API_KEY=from-wd\nPLUGVER_LOG_LEVEL=debug\n")
	t.Setenv("PLUGVER_REPO_DIR", repo)
	t.Cleanup(func() {
		os.Unsetenv("PLUGVER_ORACLE_API_KEY")
		os.Unsetenv("PLUGVER_LOG_LEVEL")
	})

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-repo", cfg.Oracle.APIKey, "the repository's .env wins over the working directory's")
	assert.Equal(t, "debug", cfg.Log.Level, "the working directory's .env still fills gaps")
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("", nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"backend", func(c *Config) { c.Oracle.Backend = "oracle-of-delphi" }, "invalid oracle backend"},
		{"timeout", func(c *Config) { c.Oracle.Timeout = 0 }, "oracle timeout"},
		{"concurrency", func(c *Config) { c.Check.Concurrency = 0 }, "concurrency"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"plugins root", func(c *Config) { c.Repo.PluginsRoot = "a/b" }, "plugins_root"},
		{"remote", func(c *Config) { c.Repo.Remote = "" }, "repo.remote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errSub)
		})
	}

	assert.NoError(t, base.Validate())
}

func TestRepoDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := &Config{}
	got, err := cfg.RepoDir()
	require.NoError(t, err)
	want, _ := filepath.EvalSymlinks(dir)
	gotResolved, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, want, gotResolved)
}

// Package config loads plugver settings from defaults, an optional
// .plugver.yaml, PLUGVER_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sprite-ai/plugver/internal/oracle"
)

const (
	EnvPrefix         = "PLUGVER"
	DefaultConfigName = ".plugver"
)

// Config is the merged configuration.
type Config struct {
	Repo   RepoConfig   `mapstructure:"repo"`
	Oracle OracleConfig `mapstructure:"oracle"`
	Check  CheckConfig  `mapstructure:"check"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`

	// FileUsed is the config file that was read, if any.
	FileUsed string `mapstructure:"-"`
}

// RepoConfig locates plugins and the base they are compared against.
type RepoConfig struct {
	Dir                 string `mapstructure:"dir"`
	PluginsRoot         string `mapstructure:"plugins_root"`
	ManifestDir         string `mapstructure:"manifest_dir"`
	ManifestFile        string `mapstructure:"manifest_file"`
	MarketplaceManifest string `mapstructure:"marketplace_manifest"`
	Remote              string `mapstructure:"remote"`
	BaseBranch          string `mapstructure:"base_branch"`
}

// OracleConfig selects the classification backend.
type OracleConfig struct {
	Backend string        `mapstructure:"backend"`
	Command string        `mapstructure:"command"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
	APIKey  string        `mapstructure:"api_key"`
}

// CheckConfig tunes check mode.
type CheckConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Port int    `mapstructure:"port"`
}

// Address returns host:port for net/http.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Addr, s.Port)
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"repo":        "repo.dir",
	"oracle":      "oracle.backend",
	"model":       "oracle.model",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"concurrency": "check.concurrency",
	"addr":        "server.addr",
	"port":        "server.port",
}

// Load merges every configuration source. cfgFile may be empty, in which case
// .plugver.yaml is looked up in the repository directory and the working
// directory. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("oracle.api_key", EnvPrefix+"_ORACLE_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding oracle API key: %w", err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag '--%s': %w", name, err)
				}
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		if dir := v.GetString("repo.dir"); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment values are read lazily, so .env files loaded here still
	// take effect.
	loadDotEnv(v.GetString("repo.dir"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}
	cfg.FileUsed = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads the optional .env in the repository directory, then the
// one in the working directory. Variables already set are never replaced.
func loadDotEnv(repoDir string) {
	if repoDir != "" {
		_ = godotenv.Load(filepath.Join(repoDir, ".env"))
	}
	_ = godotenv.Load(".env")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("repo.dir", "")
	v.SetDefault("repo.plugins_root", "plugins")
	v.SetDefault("repo.manifest_dir", ".claude-plugin")
	v.SetDefault("repo.manifest_file", "plugin.json")
	v.SetDefault("repo.marketplace_manifest", ".claude-plugin/marketplace.json")
	v.SetDefault("repo.remote", "origin")
	v.SetDefault("repo.base_branch", "main")

	v.SetDefault("oracle.backend", oracle.BackendClaudeCLI)
	v.SetDefault("oracle.command", oracle.DefaultClaudeBinary)
	v.SetDefault("oracle.model", "")
	v.SetDefault("oracle.timeout", oracle.DefaultTimeout)
	v.SetDefault("oracle.api_key", "")

	v.SetDefault("check.concurrency", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.addr", "127.0.0.1")
	v.SetDefault("server.port", 8787)
}

var (
	logLevels  = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
	logFormats = []string{"text", "json"}
)

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(oracle.Backends, c.Oracle.Backend) {
		errs = append(errs, fmt.Errorf("invalid oracle backend %q (want one of %v)", c.Oracle.Backend, oracle.Backends))
	}
	if c.Oracle.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("oracle timeout must be positive, got %v", c.Oracle.Timeout))
	}
	if c.Check.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("check concurrency must be at least 1, got %d", c.Check.Concurrency))
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("invalid log format %q (want text or json)", c.Log.Format))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	for name, seg := range map[string]string{
		"plugins_root":  c.Repo.PluginsRoot,
		"manifest_file": c.Repo.ManifestFile,
	} {
		if seg == "" || strings.ContainsAny(seg, `/\`) {
			errs = append(errs, fmt.Errorf("repo.%s must be a single path segment, got %q", name, seg))
		}
	}
	if c.Repo.Remote == "" || c.Repo.BaseBranch == "" {
		errs = append(errs, errors.New("repo.remote and repo.base_branch are required"))
	}

	return errors.Join(errs...)
}

// RepoDir returns the configured repository directory as an absolute path,
// defaulting to the working directory.
func (c *Config) RepoDir() (string, error) {
	dir := c.Repo.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	return filepath.Abs(dir)
}

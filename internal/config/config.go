// Package config loads resonator settings from an optional .resonator.yaml in
// the project root and RESONATOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/steveyegge/resonator/internal/types"
)

// FileName is the config file looked up in the project root (without extension).
const FileName = ".resonator"

// EnvPrefix prefixes every environment override, e.g. RESONATOR_MAX_FILES.
const EnvPrefix = "RESONATOR"

// Config is the complete resonator configuration.
type Config struct {
	// MaxFiles caps how many files a run discovers.
	// Default: 50, Range: 0-100000
	MaxFiles int `mapstructure:"max_files" yaml:"max_files"`

	// Suffixes a file must end with to be analyzed.
	// Default: [".go", ".py"]
	Suffixes []string `mapstructure:"suffixes" yaml:"suffixes"`

	// ExcludeDirs are directory names never descended into, on top of
	// hidden and __pycache__ directories.
	ExcludeDirs []string `mapstructure:"exclude_dirs" yaml:"exclude_dirs"`

	IncludeGlobs []string `mapstructure:"include_globs" yaml:"include_globs"`
	ExcludeGlobs []string `mapstructure:"exclude_globs" yaml:"exclude_globs"`

	// Perspectives to run; empty runs all of them.
	Perspectives []string `mapstructure:"perspectives" yaml:"perspectives"`

	// PerspectiveTimeout bounds each perspective. A perspective that runs
	// over contributes an empty, zero-confidence signal.
	// Default: 30s, Range: 1s-1h
	PerspectiveTimeout time.Duration `mapstructure:"perspective_timeout" yaml:"perspective_timeout"`

	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Issues  IssuesConfig  `mapstructure:"issues" yaml:"issues"`
	VCS     VCSConfig     `mapstructure:"vcs" yaml:"vcs"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level: debug, info, warn or error. Default: info
	Level string `mapstructure:"level" yaml:"level"`

	// Format: console or json. Default: console
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig configures the run history database.
type MetricsConfig struct {
	// Path of the SQLite database, relative to the project root unless absolute.
	// Default: .resonator/metrics.db
	Path string `mapstructure:"path" yaml:"path"`

	// RetentionDays prunes runs older than this when recording.
	// 0 keeps everything. Default: 90, Range: 0-3650
	RetentionDays int `mapstructure:"retention_days" yaml:"retention_days"`
}

// IssuesConfig configures ticket filing.
type IssuesConfig struct {
	// Repo is the target repository as owner/name.
	Repo string `mapstructure:"repo" yaml:"repo"`

	// Token authenticates against the tracker. Also read from GITHUB_TOKEN.
	Token string `mapstructure:"token" yaml:"-"`

	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// MinSeverity is the lowest severity filed. Default: HIGH
	MinSeverity string `mapstructure:"min_severity" yaml:"min_severity"`

	// Labels applied to every filed ticket. Default: [resonance, auto-fix]
	Labels []string `mapstructure:"labels" yaml:"labels"`

	// RatePerMinute throttles ticket creation. Default: 30, Range: 1-600
	RatePerMinute int `mapstructure:"rate_per_minute" yaml:"rate_per_minute"`
}

// VCSConfig configures the version-control collaborator.
type VCSConfig struct {
	// RecentCommits restricts analysis to files touched by the last N
	// commits. 0 scans the full corpus. Range: 0-10000
	RecentCommits int `mapstructure:"recent_commits" yaml:"recent_commits"`
}

// ValidationError reports an out-of-range configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Message)
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MaxFiles:           50,
		Suffixes:           []string{".go", ".py"},
		ExcludeDirs:        []string{"vendor", "node_modules"},
		IncludeGlobs:       []string{},
		ExcludeGlobs:       []string{},
		Perspectives:       []string{},
		PerspectiveTimeout: 30 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Path:          filepath.Join(".resonator", "metrics.db"),
			RetentionDays: 90,
		},
		Issues: IssuesConfig{
			MinSeverity:   string(types.SeverityHigh),
			Labels:        []string{"resonance", "auto-fix"},
			RatePerMinute: 30,
		},
	}
}

// Load reads configuration for the project at root. file, when non-empty,
// names an explicit config file; otherwise .resonator.yaml in root is used if
// present. Environment variables override file values.
func Load(root, file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(root)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("issues.token", EnvPrefix+"_ISSUES_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("binding token env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("max_files", d.MaxFiles)
	v.SetDefault("suffixes", d.Suffixes)
	v.SetDefault("exclude_dirs", d.ExcludeDirs)
	v.SetDefault("include_globs", d.IncludeGlobs)
	v.SetDefault("exclude_globs", d.ExcludeGlobs)
	v.SetDefault("perspectives", d.Perspectives)
	v.SetDefault("perspective_timeout", d.PerspectiveTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("metrics.retention_days", d.Metrics.RetentionDays)
	v.SetDefault("issues.repo", d.Issues.Repo)
	v.SetDefault("issues.base_url", d.Issues.BaseURL)
	v.SetDefault("issues.min_severity", d.Issues.MinSeverity)
	v.SetDefault("issues.labels", d.Issues.Labels)
	v.SetDefault("issues.rate_per_minute", d.Issues.RatePerMinute)
	v.SetDefault("vcs.recent_commits", d.VCS.RecentCommits)
}

// Validate checks that every field is in range.
func (c *Config) Validate() error {
	if c.MaxFiles < 0 || c.MaxFiles > 100000 {
		return &ValidationError{Field: "max_files", Message: fmt.Sprintf("must be between 0 and 100000 (got %d)", c.MaxFiles)}
	}
	if len(c.Suffixes) == 0 {
		return &ValidationError{Field: "suffixes", Message: "at least one suffix is required"}
	}
	for _, p := range c.Perspectives {
		if !types.Perspective(p).IsValid() {
			return &ValidationError{Field: "perspectives", Message: fmt.Sprintf("unknown perspective %q", p)}
		}
	}
	if c.PerspectiveTimeout < time.Second || c.PerspectiveTimeout > time.Hour {
		return &ValidationError{Field: "perspective_timeout", Message: fmt.Sprintf("must be between 1s and 1h (got %s)", c.PerspectiveTimeout)}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Field: "log.level", Message: fmt.Sprintf("must be debug, info, warn or error (got %q)", c.Log.Level)}
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return &ValidationError{Field: "log.format", Message: fmt.Sprintf("must be 'console' or 'json' (got %q)", c.Log.Format)}
	}

	if c.Metrics.Path == "" {
		return &ValidationError{Field: "metrics.path", Message: "is required"}
	}
	if c.Metrics.RetentionDays < 0 || c.Metrics.RetentionDays > 3650 {
		return &ValidationError{Field: "metrics.retention_days", Message: fmt.Sprintf("must be between 0 and 3650 (got %d)", c.Metrics.RetentionDays)}
	}

	if c.Issues.Repo != "" {
		if _, _, err := c.Issues.OwnerRepo(); err != nil {
			return &ValidationError{Field: "issues.repo", Message: err.Error()}
		}
	}
	if _, err := types.ParseSeverity(c.Issues.MinSeverity); err != nil {
		return &ValidationError{Field: "issues.min_severity", Message: err.Error()}
	}
	if c.Issues.RatePerMinute < 1 || c.Issues.RatePerMinute > 600 {
		return &ValidationError{Field: "issues.rate_per_minute", Message: fmt.Sprintf("must be between 1 and 600 (got %d)", c.Issues.RatePerMinute)}
	}

	if c.VCS.RecentCommits < 0 || c.VCS.RecentCommits > 10000 {
		return &ValidationError{Field: "vcs.recent_commits", Message: fmt.Sprintf("must be between 0 and 10000 (got %d)", c.VCS.RecentCommits)}
	}
	return nil
}

// OwnerRepo splits Repo into owner and name.
func (c IssuesConfig) OwnerRepo() (string, string, error) {
	parts := strings.Split(c.Repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected owner/name (got %q)", c.Repo)
	}
	return parts[0], parts[1], nil
}

// MetricsPath resolves Metrics.Path against root.
func (c *Config) MetricsPath(root string) string {
	if filepath.IsAbs(c.Metrics.Path) {
		return c.Metrics.Path
	}
	return filepath.Join(root, c.Metrics.Path)
}

// String returns a human-readable representation of the config. The issue
// token is never printed.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{MaxFiles: %d, Suffixes: %v, Perspectives: %v, Timeout: %s, "+
			"Log: %s/%s, Metrics: %s (%dd), Issues: %q >= %s, RecentCommits: %d}",
		c.MaxFiles, c.Suffixes, c.Perspectives, c.PerspectiveTimeout,
		c.Log.Level, c.Log.Format, c.Metrics.Path, c.Metrics.RetentionDays,
		c.Issues.Repo, c.Issues.MinSeverity, c.VCS.RecentCommits,
	)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/steveyegge/resonator/internal/config"
	"github.com/steveyegge/resonator/internal/corpus"
	"github.com/steveyegge/resonator/internal/engine"
	"github.com/steveyegge/resonator/internal/logging"
)

// settings is the resolved configuration shared by every command.
type settings struct {
	root   string
	config *config.Config
	logger *zap.Logger
}

// loadSettings resolves root, loads its config and applies the persistent
// flags on top.
func loadSettings(root string) (*settings, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory (scan its parent and narrow with include_globs)", root)
	}

	cfg, err := config.Load(abs, configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	if noColor {
		color.NoColor = true
	}

	logger.Debug("configuration loaded", zap.String("root", abs), zap.Stringer("config", cfg))
	return &settings{root: abs, config: cfg, logger: logger}, nil
}

// engineConfig maps the file-selection settings onto the engine.
func engineConfig(cfg *config.Config) *engine.Config {
	opts := corpus.DefaultOptions()
	opts.Suffixes = append([]string(nil), cfg.Suffixes...)
	opts.ExcludeDirs = append([]string(nil), cfg.ExcludeDirs...)
	opts.IncludeGlobs = append([]string(nil), cfg.IncludeGlobs...)
	opts.ExcludeGlobs = append([]string(nil), cfg.ExcludeGlobs...)
	return &engine.Config{
		Corpus:             opts,
		PerspectiveTimeout: cfg.PerspectiveTimeout,
	}
}

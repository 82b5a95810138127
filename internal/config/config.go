// Package config loads the project configuration file codemodel.yml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/extract"
)

// Defaults applied by the accessors when a field is unset.
const (
	DefaultGraphDBPath = ".codemodel/graph"
	DefaultMCPAddr     = "localhost:8090"
)

// ProjectConfig holds project-level settings loaded from codemodel.yml.
type ProjectConfig struct {
	Languages     []string `yaml:"languages,omitempty"`
	SortOrder     string   `yaml:"sortOrder,omitempty"`
	GraphDBPath   string   `yaml:"graphDBPath,omitempty"`
	MCPAddr       string   `yaml:"mcpAddr,omitempty"`
	Verbose       bool     `yaml:"verbose,omitempty"`
	WatchDebounce string   `yaml:"watchDebounce,omitempty"`
}

// Load attempts to read codemodel.yml or codemodel.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"codemodel.yml", "codemodel.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// Validate checks every field that has a closed set of values.
func (c *ProjectConfig) Validate() error {
	if _, err := c.LanguageList(); err != nil {
		return err
	}
	if _, err := c.Order(); err != nil {
		return err
	}
	if _, err := c.Debounce(); err != nil {
		return err
	}
	return nil
}

// LanguageList returns the configured languages. An empty list means every
// supported language.
func (c *ProjectConfig) LanguageList() ([]extract.Language, error) {
	out := make([]extract.Language, 0, len(c.Languages))
	for _, l := range c.Languages {
		lang, ok := extract.ParseLanguage(l)
		if !ok {
			return nil, fmt.Errorf("unknown language %q", l)
		}
		out = append(out, lang)
	}
	return out, nil
}

// Order returns the configured listing order, AppearanceOrder by default.
func (c *ProjectConfig) Order() (codemodel.SortOrder, error) {
	return codemodel.ParseSortOrder(c.SortOrder)
}

// Debounce returns the watch debounce delay, zero when unset.
func (c *ProjectConfig) Debounce() (time.Duration, error) {
	if c.WatchDebounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.WatchDebounce)
	if err != nil {
		return 0, fmt.Errorf("watchDebounce: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("watchDebounce: negative duration %s", d)
	}
	return d, nil
}

// GraphDB returns the graph database path, relative to the project root.
func (c *ProjectConfig) GraphDB() string {
	if c.GraphDBPath == "" {
		return DefaultGraphDBPath
	}
	return c.GraphDBPath
}

// Addr returns the MCP HTTP listen address.
func (c *ProjectConfig) Addr() string {
	if c.MCPAddr == "" {
		return DefaultMCPAddr
	}
	return c.MCPAddr
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultNamespaceRoot is used when namespace.root is not set
	DefaultNamespaceRoot = "Sdk"
	// DefaultSystemError is the definition name shared by every API as the error shape
	DefaultSystemError = "SystemError"
)

// Config represents the complete configuration for SDK generation
type Config struct {
	Documents   []Document `yaml:"documents"`
	Namespace   Namespace  `yaml:"namespace"`
	SystemError string     `yaml:"systemError"`
	Log         Log        `yaml:"log"`
	Clients     []Client   `yaml:"clients"`
}

// Document is one API description document fed to the generator
type Document struct {
	// ID is the api id; documents are keyed "id" or "id:version"
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
	// Path is a file path or an HTTP(S) URL
	Path string `yaml:"path"`
	// Name is the friendly name; defaults to info.title, then ID
	Name string `yaml:"name"`
}

// Key is the document key, "id" or "id:version"
func (d Document) Key() string {
	if d.Version == "" {
		return d.ID
	}
	return d.ID + ":" + d.Version
}

// Namespace configures namespace derivation for the whole run
type Namespace struct {
	Root string `yaml:"root"`
	// Isolated rewrites the root prefix of every namespace, "Root." becoming "RootIsolated."
	Isolated bool `yaml:"isolated"`
}

// Log configures the process logger
type Log struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// Client represents configuration for a single client SDK
type Client struct {
	Type        string   `yaml:"type"`
	OutDir      string   `yaml:"outDir"`
	PackageName string   `yaml:"packageName"`
	Name        string   `yaml:"name"`
	IncludeTags []string `yaml:"includeTags"`
	ExcludeTags []string `yaml:"excludeTags"`
	// IncludeClusterOnly keeps operations that only internal credentials may call
	IncludeClusterOnly bool `yaml:"includeClusterOnly"`
	// PostCommand is an optional command to run after the generated files were written.
	// Uses Docker Compose array format: ["gofmt", "-w", "."]
	// The command will be executed in the output directory.
	PostCommand []string `yaml:"postCommand"`
	// ExcludeFiles is a list of file paths (relative to outDir) that should not be generated
	// Example: ["README.md", "src/client.ts"]
	ExcludeFiles []string `yaml:"exclude"`
}

// ShouldExcludeFile checks if a file path should be excluded based on the ExcludeFiles list.
// targetPath should be an absolute path, and the comparison is done relative to OutDir.
func (c *Client) ShouldExcludeFile(targetPath string) bool {
	if len(c.ExcludeFiles) == 0 {
		return false
	}

	relPath, err := filepath.Rel(c.OutDir, targetPath)
	if err != nil {
		// not under OutDir
		return false
	}
	relPath = filepath.ToSlash(relPath)
	if relPath == "." {
		relPath = ""
	}

	for _, excludePattern := range c.ExcludeFiles {
		normalizedExclude := strings.TrimSuffix(filepath.ToSlash(excludePattern), "/")

		if relPath == normalizedExclude {
			return true
		}
		// "src/" excludes everything below src
		if normalizedExclude != "" && strings.HasPrefix(relPath, normalizedExclude+"/") {
			return true
		}
	}

	return false
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML configuration, absolutizes local paths and
// applies defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Validate checks required fields
func (cfg *Config) Validate() error {
	if len(cfg.Documents) == 0 {
		return errors.New("config.documents must list at least one document")
	}
	seen := make(map[string]bool)
	for i, d := range cfg.Documents {
		if d.ID == "" || d.Path == "" {
			return fmt.Errorf("documents[%d] missing required fields (id, path)", i)
		}
		if seen[d.Key()] {
			return fmt.Errorf("documents[%d]: duplicate document key %q", i, d.Key())
		}
		seen[d.Key()] = true
	}
	for i, c := range cfg.Clients {
		if c.Type == "" || c.OutDir == "" || c.Name == "" {
			return fmt.Errorf("clients[%d] missing required fields (type, outDir, name)", i)
		}
	}
	return nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Namespace.Root == "" {
		cfg.Namespace.Root = DefaultNamespaceRoot
	}
	if cfg.SystemError == "" {
		cfg.SystemError = DefaultSystemError
	}
	for i := range cfg.Clients {
		c := &cfg.Clients[i]
		if c.PackageName == "" {
			c.PackageName = c.Name
		}
		if !filepath.IsAbs(c.OutDir) {
			abs, _ := filepath.Abs(c.OutDir)
			c.OutDir = abs
		}
	}
	for i := range cfg.Documents {
		d := &cfg.Documents[i]
		// Do not absolutize when the document is an HTTP(S) URL
		if u, err := url.Parse(d.Path); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
			continue
		}
		if !filepath.IsAbs(d.Path) {
			abs, _ := filepath.Abs(d.Path)
			d.Path = abs
		}
	}
}

// Normalize applies defaults to a configuration built in code rather than loaded from a file
func (cfg *Config) Normalize() error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.applyDefaults()
	return nil
}

// ParseDocumentFlag parses the CLI form "id[:version]=path"
func ParseDocumentFlag(value string) (Document, error) {
	key, path, ok := strings.Cut(value, "=")
	if !ok || key == "" || path == "" {
		return Document{}, fmt.Errorf("invalid document %q, expected id[:version]=path", value)
	}
	id, version, _ := strings.Cut(key, ":")
	if id == "" {
		return Document{}, fmt.Errorf("invalid document %q: empty id", value)
	}
	return Document{ID: id, Version: version, Path: path}, nil
}

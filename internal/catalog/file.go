package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultCatalogPath is the catalog file location relative to the project root.
const DefaultCatalogPath = "catalog.yaml"

// LegacyCatalogPath is the catalog location used by older project layouts.
const LegacyCatalogPath = "config/catalog.yaml"

// CatalogPaths lists the paths to search (in priority order) when
// auto-discovering the catalog file.
var CatalogPaths = []string{
	DefaultCatalogPath,
	LegacyCatalogPath,
}

// ResolvePath discovers the catalog file location.
//
// Resolution order:
//  1. MCPCHAIN_CATALOG_PATH environment variable (used as-is if set)
//  2. Explicit catalogPath parameter (if non-empty)
//  3. Auto-discovery of [CatalogPaths] under basePath
//  4. Falls back to [DefaultCatalogPath] (will error on read if missing)
func ResolvePath(basePath, catalogPath string) string {
	if envPath := os.Getenv("MCPCHAIN_CATALOG_PATH"); envPath != "" {
		return envPath
	}

	if catalogPath != "" {
		return catalogPath
	}

	for _, p := range CatalogPaths {
		fullPath := filepath.Join(basePath, p)
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath
		}
	}

	return filepath.Join(basePath, DefaultCatalogPath)
}

// File is the YAML layout of a catalog file:
//
//	entries:
//	  - id: filesystem
//	    display_name: Filesystem
//	    category: storage
type File struct {
	Entries []Entry `yaml:"entries"`
}

// FileCatalog reads entries from a YAML file.
//
// The file is re-read on every call so edits are picked up without a restart.
type FileCatalog struct {
	path string
}

// NewFileCatalog creates a [FileCatalog] that auto-discovers the catalog file
// under basePath. Pass an empty string to use the working directory.
func NewFileCatalog(basePath string) *FileCatalog {
	return &FileCatalog{path: ResolvePath(basePath, "")}
}

// NewFileCatalogWithPath creates a [FileCatalog] for an explicit path.
// MCPCHAIN_CATALOG_PATH still takes priority if set.
func NewFileCatalogWithPath(basePath, catalogPath string) *FileCatalog {
	return &FileCatalog{path: ResolvePath(basePath, catalogPath)}
}

// Path returns the resolved catalog file path.
func (c *FileCatalog) Path() string {
	return c.path
}

// Read reads and validates the complete catalog file.
func (c *FileCatalog) Read() (*File, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return ParseFile(data)
}

// ParseFile parses and validates catalog YAML.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Entries))
	for i, e := range f.Entries {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog entry at index %d has no id", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("duplicate catalog entry: %s", e.ID)
		}
		seen[e.ID] = true
	}

	return &f, nil
}

// FindEntry returns the entry with the given identifier.
func (c *FileCatalog) FindEntry(_ context.Context, id string) (Entry, error) {
	f, err := c.Read()
	if err != nil {
		return Entry{}, err
	}

	for _, e := range f.Entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
}

// List returns the entries in file order.
func (c *FileCatalog) List(context.Context) ([]Entry, error) {
	f, err := c.Read()
	if err != nil {
		return nil, err
	}
	return f.Entries, nil
}

// Close is a no-op.
func (c *FileCatalog) Close() error { return nil }

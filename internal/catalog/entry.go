// Package catalog provides read access to the registry of installable entries.
//
// Entries are the MCP servers listed in the marketplace. The chain executor
// only needs to look entries up by identifier, so every backend implements
// [Lookup]. Backends that can enumerate their contents implement [Source].
//
// Backends:
//   - [Memory] - ordered in-memory catalog
//   - [FileCatalog] - YAML file with an entries list
//   - [SQLiteStore] - local SQLite database
//   - [PostgresStore] - the hosted Postgres registry
package catalog

import (
	"context"
	"errors"
)

// ErrEntryNotFound is returned (possibly wrapped) when an identifier has no entry.
var ErrEntryNotFound = errors.New("entry not found")

// Entry is a catalog item, referenced by its stable identifier.
type Entry struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Label returns the display name, or the identifier if no name is set.
func (e Entry) Label() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.ID
}

// Lookup finds entries by identifier. Calls have no side effects.
type Lookup interface {
	FindEntry(ctx context.Context, id string) (Entry, error)
}

// Source is a catalog backend that can also list its entries.
type Source interface {
	Lookup
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// Upserter is implemented by writable backends.
type Upserter interface {
	Upsert(ctx context.Context, entries ...Entry) error
}

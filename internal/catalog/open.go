package catalog

import (
	"context"
	"fmt"
)

// Supported catalog drivers.
const (
	DriverYAML     = "yaml"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a catalog backend.
type Options struct {
	// Driver is one of [DriverYAML], [DriverSQLite] or [DriverPostgres].
	// Empty selects YAML.
	Driver string

	// Path is the YAML file or SQLite database path.
	Path string

	// DSN is the Postgres connection string.
	DSN string
}

// Open returns the backend described by opts.
func Open(ctx context.Context, opts Options) (Source, error) {
	switch opts.Driver {
	case "", DriverYAML:
		return NewFileCatalogWithPath("", opts.Path), nil
	case DriverSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite catalog requires a path")
		}
		return OpenSQLite(opts.Path)
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres catalog requires a dsn")
		}
		return OpenPostgres(ctx, opts.DSN)
	}
	return nil, fmt.Errorf("unknown catalog driver: %s", opts.Driver)
}

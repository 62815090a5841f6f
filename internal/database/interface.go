// Package database reads table, column and key metadata from relational
// catalogs. Drivers live in the postgres and mysql subpackages; callers
// depend only on the Catalog interface.
package database

import "context"

// Catalog is the contract every driver implements. Only metadata is read;
// table contents are never queried.
type Catalog interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// ListTables returns the base tables of the configured schema, sorted by name.
	ListTables(ctx context.Context) ([]string, error)

	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, table string) (bool, error)

	// InspectSchema returns the full structure of the configured schema.
	InspectSchema(ctx context.Context) (*Schema, error)
}

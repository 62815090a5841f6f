package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koustreak/metaschema/internal/database"
	"github.com/koustreak/metaschema/internal/errs"
)

const defaultSchema = "public"

// Driver is a PostgreSQL implementation of database.Catalog backed by pgxpool.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	pool         *pgxpool.Pool
	schema       string
	queryTimeout time.Duration
}

var _ database.Catalog = (*Driver)(nil)

// New connects to PostgreSQL using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid DSN", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create connection pool", err)
	}

	schema := cfg.Schema
	if schema == "" {
		schema = defaultSchema
	}
	d := &Driver{pool: pool, schema: schema, queryTimeout: cfg.QueryTimeout}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

// Ping verifies the database is reachable by acquiring and releasing a connection.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool.
func (d *Driver) Close() {
	d.pool.Close()
}

func (d *Driver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout > 0 {
		return context.WithTimeout(ctx, d.queryTimeout)
	}
	return context.WithCancel(ctx)
}

// ListTables returns the base tables of the configured schema.
func (d *Driver) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	return d.fetchStringList(ctx, q, "failed to list tables", d.schema)
}

// TableExists reports whether a base table with the given name exists.
func (d *Driver) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
		SELECT 1
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type   = 'BASE TABLE'
		  AND table_name   = $2`

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var exists int
	err := d.pool.QueryRow(ctx, q, d.schema, table).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, mapError(err, "failed to check table existence")
	}
	return true, nil
}

// InspectSchema reads every table of the configured schema.
func (d *Driver) InspectSchema(ctx context.Context) (*database.Schema, error) {
	tables, err := d.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	out := &database.Schema{Name: d.schema, Tables: make([]*database.TableInfo, 0, len(tables))}
	for _, name := range tables {
		info, err := d.inspectTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("inspecting table %q: %w", name, err)
		}
		out.Tables = append(out.Tables, info)
	}
	return out, nil
}

func (d *Driver) inspectTable(ctx context.Context, table string) (*database.TableInfo, error) {
	columns, err := d.fetchColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	pks, err := d.fetchConstraintColumns(ctx, table, "PRIMARY KEY")
	if err != nil {
		return nil, err
	}
	unique, err := d.fetchConstraintColumns(ctx, table, "UNIQUE")
	if err != nil {
		return nil, err
	}
	fks, err := d.fetchForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}

	info := &database.TableInfo{
		Name:        table,
		Columns:     columns,
		PrimaryKey:  pks,
		ForeignKeys: fks,
	}
	database.MarkKeys(info, unique)
	return info, nil
}

func (d *Driver) fetchColumns(ctx context.Context, table string) ([]*database.ColumnInfo, error) {
	const q = `
		SELECT column_name,
		       CASE WHEN data_type = 'USER-DEFINED' THEN udt_name ELSE data_type END,
		       is_nullable = 'YES',
		       column_default
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND table_name   = $2
		ORDER BY ordinal_position`

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.pool.Query(ctx, q, d.schema, table)
	if err != nil {
		return nil, mapError(err, "failed to fetch columns")
	}
	defer rows.Close()

	var cols []*database.ColumnInfo
	for rows.Next() {
		var c database.ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.Default); err != nil {
			return nil, mapError(err, "failed to scan column info")
		}
		cols = append(cols, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating columns")
	}
	return cols, nil
}

func (d *Driver) fetchConstraintColumns(ctx context.Context, table, kind string) ([]string, error) {
	const q = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		WHERE tc.constraint_type = $3
		  AND tc.table_schema    = $1
		  AND tc.table_name      = $2
		ORDER BY kcu.ordinal_position`

	return d.fetchStringList(ctx, q, "failed to fetch "+kind+" columns", d.schema, table, kind)
}

func (d *Driver) fetchForeignKeys(ctx context.Context, table string) ([]*database.ForeignKey, error) {
	const q = `
		SELECT tc.constraint_name,
		       kcu.column_name,
		       ccu.table_name  AS ref_table,
		       ccu.column_name AS ref_column,
		       rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		 AND tc.table_schema    = ccu.constraint_schema
		JOIN information_schema.referential_constraints rc
		  ON tc.constraint_name = rc.constraint_name
		 AND tc.table_schema    = rc.constraint_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema    = $1
		  AND tc.table_name      = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position`

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.pool.Query(ctx, q, d.schema, table)
	if err != nil {
		return nil, mapError(err, "failed to fetch foreign keys")
	}
	defer rows.Close()

	var fks []*database.ForeignKey
	for rows.Next() {
		fk := &database.ForeignKey{}
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn, &fk.OnDelete); err != nil {
			return nil, mapError(err, "failed to scan foreign key")
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating foreign keys")
	}
	return fks, nil
}

// fetchStringList runs a query that returns a single text column.
func (d *Driver) fetchStringList(ctx context.Context, q, errMsg string, args ...any) ([]string, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapError(err, errMsg)
	}
	defer rows.Close()

	var list []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, mapError(err, errMsg)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, errMsg)
	}
	return list, nil
}

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	// Postgres server-side error (SQLSTATE codes)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(classifySQLState(pgErr.Code), fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// network, TLS and authentication handshake failures
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

func classifySQLState(code string) errs.ErrKind {
	if len(code) < 2 {
		return errs.ErrKindQueryFailed
	}
	switch code[:2] {
	case "08": // connection exception
		return errs.ErrKindConnectionFailed
	case "28": // invalid authorization
		return errs.ErrKindPermissionDenied
	case "42":
		if code == "42501" { // insufficient privilege
			return errs.ErrKindPermissionDenied
		}
		if code == "42P01" { // undefined table
			return errs.ErrKindNotFound
		}
		return errs.ErrKindQueryFailed
	case "3F": // invalid schema name
		return errs.ErrKindNotFound
	case "57":
		if code == "57014" { // query canceled
			return errs.ErrKindTimeout
		}
	}
	return errs.ErrKindQueryFailed
}

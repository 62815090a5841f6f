package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/metaschema/internal/database"
	"github.com/koustreak/metaschema/internal/errs"
)

// Driver is a MySQL implementation of database.Catalog backed by database/sql.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db           *sql.DB
	schema       string // empty means DATABASE()
	queryTimeout time.Duration
}

var _ database.Catalog = (*Driver)(nil)

// New opens a MySQL connection pool using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid DSN", err)
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid DSN", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	d := NewFromDB(db, cfg.Schema)
	d.queryTimeout = cfg.QueryTimeout

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout(cfg))
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// NewFromDB wraps an open *sql.DB. schema selects the catalog schema; empty
// means the connection's current database.
func NewFromDB(db *sql.DB, schema string) *Driver {
	return &Driver{db: db, schema: schema}
}

func connectTimeout(cfg *database.Config) time.Duration {
	if cfg.ConnectTimeout > 0 {
		return cfg.ConnectTimeout
	}
	return 10 * time.Second
}

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout > 0 {
		return context.WithTimeout(ctx, d.queryTimeout)
	}
	return context.WithCancel(ctx)
}

func (d *Driver) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, q, d.schema)
	if err != nil {
		return nil, mapError(err, "failed to list tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err, "failed to scan table name")
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating tables")
	}
	return tables, nil
}

func (d *Driver) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
		SELECT 1
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND table_type   = 'BASE TABLE'
		  AND table_name   = ?`

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var exists int
	err := d.db.QueryRowContext(ctx, q, d.schema, table).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, mapError(err, "failed to check table existence")
	}
	return true, nil
}

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
	columns, pks, err := d.fetchColumns(ctx, table)
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
	database.MarkKeys(info, nil)
	return info, nil
}

// fetchColumns reads columns in ordinal order. MySQL reports key membership
// per column, so primary and unique flags come from the same query.
func (d *Driver) fetchColumns(ctx context.Context, table string) ([]*database.ColumnInfo, []string, error) {
	const q = `
		SELECT column_name,
		       data_type,
		       is_nullable = 'YES',
		       column_default,
		       column_key
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND table_name   = ?
		ORDER BY ordinal_position`

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, q, d.schema, table)
	if err != nil {
		return nil, nil, mapError(err, "failed to fetch columns")
	}
	defer rows.Close()

	var cols []*database.ColumnInfo
	var pks []string
	for rows.Next() {
		var c database.ColumnInfo
		var columnDefault sql.NullString
		var columnKey string
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &columnDefault, &columnKey); err != nil {
			return nil, nil, mapError(err, "failed to scan column info")
		}
		if columnDefault.Valid {
			c.Default = &columnDefault.String
		}
		c.IsUnique = columnKey == "UNI"
		if columnKey == "PRI" {
			pks = append(pks, c.Name)
		}
		cols = append(cols, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapError(err, "error iterating columns")
	}
	return cols, pks, nil
}

func (d *Driver) fetchForeignKeys(ctx context.Context, table string) ([]*database.ForeignKey, error) {
	const q = `
		SELECT kcu.constraint_name,
		       kcu.column_name,
		       kcu.referenced_table_name,
		       kcu.referenced_column_name,
		       rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_schema = kcu.table_schema
		 AND rc.constraint_name   = kcu.constraint_name
		WHERE kcu.table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND kcu.table_name   = ?
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position`

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, q, d.schema, table)
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

// mapError translates go-sql-driver/mysql errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(
			classifyMySQLCode(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// MySQL server error numbers.
// https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDBAccessDenied   = 1044
	errAccessDenied     = 1045
	errNoDatabase       = 1046
	errUnknownDatabase  = 1049
	errTooManyConns     = 1040
	errUserConnLimit    = 1203
	errTableAccess      = 1142
	errNoSuchTable      = 1146
	errQueryInterrupted = 1317
	errLockWaitTimeout  = 1205
)

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case errDBAccessDenied, errAccessDenied, errTableAccess:
		return errs.ErrKindPermissionDenied
	case errNoDatabase, errTooManyConns, errUserConnLimit:
		return errs.ErrKindConnectionFailed
	case errUnknownDatabase, errNoSuchTable:
		return errs.ErrKindNotFound
	case errQueryInterrupted, errLockWaitTimeout:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}

// Package sqlexport writes parsed Jet table schemas into a SQLite database.
//
// Build modes:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite, driver "sqlite"
//   - CGO mode (-tags cgo_sqlite): mattn/go-sqlite3, driver "sqlite3"
//
// Every exported table becomes an empty SQLite table with one column per
// Jet column. Two catalog tables record what the SQL types cannot:
//
//	_jet_tables   name, definition_page, row_count, data_pages
//	_jet_columns  table_name, name, pos, type, size, flags, precision, scale
package sqlexport

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/FocuswithJustin/jetdb/core/jet"
)

// DriverName returns the database/sql driver compiled in.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Info contains information about the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}

// Affinity returns the SQLite type affinity used for a Jet column type.
func Affinity(t jet.ColumnType) string {
	switch t {
	case jet.ColumnTypeBoolean, jet.ColumnTypeByte, jet.ColumnTypeInteger,
		jet.ColumnTypeLong, jet.ColumnTypeBigInt, jet.ColumnTypeComplex:
		return "INTEGER"
	case jet.ColumnTypeFloat, jet.ColumnTypeDouble:
		return "REAL"
	case jet.ColumnTypeCurrency, jet.ColumnTypeNumeric:
		return "NUMERIC"
	case jet.ColumnTypeBinary, jet.ColumnTypeOLE:
		return "BLOB"
	default:
		// text, memo, dates and GUIDs
		return "TEXT"
	}
}

// DeclaredType returns the column type written into CREATE TABLE. It keeps
// the Jet type name readable while mapping to the right affinity.
func DeclaredType(c jet.Column) string {
	switch c.Type {
	case jet.ColumnTypeNumeric:
		return fmt.Sprintf("DECIMAL(%d,%d)", c.Precision, c.Scale)
	case jet.ColumnTypeCurrency:
		return "DECIMAL(19,4)"
	case jet.ColumnTypeDateTime, jet.ColumnTypeDateTimeExtended:
		return "DATETIME"
	case jet.ColumnTypeRepID:
		return "GUID"
	case jet.ColumnTypeBoolean:
		return "BOOLEAN"
	}
	return Affinity(c.Type)
}

// QuoteIdent quotes a SQLite identifier.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// CreateTableSQL renders the CREATE TABLE statement for t.
func CreateTableSQL(t *jet.Table) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(QuoteIdent(t.Name()))
	sb.WriteString(" (")
	for i, c := range t.Columns() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(QuoteIdent(c.Name))
		sb.WriteString(" ")
		sb.WriteString(DeclaredType(c))
		if !c.Flags.Nullable() {
			sb.WriteString(" NOT NULL")
		}
	}
	sb.WriteString(")")
	return sb.String()
}

var catalogSchema = []string{`
CREATE TABLE IF NOT EXISTS _jet_tables (
	name            TEXT PRIMARY KEY,
	definition_page INTEGER NOT NULL,
	row_count       INTEGER NOT NULL,
	data_pages      TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS _jet_columns (
	table_name TEXT NOT NULL REFERENCES _jet_tables(name),
	name       TEXT NOT NULL,
	pos        INTEGER NOT NULL,
	type       TEXT NOT NULL,
	size       INTEGER NOT NULL,
	flags      INTEGER NOT NULL,
	precision  INTEGER NOT NULL,
	scale      INTEGER NOT NULL,
	PRIMARY KEY (table_name, name)
)`}

// Options configures an Exporter.
type Options struct {
	// Driver overrides the compiled-in driver name.
	Driver string
	// Pragmas are run as "PRAGMA <p>" after opening.
	Pragmas []string
	// Overwrite removes an existing file first.
	Overwrite bool
	Logger    *slog.Logger
}

// Exporter writes table schemas to one SQLite database.
type Exporter struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Create opens a new SQLite database at path.
func Create(ctx context.Context, path string, opts Options) (*Exporter, error) {
	if _, err := os.Stat(path); err == nil {
		if !opts.Overwrite {
			return nil, fmt.Errorf("output %s already exists", path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove existing output: %w", err)
		}
	}

	driver := opts.Driver
	if driver == "" {
		driver = driverName
	}
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)

	for _, p := range opts.Pragmas {
		if _, err := db.ExecContext(ctx, "PRAGMA "+p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %s: %w", p, err)
		}
	}
	for _, stmt := range catalogSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create catalog: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{db: db, path: path, logger: logger}, nil
}

// DB exposes the underlying handle for inspection.
func (e *Exporter) DB() *sql.DB {
	return e.db
}

// Close closes the output database.
func (e *Exporter) Close() error {
	return e.db.Close()
}

// Export writes every table in one transaction.
func (e *Exporter) Export(ctx context.Context, tables ...*jet.Table) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if err := exportTable(ctx, tx, t); err != nil {
			return fmt.Errorf("table %q: %w", t.Name(), err)
		}
		e.logger.Debug("exported table schema", "table", t.Name(), "columns", t.ColumnCount(), "output", e.path)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func exportTable(ctx context.Context, tx *sql.Tx, t *jet.Table) error {
	if _, err := tx.ExecContext(ctx, CreateTableSQL(t)); err != nil {
		return err
	}

	pages := make([]string, 0, len(t.DataPages()))
	for _, p := range t.DataPages() {
		pages = append(pages, fmt.Sprint(p))
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO _jet_tables (name, definition_page, row_count, data_pages) VALUES (?, ?, ?, ?)`,
		t.Name(), int64(t.FirstDefinitionPage()), t.RowCount(), strings.Join(pages, ",")); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO _jet_columns (table_name, name, pos, type, size, flags, precision, scale)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range t.Columns() {
		if _, err := stmt.ExecContext(ctx, t.Name(), c.Name, c.Pos, c.Type.String(),
			c.Size, int(c.Flags), c.Precision, c.Scale); err != nil {
			return fmt.Errorf("column %q: %w", c.Name, err)
		}
	}
	return nil
}

package compile

import (
	"fmt"
	"strings"

	"github.com/shipq/sqltable/ddl"
)

// Dialect defines the SQL dialect-specific behavior for compilation.
// Each dialect (SQLite, Postgres, MySQL) implements this interface
// to customize identifier quoting, placeholders and column types.
type Dialect interface {
	// Name returns the dialect name for debugging/logging.
	Name() string

	// QuoteIdentifier quotes an identifier (table name, column name).
	QuoteIdentifier(name string) string

	// Placeholder returns the parameter placeholder for the given index (1-based).
	// Postgres uses $1, $2, etc. MySQL and SQLite use ?.
	Placeholder(index int) string

	// SupportsReturning returns true if the dialect supports the RETURNING clause
	// in INSERT statements. Postgres and SQLite (3.35+) support this,
	// MySQL does not (it uses LAST_INSERT_ID() instead).
	SupportsReturning() bool

	// ColumnType returns the storage type used for col in CREATE TABLE.
	ColumnType(col ddl.ColumnDefinition) string

	// AutoIncrement returns the clause written after the type of a generated
	// integer primary key, or "" when PRIMARY KEY alone is enough.
	AutoIncrement() string

	// EmptyInsert returns the INSERT tail used when no column is supplied.
	EmptyInsert() string

	// TableOptions returns text appended after the closing parenthesis of
	// CREATE TABLE.
	TableOptions() string
}

// Dialect singletons.
var (
	SQLite   Dialect = &SQLiteDialect{}
	Postgres Dialect = &PostgresDialect{}
	MySQL    Dialect = &MySQLDialect{}
)

// DialectByName returns the dialect called name ("sqlite", "postgres" or "mysql").
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", name)
	}
}

func quoteWith(name, quote string) string {
	// Escape embedded quotes by doubling them
	return quote + strings.ReplaceAll(name, quote, quote+quote) + quote
}

func varchar(col ddl.ColumnDefinition) string {
	return fmt.Sprintf("VARCHAR(%d)", col.Type.Length)
}

// =============================================================================
// SQLite Dialect
// =============================================================================

// SQLiteDialect implements Dialect for SQLite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string { return "sqlite" }

func (d *SQLiteDialect) QuoteIdentifier(name string) string {
	return quoteWith(name, `"`)
}

func (d *SQLiteDialect) Placeholder(index int) string {
	return "?"
}

func (d *SQLiteDialect) SupportsReturning() bool {
	return true
}

func (d *SQLiteDialect) ColumnType(col ddl.ColumnDefinition) string {
	switch col.Type.Kind {
	case ddl.Text:
		if col.Type.Length > 0 {
			return varchar(col)
		}
		return "TEXT"
	case ddl.Integer, ddl.Boolean:
		// A generated key must be exactly INTEGER to alias the rowid.
		return "INTEGER"
	case ddl.Decimal:
		return "REAL"
	default:
		return temporalType(col)
	}
}

func (d *SQLiteDialect) AutoIncrement() string { return "" }

func (d *SQLiteDialect) EmptyInsert() string { return "DEFAULT VALUES" }

func (d *SQLiteDialect) TableOptions() string { return "" }

// =============================================================================
// Postgres Dialect
// =============================================================================

// PostgresDialect implements Dialect for PostgreSQL.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) QuoteIdentifier(name string) string {
	return quoteWith(name, `"`)
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) SupportsReturning() bool {
	return true
}

func (d *PostgresDialect) ColumnType(col ddl.ColumnDefinition) string {
	switch col.Type.Kind {
	case ddl.Text:
		if col.Type.Length > 0 {
			return varchar(col)
		}
		return "TEXT"
	case ddl.Integer:
		return "BIGINT"
	case ddl.Boolean:
		return "SMALLINT"
	case ddl.Decimal:
		return "DOUBLE PRECISION"
	default:
		return temporalType(col)
	}
}

func (d *PostgresDialect) AutoIncrement() string { return "GENERATED BY DEFAULT AS IDENTITY" }

func (d *PostgresDialect) EmptyInsert() string { return "DEFAULT VALUES" }

func (d *PostgresDialect) TableOptions() string { return "" }

// =============================================================================
// MySQL Dialect
// =============================================================================

// MySQLDialect implements Dialect for MySQL.
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string { return "mysql" }

func (d *MySQLDialect) QuoteIdentifier(name string) string {
	return quoteWith(name, "`")
}

func (d *MySQLDialect) Placeholder(index int) string {
	return "?"
}

func (d *MySQLDialect) SupportsReturning() bool {
	return false // MySQL uses LAST_INSERT_ID() instead
}

func (d *MySQLDialect) ColumnType(col ddl.ColumnDefinition) string {
	switch col.Type.Kind {
	case ddl.Text:
		if col.Type.Length > 0 {
			return varchar(col)
		}
		// TEXT cannot be a key without a prefix length.
		if col.PrimaryKey || col.References != nil {
			return "VARCHAR(255)"
		}
		return "TEXT"
	case ddl.Integer:
		return "BIGINT"
	case ddl.Boolean:
		return "TINYINT"
	case ddl.Decimal:
		return "DOUBLE"
	default:
		return temporalType(col)
	}
}

func (d *MySQLDialect) AutoIncrement() string { return "AUTO_INCREMENT" }

func (d *MySQLDialect) EmptyInsert() string { return "() VALUES ()" }

func (d *MySQLDialect) TableOptions() string { return " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4" }

// temporalType stores dates and times as ISO text on every engine so the
// stored form is the same everywhere and drivers never convert it.
func temporalType(col ddl.ColumnDefinition) string {
	switch col.Type.Kind {
	case ddl.Date:
		return "VARCHAR(10)"
	case ddl.Time:
		return "VARCHAR(18)"
	default:
		return "TEXT"
	}
}

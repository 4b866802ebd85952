// Package dburl resolves connection settings into a database/sql driver
// name and data source name.
package dburl

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Supported database dialects
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

var (
	ErrUnknownDialect = errors.New("unknown database dialect")
	ErrInvalidURL     = errors.New("invalid database URL")
	ErrInvalidPath    = errors.New("invalid database path")
)

// Target is a resolved connection: the dialect, the database/sql driver to
// open and its data source name.
type Target struct {
	Dialect string
	Driver  string
	DSN     string
}

// Resolve turns a URL, or a SQLite file path when dbURL is empty, into a
// Target.
func Resolve(dbURL, path string) (Target, error) {
	if dbURL == "" {
		if err := ValidatePath(path); err != nil {
			return Target{}, err
		}
		return Target{Dialect: DialectSQLite, Driver: "sqlite", DSN: path}, nil
	}

	dialect, err := InferDialectFromDBUrl(dbURL)
	if err != nil {
		return Target{}, err
	}

	switch dialect {
	case DialectPostgres:
		// pgx accepts postgres:// URLs as they are.
		return Target{Dialect: dialect, Driver: "pgx", DSN: dbURL}, nil
	case DialectMySQL:
		dsn, err := MySQLDSN(dbURL)
		if err != nil {
			return Target{}, err
		}
		return Target{Dialect: dialect, Driver: "mysql", DSN: dsn}, nil
	default:
		p, err := SQLitePath(dbURL)
		if err != nil {
			return Target{}, err
		}
		return Target{Dialect: dialect, Driver: "sqlite", DSN: p}, nil
	}
}

// InferDialectFromDBUrl returns the dialect ("postgres", "mysql", or "sqlite")
// based on the URL scheme.
func InferDialectFromDBUrl(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, scheme)
	}
}

// ValidatePath checks a SQLite database path. It must name a file ending in
// ".db"; MemoryPath is also accepted.
func ValidatePath(path string) error {
	if path == MemoryPath {
		return nil
	}
	if !strings.HasSuffix(path, ".db") || strings.HasSuffix(path, "/.db") || path == ".db" {
		return fmt.Errorf("%w: %q must be a file ending in .db", ErrInvalidPath, path)
	}
	return nil
}

// SQLitePath extracts and validates the file path of a sqlite URL.
// Both sqlite:///abs/file.db and sqlite:rel/file.db forms are accepted.
func SQLitePath(dbURL string) (string, error) {
	rest := dbURL
	if i := strings.Index(rest, ":"); i >= 0 {
		rest = rest[i+1:]
	}
	rest = strings.TrimPrefix(rest, "//")
	rest, _, _ = strings.Cut(rest, "?")

	if err := ValidatePath(rest); err != nil {
		return "", err
	}
	return rest, nil
}

// MySQLDSN converts a mysql:// URL to a MySQL driver DSN.
// Format: user:password@tcp(host:port)/dbname?params
func MySQLDSN(mysqlURL string) (string, error) {
	u, err := url.Parse(mysqlURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, mysqlURL)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Host + ":3306"
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")

	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params[key] = values[len(values)-1]
	}

	dsn := cfg.FormatDSN()
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return dsn, nil
}

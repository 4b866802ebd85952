package conn

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/shipq/sqltable/sqlerr"
)

// MySQL server error numbers for integrity constraint failures.
const (
	mysqlNoReferencedRow2 = 1216
	mysqlRowIsReferenced2 = 1217
	mysqlBadNull          = 1048
	mysqlDupEntry         = 1062
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
	mysqlCheckViolated    = 3819
)

// SQLSTATE class 23 is integrity constraint violation.
const postgresIntegrityClass = "23"

func engineError(statement string, err error) error {
	return sqlerr.EngineExecution(statement, err, isConstraintViolation(err))
}

// isConstraintViolation recognises integrity failures from each driver.
func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// Extended result codes keep the primary code in the low byte.
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, postgresIntegrityClass)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlBadNull, mysqlDupEntry, mysqlRowIsReferenced, mysqlNoReferencedRow,
			mysqlRowIsReferenced2, mysqlNoReferencedRow2, mysqlCheckViolated:
			return true
		}
	}

	return false
}

package compile

import (
	"strings"

	"github.com/shipq/sqltable/ddl"
)

// CreateTable generates a CREATE TABLE IF NOT EXISTS statement for t.
// Foreign key targets are not checked here.
func CreateTable(d Dialect, t *ddl.Table) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(d.QuoteIdentifier(t.Name))
	sb.WriteString(" (")

	for i, col := range t.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(columnDef(d, col))
	}

	for _, col := range t.Columns {
		if col.References == nil {
			continue
		}
		sb.WriteString(", FOREIGN KEY (")
		sb.WriteString(d.QuoteIdentifier(col.Name))
		sb.WriteString(") REFERENCES ")
		sb.WriteString(d.QuoteIdentifier(col.References.Table))
		sb.WriteString(" (")
		sb.WriteString(d.QuoteIdentifier(col.References.Column))
		sb.WriteString(")")
	}

	sb.WriteString(")")
	sb.WriteString(d.TableOptions())
	return sb.String(), nil
}

// columnDef generates a column definition for CREATE TABLE.
func columnDef(d Dialect, col ddl.ColumnDefinition) string {
	parts := []string{d.QuoteIdentifier(col.Name), d.ColumnType(col)}

	// PK implies NOT NULL
	if !col.Type.Nullable && !col.PrimaryKey {
		parts = append(parts, "NOT NULL")
	}

	if col.AutoIncrement() {
		if clause := d.AutoIncrement(); clause != "" {
			parts = append(parts, clause)
		}
	}

	if col.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}

	return strings.Join(parts, " ")
}

package ddl

import (
	"regexp"

	"github.com/shipq/sqltable/sqlerr"
)

// identifierRegex matches valid SQL identifiers.
// Identifiers must start with a letter or underscore, followed by letters, digits, or underscores.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateIdentifier checks that a name is a valid SQL identifier.
func ValidateIdentifier(name string) error {
	if name == "" {
		return sqlerr.SchemaViolationf("identifier cannot be empty")
	}
	if !identifierRegex.MatchString(name) {
		return sqlerr.SchemaViolationf("invalid identifier %q: must start with a letter or underscore and contain only letters, digits, and underscores", name)
	}
	return nil
}

// Validate checks the table in isolation: valid and unique names, known
// kinds, non-negative lengths and exactly one primary key. Foreign key
// targets are checked by the caller that knows the other tables.
func (t *Table) Validate() error {
	if err := ValidateIdentifier(t.Name); err != nil {
		return err
	}
	if len(t.Columns) == 0 {
		return sqlerr.SchemaViolationf("table %s has no columns", t.Name)
	}

	seen := make(map[string]bool, len(t.Columns))
	primaryKeys := 0
	for _, c := range t.Columns {
		if err := ValidateIdentifier(c.Name); err != nil {
			return err
		}
		if seen[c.Name] {
			return sqlerr.SchemaViolationf("table %s: duplicate column %s", t.Name, c.Name)
		}
		seen[c.Name] = true

		if !c.Type.Kind.Valid() {
			return sqlerr.SchemaViolationf("table %s: column %s has unknown type %s", t.Name, c.Name, c.Type.Kind)
		}
		if c.Type.Length < 0 {
			return sqlerr.SchemaViolationf("table %s: column %s has negative length", t.Name, c.Name)
		}
		if c.PrimaryKey {
			primaryKeys++
			if c.Type.Nullable {
				return sqlerr.SchemaViolationf("table %s: primary key %s cannot be nullable", t.Name, c.Name)
			}
		}
		if c.References != nil {
			if err := ValidateIdentifier(c.References.Table); err != nil {
				return err
			}
			if err := ValidateIdentifier(c.References.Column); err != nil {
				return err
			}
		}
	}

	switch primaryKeys {
	case 0:
		return sqlerr.SchemaViolationf("table %s has no primary key", t.Name)
	case 1:
		return nil
	default:
		return sqlerr.SchemaViolationf("table %s has %d primary keys, expected exactly one", t.Name, primaryKeys)
	}
}

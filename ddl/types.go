package ddl

import "fmt"

// Kind is the logical type of a column, independent of any engine.
type Kind int

const (
	Text Kind = iota + 1
	Integer
	Decimal
	Boolean
	Date
	Time
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case Time:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= Text && k <= Time
}

// LogicalType describes the values a column accepts.
// Length bounds Text columns in characters; zero means unbounded.
type LogicalType struct {
	Kind     Kind
	Nullable bool
	Length   int
}

// String renders the type for diagnostics, e.g. "text(20) null".
func (t LogicalType) String() string {
	s := t.Kind.String()
	if t.Kind == Text && t.Length > 0 {
		s = fmt.Sprintf("%s(%d)", s, t.Length)
	}
	if t.Nullable {
		s += " null"
	}
	return s
}

// Reference points a foreign key at another table's column.
type Reference struct {
	Table  string
	Column string
}

// ColumnDefinition represents a column in a database table.
type ColumnDefinition struct {
	Name       string
	Type       LogicalType
	PrimaryKey bool
	References *Reference
}

// AutoIncrement reports whether the engine generates this column's value.
// Only integer primary keys are generated.
func (c ColumnDefinition) AutoIncrement() bool {
	return c.PrimaryKey && c.Type.Kind == Integer
}

// Table represents a database table with its columns in declaration order.
type Table struct {
	Name    string
	Columns []ColumnDefinition
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (ColumnDefinition, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// PrimaryKey returns the first primary key column.
func (t *Table) PrimaryKey() (ColumnDefinition, bool) {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

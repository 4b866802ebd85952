package query

// StatementKind identifies the type of statement.
type StatementKind string

const (
	SelectStatement StatementKind = "select"
	InsertStatement StatementKind = "insert"
	UpdateStatement StatementKind = "update"
	DeleteStatement StatementKind = "delete"
)

// Statement is the single-table statement tree handed to the compiler.
type Statement struct {
	Kind  StatementKind
	Table string

	// For SELECT
	Columns []ColumnRef
	OrderBy []Order
	Limit   *int64

	// For INSERT and UPDATE, in the order they are bound.
	Values []Assignment

	// For INSERT, the generated key to read back.
	Returning *ColumnRef

	Where Predicate
}

// Assignment is a column = value pair of an INSERT or UPDATE.
type Assignment struct {
	Column ColumnRef
	Value  any
}

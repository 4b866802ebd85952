package ddl

// TableBuilder owns the table and provides methods to add columns.
type TableBuilder struct {
	table *Table
}

// ColumnBuilder modifies the column most recently added to a TableBuilder.
// It holds an index rather than a pointer so later appends cannot leave it
// pointing at a stale backing array.
type ColumnBuilder struct {
	tableBuilder *TableBuilder
	index        int
}

// MakeTable constructs a new table with no columns.
func MakeTable(name string) *TableBuilder {
	return &TableBuilder{
		table: &Table{
			Name:    name,
			Columns: []ColumnDefinition{},
		},
	}
}

// Build returns a copy of the constructed table.
func (tb *TableBuilder) Build() *Table {
	cols := make([]ColumnDefinition, len(tb.table.Columns))
	for i, c := range tb.table.Columns {
		if c.References != nil {
			ref := *c.References
			c.References = &ref
		}
		cols[i] = c
	}
	return &Table{Name: tb.table.Name, Columns: cols}
}

func (tb *TableBuilder) add(name string, t LogicalType) *ColumnBuilder {
	tb.table.Columns = append(tb.table.Columns, ColumnDefinition{
		Name: name,
		Type: t,
	})
	return &ColumnBuilder{tableBuilder: tb, index: len(tb.table.Columns) - 1}
}

// --- Column Type Methods on TableBuilder ---

// Integer adds a 64-bit integer column.
func (tb *TableBuilder) Integer(name string) *ColumnBuilder {
	return tb.add(name, LogicalType{Kind: Integer})
}

// Text adds an unbounded text column.
func (tb *TableBuilder) Text(name string) *ColumnBuilder {
	return tb.add(name, LogicalType{Kind: Text})
}

// Varchar adds a text column holding at most length characters.
func (tb *TableBuilder) Varchar(name string, length int) *ColumnBuilder {
	return tb.add(name, LogicalType{Kind: Text, Length: length})
}

// Decimal adds a floating point column.
func (tb *TableBuilder) Decimal(name string) *ColumnBuilder {
	return tb.add(name, LogicalType{Kind: Decimal})
}

// Bool adds a boolean column.
func (tb *TableBuilder) Bool(name string) *ColumnBuilder {
	return tb.add(name, LogicalType{Kind: Boolean})
}

// Date adds a calendar date column.
func (tb *TableBuilder) Date(name string) *ColumnBuilder {
	return tb.add(name, LogicalType{Kind: Date})
}

// Time adds a time-of-day column.
func (tb *TableBuilder) Time(name string) *ColumnBuilder {
	return tb.add(name, LogicalType{Kind: Time})
}

// --- Column modifiers ---

func (cb *ColumnBuilder) col() *ColumnDefinition {
	return &cb.tableBuilder.table.Columns[cb.index]
}

// PrimaryKey marks the column as the table's primary key.
func (cb *ColumnBuilder) PrimaryKey() *ColumnBuilder {
	cb.col().PrimaryKey = true
	return cb
}

// Nullable allows NULL values in the column.
func (cb *ColumnBuilder) Nullable() *ColumnBuilder {
	cb.col().Type.Nullable = true
	return cb
}

// References makes the column a foreign key to table.column.
func (cb *ColumnBuilder) References(table, column string) *ColumnBuilder {
	cb.col().References = &Reference{Table: table, Column: column}
	return cb
}

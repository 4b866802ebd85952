package table

import (
	"io"

	"github.com/shipq/sqltable/render"
)

// Row is one fetched row keyed by column name.
type Row map[string]any

// ResultSet holds decoded rows in the order the engine returned them.
type ResultSet struct {
	Columns []string
	values  [][]any
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int { return len(rs.values) }

// Row returns row i.
func (rs *ResultSet) Row(i int) Row {
	row := make(Row, len(rs.Columns))
	for j, name := range rs.Columns {
		row[name] = rs.values[i][j]
	}
	return row
}

// Rows returns every row.
func (rs *ResultSet) Rows() []Row {
	out := make([]Row, len(rs.values))
	for i := range rs.values {
		out[i] = rs.Row(i)
	}
	return out
}

// Values returns the rows as value slices in column order.
func (rs *ResultSet) Values() [][]any {
	out := make([][]any, len(rs.values))
	for i, v := range rs.values {
		out[i] = append([]any(nil), v...)
	}
	return out
}

// String renders the rows as an aligned text table.
func (rs *ResultSet) String() string {
	return render.Table(rs.Columns, rs.values)
}

// Fprint writes the rendered table to w.
func (rs *ResultSet) Fprint(w io.Writer) error {
	return render.Fprint(w, rs.Columns, rs.values)
}

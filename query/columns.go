package query

import "github.com/shipq/sqltable/ddl"

// ColumnRef is a typed handle to one column of a declared table. Table
// handles hand these out; they are plain values and safe to copy.
type ColumnRef struct {
	Table string
	Name  string
	Type  ddl.LogicalType
}

// Equal reports whether both refs name the same table and column.
func (c ColumnRef) Equal(other ColumnRef) bool {
	return c.Table == other.Table && c.Name == other.Name
}

// String returns Table.Name.
func (c ColumnRef) String() string {
	return c.Table + "." + c.Name
}

// --- Comparisons ---
//
// The right operand is validated when the predicate is compiled. It may be
// a Go value, nil, or another ColumnRef.

func (c ColumnRef) Eq(other any) Predicate {
	return Comparison{Left: c, Op: OpEq, Right: other}
}

func (c ColumnRef) Ne(other any) Predicate {
	return Comparison{Left: c, Op: OpNe, Right: other}
}

func (c ColumnRef) Lt(other any) Predicate {
	return Comparison{Left: c, Op: OpLt, Right: other}
}

func (c ColumnRef) Le(other any) Predicate {
	return Comparison{Left: c, Op: OpLe, Right: other}
}

func (c ColumnRef) Gt(other any) Predicate {
	return Comparison{Left: c, Op: OpGt, Right: other}
}

func (c ColumnRef) Ge(other any) Predicate {
	return Comparison{Left: c, Op: OpGe, Right: other}
}

// IsNull is shorthand for Eq(nil).
func (c ColumnRef) IsNull() Predicate {
	return c.Eq(nil)
}

// IsNotNull is shorthand for Ne(nil).
func (c ColumnRef) IsNotNull() Predicate {
	return c.Ne(nil)
}

// --- Ordering ---

func (c ColumnRef) Asc() Order {
	return Order{Column: c}
}

func (c ColumnRef) Desc() Order {
	return Order{Column: c, Desc: true}
}

// Order is one ORDER BY term.
type Order struct {
	Column ColumnRef
	Desc   bool
}

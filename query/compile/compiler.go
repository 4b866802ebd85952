// Package compile turns statement trees and predicates into parameterized
// SQL for one dialect. Values never appear in the SQL text: each one is
// encoded with the codec for its column and bound to a placeholder.
package compile

import (
	"fmt"
	"strings"

	"github.com/shipq/sqltable/codec"
	"github.com/shipq/sqltable/ddl"
	"github.com/shipq/sqltable/query"
	"github.com/shipq/sqltable/sqlerr"
)

// CompilerState holds the mutable state during compilation.
type CompilerState struct {
	ParamCount int
	Params     []any
}

// Compiler compiles statements for a single dialect. A Compiler is reset at
// the start of every call and is not safe for concurrent use.
type Compiler struct {
	dialect Dialect
	state   CompilerState
	b       strings.Builder

	// table restricts predicate columns to one table; empty allows any.
	table string
}

// NewCompiler creates a compiler for the given dialect.
func NewCompiler(dialect Dialect) *Compiler {
	return &Compiler{dialect: dialect}
}

// Compile compiles st into SQL text and its bound parameters.
func Compile(dialect Dialect, st *query.Statement) (Compiled, error) {
	return NewCompiler(dialect).Compile(st)
}

// RenderPredicate renders p on its own, as it would appear after WHERE.
func RenderPredicate(dialect Dialect, p query.Predicate) (string, []any, error) {
	return NewCompiler(dialect).RenderPredicate(p)
}

func (c *Compiler) reset(table string) {
	c.state = CompilerState{}
	c.b.Reset()
	c.table = table
}

// RenderPredicate renders p on its own, as it would appear after WHERE.
func (c *Compiler) RenderPredicate(p query.Predicate) (string, []any, error) {
	c.reset("")
	if err := c.writePredicate(p); err != nil {
		return "", nil, err
	}
	return c.b.String(), c.state.Params, nil
}

// Compile compiles st into SQL text and its bound parameters.
func (c *Compiler) Compile(st *query.Statement) (Compiled, error) {
	if st == nil {
		return Compiled{}, sqlerr.InvalidStatementf("nil statement")
	}
	c.reset(st.Table)
	if err := ddl.ValidateIdentifier(st.Table); err != nil {
		return Compiled{}, err
	}

	var err error
	out := Compiled{}
	switch st.Kind {
	case query.SelectStatement:
		err = c.compileSelect(st)
		out.ReturnsRows = true
	case query.InsertStatement:
		out.ReturnsRows, err = c.compileInsert(st)
	case query.UpdateStatement:
		err = c.compileUpdate(st)
		out.Unfiltered = st.Where == nil
	case query.DeleteStatement:
		err = c.compileDelete(st)
		out.Unfiltered = st.Where == nil
	default:
		err = sqlerr.InvalidStatementf("unknown statement kind %q", st.Kind)
	}
	if err != nil {
		return Compiled{}, err
	}

	out.SQL = c.b.String()
	out.Params = c.state.Params
	return out, nil
}

func (c *Compiler) compileSelect(st *query.Statement) error {
	c.b.WriteString("SELECT ")
	if len(st.Columns) == 0 {
		c.b.WriteString("*")
	}
	for i, col := range st.Columns {
		if i > 0 {
			c.b.WriteString(", ")
		}
		if err := c.writeColumn(col); err != nil {
			return err
		}
	}

	c.b.WriteString(" FROM ")
	c.b.WriteString(c.dialect.QuoteIdentifier(st.Table))

	if err := c.writeWhere(st.Where); err != nil {
		return err
	}

	if len(st.OrderBy) > 0 {
		c.b.WriteString(" ORDER BY ")
		for i, o := range st.OrderBy {
			if i > 0 {
				c.b.WriteString(", ")
			}
			if err := c.writeColumn(o.Column); err != nil {
				return err
			}
			if o.Desc {
				c.b.WriteString(" DESC")
			} else {
				c.b.WriteString(" ASC")
			}
		}
	}

	if st.Limit != nil {
		if *st.Limit < 0 {
			return sqlerr.InvalidStatementf("negative limit %d", *st.Limit)
		}
		c.b.WriteString(" LIMIT ")
		c.b.WriteString(c.bind(*st.Limit))
	}
	return nil
}

// compileInsert reports whether the statement returns the generated key.
func (c *Compiler) compileInsert(st *query.Statement) (bool, error) {
	c.b.WriteString("INSERT INTO ")
	c.b.WriteString(c.dialect.QuoteIdentifier(st.Table))

	if len(st.Values) == 0 {
		c.b.WriteString(" ")
		c.b.WriteString(c.dialect.EmptyInsert())
	} else {
		c.b.WriteString(" (")
		for i, a := range st.Values {
			if i > 0 {
				c.b.WriteString(", ")
			}
			if err := c.writeBareColumn(a.Column); err != nil {
				return false, err
			}
		}
		c.b.WriteString(") VALUES (")
		for i, a := range st.Values {
			if i > 0 {
				c.b.WriteString(", ")
			}
			if err := c.writeValue(a.Column, a.Value); err != nil {
				return false, err
			}
		}
		c.b.WriteString(")")
	}

	if st.Returning != nil && c.dialect.SupportsReturning() {
		c.b.WriteString(" RETURNING ")
		if err := c.writeBareColumn(*st.Returning); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (c *Compiler) compileUpdate(st *query.Statement) error {
	if len(st.Values) == 0 {
		return sqlerr.InvalidStatementf("UPDATE %s without values", st.Table)
	}

	c.b.WriteString("UPDATE ")
	c.b.WriteString(c.dialect.QuoteIdentifier(st.Table))
	c.b.WriteString(" SET ")
	for i, a := range st.Values {
		if i > 0 {
			c.b.WriteString(", ")
		}
		if err := c.writeBareColumn(a.Column); err != nil {
			return err
		}
		c.b.WriteString(" = ")
		if err := c.writeValue(a.Column, a.Value); err != nil {
			return err
		}
	}
	return c.writeWhere(st.Where)
}

func (c *Compiler) compileDelete(st *query.Statement) error {
	c.b.WriteString("DELETE FROM ")
	c.b.WriteString(c.dialect.QuoteIdentifier(st.Table))
	return c.writeWhere(st.Where)
}

func (c *Compiler) writeWhere(p query.Predicate) error {
	if p == nil {
		return nil
	}
	c.b.WriteString(" WHERE ")
	return c.writePredicate(p)
}

func (c *Compiler) writePredicate(p query.Predicate) error {
	switch n := p.(type) {
	case query.Comparison:
		return c.writeComparison(n)
	case query.AndExpr:
		return c.writeComposite(n.Left, "AND", n.Right)
	case query.OrExpr:
		return c.writeComposite(n.Left, "OR", n.Right)
	case nil:
		return sqlerr.InvalidStatementf("nil predicate")
	default:
		return sqlerr.InvalidStatementf("unsupported predicate %T", p)
	}
}

func (c *Compiler) writeComposite(left query.Predicate, op string, right query.Predicate) error {
	c.b.WriteString("(")
	if err := c.writePredicate(left); err != nil {
		return err
	}
	c.b.WriteString(") ")
	c.b.WriteString(op)
	c.b.WriteString(" (")
	if err := c.writePredicate(right); err != nil {
		return err
	}
	c.b.WriteString(")")
	return nil
}

func (c *Compiler) writeComparison(cmp query.Comparison) error {
	switch cmp.Op {
	case query.OpEq, query.OpNe, query.OpLt, query.OpLe, query.OpGt, query.OpGe:
	default:
		return sqlerr.InvalidStatementf("unknown comparison operator %q", cmp.Op)
	}
	if err := c.writeColumn(cmp.Left); err != nil {
		return err
	}

	if other, ok := columnOperand(cmp.Right); ok {
		c.b.WriteString(" ")
		c.b.WriteString(string(cmp.Op))
		c.b.WriteString(" ")
		return c.writeColumn(other)
	}

	// Operands are coerced to the column's type but never rejected for
	// length or nullability: a comparison only reads.
	t := cmp.Left.Type
	t.Nullable = true
	t.Length = 0
	stored, isNull, err := codec.Encode(t, cmp.Right)
	if err != nil {
		return err
	}

	if isNull {
		switch cmp.Op {
		case query.OpEq:
			c.b.WriteString(" IS NULL")
		case query.OpNe:
			c.b.WriteString(" IS NOT NULL")
		default:
			return sqlerr.TypeMismatchf("cannot compare %s %s NULL", cmp.Left, cmp.Op)
		}
		return nil
	}

	c.b.WriteString(" ")
	c.b.WriteString(string(cmp.Op))
	c.b.WriteString(" ")
	c.b.WriteString(c.bind(stored))
	return nil
}

func columnOperand(v any) (query.ColumnRef, bool) {
	switch col := v.(type) {
	case query.ColumnRef:
		return col, true
	case *query.ColumnRef:
		if col != nil {
			return *col, true
		}
	}
	return query.ColumnRef{}, false
}

// writeValue encodes v for col and writes its placeholder.
func (c *Compiler) writeValue(col query.ColumnRef, v any) error {
	stored, _, err := codec.Encode(col.Type, v)
	if err != nil {
		return fmt.Errorf("column %s: %w", col, err)
	}
	c.b.WriteString(c.bind(stored))
	return nil
}

// bind appends a parameter and returns its placeholder.
func (c *Compiler) bind(v any) string {
	c.state.ParamCount++
	c.state.Params = append(c.state.Params, v)
	return c.dialect.Placeholder(c.state.ParamCount)
}

// writeColumn writes a table-qualified column reference.
func (c *Compiler) writeColumn(col query.ColumnRef) error {
	if err := c.checkColumn(col); err != nil {
		return err
	}
	c.b.WriteString(c.dialect.QuoteIdentifier(col.Table))
	c.b.WriteString(".")
	c.b.WriteString(c.dialect.QuoteIdentifier(col.Name))
	return nil
}

// writeBareColumn writes an unqualified column name, as INSERT column lists
// and UPDATE SET clauses require.
func (c *Compiler) writeBareColumn(col query.ColumnRef) error {
	if err := c.checkColumn(col); err != nil {
		return err
	}
	c.b.WriteString(c.dialect.QuoteIdentifier(col.Name))
	return nil
}

func (c *Compiler) checkColumn(col query.ColumnRef) error {
	if err := ddl.ValidateIdentifier(col.Table); err != nil {
		return err
	}
	if err := ddl.ValidateIdentifier(col.Name); err != nil {
		return err
	}
	if c.table != "" && col.Table != c.table {
		return sqlerr.InvalidStatementf("column %s does not belong to table %s", col, c.table)
	}
	return nil
}

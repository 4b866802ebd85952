// Package table binds declared schemas to the statement builder: a *Table
// hands out typed column references and starts INSERT, SELECT, UPDATE and
// DELETE statements that run through a Conn.
package table

import (
	"context"
	"fmt"

	"github.com/shipq/sqltable/codec"
	"github.com/shipq/sqltable/conn"
	"github.com/shipq/sqltable/ddl"
	"github.com/shipq/sqltable/query"
	"github.com/shipq/sqltable/query/compile"
	"github.com/shipq/sqltable/sqlerr"
)

// Conn executes compiled statements. *conn.Scope implements it.
type Conn interface {
	Dialect() compile.Dialect
	Execute(ctx context.Context, c compile.Compiled) (*conn.Result, error)
}

// Values maps columns to the values written by InsertInto and Update.
type Values map[query.ColumnRef]any

// Table is a declared, validated table.
type Table struct {
	def    *ddl.Table
	cols   []query.ColumnRef
	byName map[string]int
}

// Declare validates def and returns its handle. Foreign keys must point at
// the primary key of def itself or of one of deps, with the same kind.
func Declare(def *ddl.Table, deps ...*Table) (*Table, error) {
	if def == nil {
		return nil, sqlerr.SchemaViolationf("nil table definition")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	t := &Table{
		def:    cloneDef(def),
		byName: make(map[string]int, len(def.Columns)),
	}
	for i, c := range t.def.Columns {
		t.cols = append(t.cols, query.ColumnRef{Table: t.def.Name, Name: c.Name, Type: c.Type})
		t.byName[c.Name] = i
	}

	if err := t.checkForeignKeys(deps); err != nil {
		return nil, err
	}
	return t, nil
}

// MustDeclare is like Declare but panics on an invalid schema.
func MustDeclare(def *ddl.Table, deps ...*Table) *Table {
	t, err := Declare(def, deps...)
	if err != nil {
		panic(fmt.Sprintf("table: Declare(%s): %v", def.Name, err))
	}
	return t
}

func (t *Table) checkForeignKeys(deps []*Table) error {
	for _, c := range t.def.Columns {
		if c.References == nil {
			continue
		}
		ref := c.References

		var target *ddl.Table
		if ref.Table == t.def.Name {
			target = t.def
		}
		for _, dep := range deps {
			if dep != nil && dep.Name() == ref.Table {
				target = dep.def
				break
			}
		}
		if target == nil {
			return sqlerr.SchemaViolationf("table %s: column %s references undeclared table %s",
				t.def.Name, c.Name, ref.Table)
		}

		targetCol, ok := target.Column(ref.Column)
		if !ok {
			return sqlerr.SchemaViolationf("table %s: column %s references missing column %s.%s",
				t.def.Name, c.Name, ref.Table, ref.Column)
		}
		if !targetCol.PrimaryKey {
			return sqlerr.SchemaViolationf("table %s: column %s must reference a primary key, %s.%s is not one",
				t.def.Name, c.Name, ref.Table, ref.Column)
		}
		if targetCol.Type.Kind != c.Type.Kind {
			return sqlerr.SchemaViolationf("table %s: column %s is %s but references %s.%s of type %s",
				t.def.Name, c.Name, c.Type.Kind, ref.Table, ref.Column, targetCol.Type.Kind)
		}
	}
	return nil
}

func cloneDef(def *ddl.Table) *ddl.Table {
	out := &ddl.Table{Name: def.Name, Columns: make([]ddl.ColumnDefinition, len(def.Columns))}
	copy(out.Columns, def.Columns)
	for i := range out.Columns {
		if r := out.Columns[i].References; r != nil {
			ref := *r
			out.Columns[i].References = &ref
		}
	}
	return out
}

// Name returns the table name.
func (t *Table) Name() string { return t.def.Name }

// String returns the table name.
func (t *Table) String() string { return t.def.Name }

// Columns returns the table's columns in declaration order.
func (t *Table) Columns() []query.ColumnRef {
	out := make([]query.ColumnRef, len(t.cols))
	copy(out, t.cols)
	return out
}

// Lookup returns the named column.
func (t *Table) Lookup(name string) (query.ColumnRef, bool) {
	i, ok := t.byName[name]
	if !ok {
		return query.ColumnRef{}, false
	}
	return t.cols[i], true
}

// Col returns the named column and panics if the table has none.
func (t *Table) Col(name string) query.ColumnRef {
	c, ok := t.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("table %s has no column %q", t.def.Name, name))
	}
	return c
}

// PrimaryKey returns the primary key column.
func (t *Table) PrimaryKey() query.ColumnRef {
	pk, _ := t.def.PrimaryKey()
	return t.Col(pk.Name)
}

// own resolves a caller-supplied reference to the declared column, so a
// stale Type on the reference never reaches the codec.
func (t *Table) own(c query.ColumnRef) (query.ColumnRef, error) {
	if c.Table != t.def.Name {
		return query.ColumnRef{}, sqlerr.InvalidStatementf("column %s does not belong to table %s", c, t.def.Name)
	}
	declared, ok := t.Lookup(c.Name)
	if !ok {
		return query.ColumnRef{}, sqlerr.InvalidStatementf("table %s has no column %s", t.def.Name, c.Name)
	}
	return declared, nil
}

// assignments orders values by column declaration.
func (t *Table) assignments(values Values) ([]query.Assignment, error) {
	byIndex := make(map[int]any, len(values))
	for c, v := range values {
		declared, err := t.own(c)
		if err != nil {
			return nil, err
		}
		i := t.byName[declared.Name]
		if _, dup := byIndex[i]; dup {
			return nil, sqlerr.InvalidStatementf("column %s given twice", declared)
		}
		byIndex[i] = v
	}

	out := make([]query.Assignment, 0, len(byIndex))
	for i, col := range t.cols {
		if v, ok := byIndex[i]; ok {
			out = append(out, query.Assignment{Column: col, Value: v})
		}
	}
	return out, nil
}

// CreateSQL returns the CREATE TABLE statement for d.
func (t *Table) CreateSQL(d compile.Dialect) (string, error) {
	return compile.CreateTable(d, t.def)
}

// Create creates the table if it does not exist.
func (t *Table) Create(ctx context.Context, c Conn) error {
	sql, err := t.CreateSQL(c.Dialect())
	if err != nil {
		return err
	}
	_, err = c.Execute(ctx, compile.Compiled{SQL: sql})
	return err
}

// CreateAll creates tables in order; referenced tables must come first.
func CreateAll(ctx context.Context, c Conn, tables ...*Table) error {
	for _, t := range tables {
		if err := t.Create(ctx, c); err != nil {
			return fmt.Errorf("create %s: %w", t.Name(), err)
		}
	}
	return nil
}

// InsertInto inserts one row immediately and returns its primary key: the
// generated key for an integer primary key the caller left out, the
// supplied key otherwise, and 0 when the key is not an integer.
//
// Every non-nullable column must be given a value, except a generated
// integer primary key.
func (t *Table) InsertInto(ctx context.Context, c Conn, values Values) (int64, error) {
	assignments, err := t.assignments(values)
	if err != nil {
		return 0, err
	}

	supplied := make(map[string]any, len(assignments))
	for _, a := range assignments {
		supplied[a.Column.Name] = a.Value
	}
	for _, col := range t.def.Columns {
		if col.Type.Nullable || col.AutoIncrement() {
			continue
		}
		if _, ok := supplied[col.Name]; !ok {
			return 0, sqlerr.MissingColumnf("table %s: no value for column %s", t.def.Name, col.Name)
		}
	}

	pk, _ := t.def.PrimaryKey()
	pkRef := t.Col(pk.Name)
	st := &query.Statement{Kind: query.InsertStatement, Table: t.def.Name, Values: assignments}

	pkValue, pkSupplied := supplied[pk.Name]
	if pk.AutoIncrement() && !pkSupplied {
		st.Returning = &pkRef
	}

	compiled, err := compile.Compile(c.Dialect(), st)
	if err != nil {
		return 0, err
	}
	res, err := c.Execute(ctx, compiled)
	if err != nil {
		return 0, err
	}

	if pk.Type.Kind != ddl.Integer {
		return 0, nil
	}
	switch {
	case pkSupplied:
		stored, _, err := codec.Encode(pk.Type, pkValue)
		return keyOf(pk, stored, err)
	case compiled.ReturnsRows:
		if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
			return 0, sqlerr.EngineExecution(compiled.SQL, fmt.Errorf("no key returned"), false)
		}
		decoded, err := codec.Decode(pk.Type, res.Rows[0][0])
		return keyOf(pk, decoded, err)
	default:
		return res.LastInsertID, nil
	}
}

func keyOf(pk ddl.ColumnDefinition, v any, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	id, ok := v.(int64)
	if !ok {
		return 0, sqlerr.TypeMismatchf("primary key %s: expected an integer, got %T", pk.Name, v)
	}
	return id, nil
}

// Select starts a SELECT of cols; no columns selects every column.
func (t *Table) Select(cols ...query.ColumnRef) *PendingStatement {
	p := t.pending(query.SelectStatement)
	if len(cols) == 0 {
		p.stmt.Columns = t.Columns()
		return p
	}
	for _, c := range cols {
		declared, err := t.own(c)
		if err != nil {
			p.fail(err)
			return p
		}
		p.stmt.Columns = append(p.stmt.Columns, declared)
	}
	return p
}

// SelectAll starts a SELECT of every column.
func (t *Table) SelectAll() *PendingStatement {
	return t.Select()
}

// Update starts an UPDATE setting values. Values are encoded when the
// statement runs.
func (t *Table) Update(values Values) *PendingStatement {
	p := t.pending(query.UpdateStatement)
	if len(values) == 0 {
		p.fail(sqlerr.InvalidStatementf("Update on %s needs at least one value", t.def.Name))
		return p
	}
	assignments, err := t.assignments(values)
	if err != nil {
		p.fail(err)
		return p
	}
	p.stmt.Values = assignments
	return p
}

// Delete starts a DELETE. Without Where it removes every row.
func (t *Table) Delete() *PendingStatement {
	return t.pending(query.DeleteStatement)
}

// Describe fetches the whole table and renders it.
func (t *Table) Describe(ctx context.Context, c Conn) (string, error) {
	rs, err := t.SelectAll().Fetch(ctx, c)
	if err != nil {
		return "", err
	}
	return rs.String(), nil
}

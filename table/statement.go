package table

import (
	"context"
	"fmt"

	"github.com/shipq/sqltable/codec"
	"github.com/shipq/sqltable/query"
	"github.com/shipq/sqltable/query/compile"
	"github.com/shipq/sqltable/sqlerr"
)

// PendingStatement is a SELECT, UPDATE or DELETE under construction. It is
// run exactly once, by Fetch for SELECT or Exec otherwise. Builder errors
// are kept and returned when it runs; nothing reaches the engine then.
type PendingStatement struct {
	table    *Table
	stmt     query.Statement
	whereSet bool
	err      error
	consumed bool
}

func (t *Table) pending(kind query.StatementKind) *PendingStatement {
	return &PendingStatement{
		table: t,
		stmt:  query.Statement{Kind: kind, Table: t.def.Name},
	}
}

// fail records the first builder error.
func (p *PendingStatement) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Kind returns the statement kind.
func (p *PendingStatement) Kind() query.StatementKind { return p.stmt.Kind }

// Err returns the first error recorded while building the statement.
func (p *PendingStatement) Err() error { return p.err }

// Where sets the statement's filter. It may be called once.
func (p *PendingStatement) Where(pred query.Predicate) *PendingStatement {
	switch {
	case p.whereSet:
		p.fail(sqlerr.New(sqlerr.KindDuplicateWhere,
			fmt.Sprintf("%s on %s already has a WHERE clause", p.stmt.Kind, p.stmt.Table)))
	case pred == nil:
		p.fail(sqlerr.InvalidStatementf("nil predicate passed to Where"))
	default:
		if err := p.checkPredicate(pred); err != nil {
			p.fail(err)
		} else {
			p.stmt.Where = pred
		}
	}
	p.whereSet = true
	return p
}

// checkPredicate requires every column in pred to be one of the table's
// own columns, with its declared type.
func (p *PendingStatement) checkPredicate(pred query.Predicate) error {
	var err error
	query.Walk(pred, func(n query.Predicate) {
		cmp, ok := n.(query.Comparison)
		if !ok || err != nil {
			return
		}
		cols := []query.ColumnRef{cmp.Left}
		if other, ok := cmp.Right.(query.ColumnRef); ok {
			cols = append(cols, other)
		}
		for _, c := range cols {
			declared, ownErr := p.table.own(c)
			if ownErr != nil {
				err = ownErr
				return
			}
			if declared.Type != c.Type {
				err = sqlerr.InvalidStatementf("column %s is declared %s, not %s", c, declared.Type, c.Type)
				return
			}
		}
	})
	return err
}

// OrderBy sorts a SELECT's rows.
func (p *PendingStatement) OrderBy(orders ...query.Order) *PendingStatement {
	if p.stmt.Kind != query.SelectStatement {
		p.fail(sqlerr.InvalidStatementf("ORDER BY is only valid on SELECT, not %s", p.stmt.Kind))
		return p
	}
	for _, o := range orders {
		declared, err := p.table.own(o.Column)
		if err != nil {
			p.fail(err)
			return p
		}
		p.stmt.OrderBy = append(p.stmt.OrderBy, query.Order{Column: declared, Desc: o.Desc})
	}
	return p
}

// Limit caps the number of rows a SELECT returns.
func (p *PendingStatement) Limit(n int64) *PendingStatement {
	if p.stmt.Kind != query.SelectStatement {
		p.fail(sqlerr.InvalidStatementf("LIMIT is only valid on SELECT, not %s", p.stmt.Kind))
		return p
	}
	if n < 0 {
		p.fail(sqlerr.InvalidStatementf("negative limit %d", n))
		return p
	}
	p.stmt.Limit = &n
	return p
}

// SQL compiles the statement for d without running or consuming it.
func (p *PendingStatement) SQL(d compile.Dialect) (compile.Compiled, error) {
	if p.err != nil {
		return compile.Compiled{}, p.err
	}
	return compile.Compile(d, &p.stmt)
}

// String shows the statement as compiled for SQLite.
func (p *PendingStatement) String() string {
	c, err := p.SQL(compile.SQLite)
	if err != nil {
		return fmt.Sprintf("%s %s: %v", p.stmt.Kind, p.stmt.Table, err)
	}
	return c.String()
}

func (p *PendingStatement) consume(d compile.Dialect) (compile.Compiled, error) {
	if p.consumed {
		return compile.Compiled{}, sqlerr.InvalidStatementf("%s on %s has already run", p.stmt.Kind, p.stmt.Table)
	}
	p.consumed = true
	return p.SQL(d)
}

// Fetch runs a SELECT and decodes its rows.
func (p *PendingStatement) Fetch(ctx context.Context, c Conn) (*ResultSet, error) {
	if p.stmt.Kind != query.SelectStatement {
		return nil, sqlerr.InvalidStatementf("Fetch needs a SELECT, use Exec for %s", p.stmt.Kind)
	}
	compiled, err := p.consume(c.Dialect())
	if err != nil {
		return nil, err
	}

	res, err := c.Execute(ctx, compiled)
	if err != nil {
		return nil, err
	}

	cols := p.stmt.Columns
	rs := &ResultSet{Columns: make([]string, len(cols))}
	for i, col := range cols {
		rs.Columns[i] = col.Name
	}

	for _, raw := range res.Rows {
		if len(raw) != len(cols) {
			return nil, sqlerr.EngineExecution(compiled.SQL,
				fmt.Errorf("expected %d columns, got %d", len(cols), len(raw)), false)
		}
		values := make([]any, len(cols))
		for i, col := range cols {
			v, err := codec.Decode(col.Type, raw[i])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			values[i] = v
		}
		rs.values = append(rs.values, values)
	}
	return rs, nil
}

// Exec runs an UPDATE or DELETE and returns the number of rows affected.
func (p *PendingStatement) Exec(ctx context.Context, c Conn) (int64, error) {
	if p.stmt.Kind == query.SelectStatement {
		return 0, sqlerr.InvalidStatementf("Exec cannot run a SELECT, use Fetch")
	}
	compiled, err := p.consume(c.Dialect())
	if err != nil {
		return 0, err
	}

	res, err := c.Execute(ctx, compiled)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

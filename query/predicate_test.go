package query

import (
	"testing"

	"github.com/shipq/sqltable/ddl"
)

var (
	personID   = ColumnRef{Table: "People", Name: "ID", Type: ddl.LogicalType{Kind: ddl.Integer}}
	personName = ColumnRef{Table: "People", Name: "Name", Type: ddl.LogicalType{Kind: ddl.Text, Length: 20}}
	personAge  = ColumnRef{Table: "People", Name: "Age", Type: ddl.LogicalType{Kind: ddl.Integer, Nullable: true}}
)

func TestComparisonOps(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		op   CompareOp
	}{
		{"Eq", personAge.Eq(3), OpEq},
		{"Ne", personAge.Ne(3), OpNe},
		{"Lt", personAge.Lt(3), OpLt},
		{"Le", personAge.Le(3), OpLe},
		{"Gt", personAge.Gt(3), OpGt},
		{"Ge", personAge.Ge(3), OpGe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, ok := tt.pred.(Comparison)
			if !ok {
				t.Fatalf("expected Comparison, got %T", tt.pred)
			}
			if cmp.Op != tt.op {
				t.Errorf("expected op %s, got %s", tt.op, cmp.Op)
			}
			if !cmp.Left.Equal(personAge) {
				t.Errorf("expected left column %s, got %s", personAge, cmp.Left)
			}
			if cmp.Right != 3 {
				t.Errorf("expected right operand 3, got %v", cmp.Right)
			}
		})
	}
}

func TestNullShorthands(t *testing.T) {
	if p := personAge.IsNull().(Comparison); p.Op != OpEq || p.Right != nil {
		t.Errorf("IsNull() = %+v", p)
	}
	if p := personAge.IsNotNull().(Comparison); p.Op != OpNe || p.Right != nil {
		t.Errorf("IsNotNull() = %+v", p)
	}
}

func TestOrderingOps(t *testing.T) {
	for _, op := range []CompareOp{OpLt, OpLe, OpGt, OpGe} {
		if !op.Ordering() {
			t.Errorf("%s should be an ordering operator", op)
		}
	}
	for _, op := range []CompareOp{OpEq, OpNe} {
		if op.Ordering() {
			t.Errorf("%s should not be an ordering operator", op)
		}
	}
}

func TestAndOrDoNotMutateOperands(t *testing.T) {
	p1 := personName.Eq("Kieran")
	p2 := personAge.Gt(18)

	and := And(p1, p2).(AndExpr)
	or := Or(p1, p2).(OrExpr)

	if and.Left != p1 || and.Right != p2 {
		t.Error("And should keep its operands as given")
	}
	if or.Left != p1 || or.Right != p2 {
		t.Error("Or should keep its operands as given")
	}
	if p1.(Comparison).Right != "Kieran" {
		t.Error("operand changed after composition")
	}
}

func TestColumnRefEqual(t *testing.T) {
	other := ColumnRef{Table: "People", Name: "Age", Type: ddl.LogicalType{Kind: ddl.Decimal}}
	if !personAge.Equal(other) {
		t.Error("refs with the same table and name should be equal")
	}
	if personAge.Equal(personName) {
		t.Error("refs with different names should differ")
	}
	if personAge.Equal(ColumnRef{Table: "Students", Name: "Age"}) {
		t.Error("refs on different tables should differ")
	}
}

func TestWalkOrder(t *testing.T) {
	p := Or(And(personID.Eq(1), personName.Eq("a")), personAge.IsNull())

	var rights []any
	Walk(p, func(n Predicate) {
		if c, ok := n.(Comparison); ok {
			rights = append(rights, c.Right)
		}
	})

	want := []any{1, "a", nil}
	if len(rights) != len(want) {
		t.Fatalf("visited %d comparisons, want %d", len(rights), len(want))
	}
	for i := range want {
		if rights[i] != want[i] {
			t.Errorf("visit %d: got %v, want %v", i, rights[i], want[i])
		}
	}
}

func TestAllOfAnyOf(t *testing.T) {
	if AllOf() != nil || AnyOf() != nil {
		t.Error("empty folds should be nil")
	}

	single := personID.Eq(1)
	if AllOf(single) != single {
		t.Error("AllOf of one predicate should return it")
	}

	p := AllOf(personID.Eq(1), personName.Eq("a"), personAge.Eq(2))
	outer, ok := p.(AndExpr)
	if !ok {
		t.Fatalf("expected AndExpr, got %T", p)
	}
	if _, ok := outer.Left.(AndExpr); !ok {
		t.Error("AllOf should fold left to right")
	}

	if _, ok := AnyOf(personID.Eq(1), personID.Eq(2)).(OrExpr); !ok {
		t.Error("AnyOf should produce OrExpr")
	}
}

func TestOrderTerms(t *testing.T) {
	if o := personAge.Asc(); o.Desc || !o.Column.Equal(personAge) {
		t.Errorf("Asc() = %+v", o)
	}
	if o := personAge.Desc(); !o.Desc {
		t.Errorf("Desc() = %+v", o)
	}
}

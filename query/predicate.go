package query

// Predicate is a boolean condition over table columns. The set of
// implementations is closed: Comparison, AndExpr and OrExpr.
type Predicate interface {
	isPredicate()
}

// CompareOp represents comparison operators.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "<>"
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// Ordering reports whether op needs an ordered operand and so has no
// NULL form.
func (op CompareOp) Ordering() bool {
	switch op {
	case OpLt, OpLe, OpGt, OpGe:
		return true
	default:
		return false
	}
}

// Comparison compares a column with a value or another column.
type Comparison struct {
	Left  ColumnRef
	Op    CompareOp
	Right any
}

func (Comparison) isPredicate() {}

// AndExpr holds when both sides hold.
type AndExpr struct {
	Left  Predicate
	Right Predicate
}

func (AndExpr) isPredicate() {}

// OrExpr holds when either side holds.
type OrExpr struct {
	Left  Predicate
	Right Predicate
}

func (OrExpr) isPredicate() {}

// And returns the conjunction of left and right. Neither operand is modified.
func And(left, right Predicate) Predicate {
	return AndExpr{Left: left, Right: right}
}

// Or returns the disjunction of left and right. Neither operand is modified.
func Or(left, right Predicate) Predicate {
	return OrExpr{Left: left, Right: right}
}

// AllOf folds preds left to right with And. It returns nil for no predicates.
func AllOf(preds ...Predicate) Predicate {
	return fold(preds, And)
}

// AnyOf folds preds left to right with Or. It returns nil for no predicates.
func AnyOf(preds ...Predicate) Predicate {
	return fold(preds, Or)
}

func fold(preds []Predicate, join func(Predicate, Predicate) Predicate) Predicate {
	if len(preds) == 0 {
		return nil
	}
	out := preds[0]
	for _, p := range preds[1:] {
		out = join(out, p)
	}
	return out
}

// Walk calls fn for every node of p in depth-first, left-to-right order,
// which is the order placeholders are emitted in.
func Walk(p Predicate, fn func(Predicate)) {
	if p == nil {
		return
	}
	fn(p)
	switch n := p.(type) {
	case AndExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case OrExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	}
}

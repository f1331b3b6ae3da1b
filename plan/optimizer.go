package plan

import (
	"github.com/chocapikk/arcdb/catalog"
	"github.com/chocapikk/arcdb/sqlfe"
)

// Optimizer applies a handful of heuristic rewrites to a logical plan.
// It never changes result semantics, only access strategy.
type Optimizer struct {
	Catalog *catalog.Catalog
}

// NewOptimizer returns an optimizer bound to cat, used to check
// whether a column has a declared index.
func NewOptimizer(cat *catalog.Catalog) *Optimizer {
	return &Optimizer{Catalog: cat}
}

// Optimize recursively rewrites node in place (structurally; nodes are
// immutable value trees so "in place" means a new tree is returned).
func (o *Optimizer) Optimize(node Node) Node {
	switch n := node.(type) {
	case *Filter:
		input := o.Optimize(n.Input)
		if scan, ok := input.(*Scan); ok {
			if idxScan, ok := o.tryIndexScan(scan, n.Predicate); ok {
				return idxScan
			}
		}
		return &Filter{Input: input, Predicate: n.Predicate}
	case *Project:
		return &Project{Input: o.Optimize(n.Input), Items: n.Items}
	case *Aggregate:
		return &Aggregate{Input: o.Optimize(n.Input), GroupBy: n.GroupBy, Items: n.Items}
	case *Sort:
		return &Sort{Input: o.Optimize(n.Input), Keys: n.Keys}
	case *Limit:
		return &Limit{Input: o.Optimize(n.Input), Limit: n.Limit, Offset: n.Offset}
	case *Join:
		left := o.Optimize(n.Left)
		right := o.Optimize(n.Right)
		if n.Type == sqlfe.JoinInner {
			if buildKey, probeKey, ok := equiJoinKeys(n.Condition); ok {
				// Each key is evaluated against its own side's rows, so a
				// condition written right-table-first has its keys swapped.
				if rs, ok := right.(*Scan); ok && buildKey.(*sqlfe.ColumnRef).Table == rs.Alias {
					buildKey, probeKey = probeKey, buildKey
				}
				return &HashJoin{Build: left, Probe: right, BuildKey: buildKey, ProbeKey: probeKey}
			}
		}
		return &Join{Left: left, Right: right, Type: n.Type, Condition: n.Condition}
	default:
		return node
	}
}

// tryIndexScan rewrites Filter(Scan) into an IndexScan when predicate
// is a simple "column OP literal" (or its mirror, for Eq; a negated
// literal also counts)
// comparison over a column that has a declared index. Range operators
// require the column on the left, matching the source optimizer's
// rule that only Eq is treated symmetrically.
func (o *Optimizer) tryIndexScan(scan *Scan, predicate sqlfe.Expr) (*IndexScan, bool) {
	bop, ok := predicate.(*sqlfe.BinaryOp)
	if !ok {
		return nil, false
	}

	td, ok := o.Catalog.GetTable(scan.Table)
	if !ok {
		return nil, false
	}

	if col, val, ok := asColumnCompare(bop.Left, bop.Right); ok {
		if idx, ok := td.IndexFor(col); ok {
			return o.indexScanFor(scan, idx.Columns[0], bop.Op, val, false)
		}
	}
	if bop.Op == sqlfe.OpEq {
		if col, val, ok := asColumnCompare(bop.Right, bop.Left); ok {
			if idx, ok := td.IndexFor(col); ok {
				return o.indexScanFor(scan, idx.Columns[0], bop.Op, val, false)
			}
		}
	}
	return nil, false
}

func asColumnCompare(left, right sqlfe.Expr) (string, sqlfe.Expr, bool) {
	col, ok := left.(*sqlfe.ColumnRef)
	if !ok {
		return "", nil, false
	}
	switch r := right.(type) {
	case *sqlfe.Literal:
	case *sqlfe.UnaryOp:
		if _, ok := r.Operand.(*sqlfe.Literal); !ok {
			return "", nil, false
		}
	default:
		return "", nil, false
	}
	return col.Column, right, true
}

func (o *Optimizer) indexScanFor(scan *Scan, column string, op sqlfe.BinaryOperator, val sqlfe.Expr, _ bool) (*IndexScan, bool) {
	base := &IndexScan{Table: scan.Table, Alias: scan.Alias, Column: column}
	switch op {
	case sqlfe.OpEq:
		base.Eq = true
		base.EqValue = val
	case sqlfe.OpGt:
		base.Lo = val
		base.LoIncl = false
	case sqlfe.OpGte:
		base.Lo = val
		base.LoIncl = true
	case sqlfe.OpLt:
		base.Hi = val
		base.HiIncl = false
	case sqlfe.OpLte:
		base.Hi = val
		base.HiIncl = true
	default:
		return nil, false
	}
	return base, true
}

// equiJoinKeys returns the two sides of an "a.col = b.col" join
// condition, suitable as hash-join build/probe keys.
func equiJoinKeys(cond sqlfe.Expr) (sqlfe.Expr, sqlfe.Expr, bool) {
	bop, ok := cond.(*sqlfe.BinaryOp)
	if !ok || bop.Op != sqlfe.OpEq {
		return nil, nil, false
	}
	if _, ok := bop.Left.(*sqlfe.ColumnRef); !ok {
		return nil, nil, false
	}
	if _, ok := bop.Right.(*sqlfe.ColumnRef); !ok {
		return nil, nil, false
	}
	return bop.Left, bop.Right, true
}

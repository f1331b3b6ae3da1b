package plan

import (
	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/sqlfe"
)

func planErrUnsupportedStatement() error {
	return dberr.New(dberr.KindPlan, "unsupported statement")
}

// planSelect builds Scan -> Join -> Filter -> (Aggregate|Project) ->
// Sort -> Limit, mirroring standard logical-plan shape.
// Index-scan and hash-join lifting happen afterward, in Optimize.
func (p *Planner) planSelect(s *sqlfe.SelectStatement) (Node, error) {
	if len(s.From.Joins) > 0 && len(s.From.Joins) > 1 {
		return nil, dberr.New(dberr.KindPlan, "only a single join is supported")
	}

	var node Node = &Scan{Table: s.From.Table.Name, Alias: aliasOr(s.From.Table)}
	for _, j := range s.From.Joins {
		if j.Type != sqlfe.JoinInner && j.Type != sqlfe.JoinCross {
			return nil, dberr.New(dberr.KindPlan, "only inner and cross joins are supported")
		}
		right := &Scan{Table: j.Table.Name, Alias: aliasOr(j.Table)}
		node = &Join{Left: node, Right: right, Type: j.Type, Condition: j.Condition}
	}

	if s.Where != nil {
		node = &Filter{Input: node, Predicate: s.Where}
	}

	aggregates := findAggregates(s.Columns)
	if len(s.GroupBy) > 0 || len(aggregates) > 0 {
		node = &Aggregate{Input: node, GroupBy: s.GroupBy, Items: s.Columns}
	} else {
		node = &Project{Input: node, Items: s.Columns}
	}

	if len(s.OrderBy) > 0 {
		node = &Sort{Input: node, Keys: s.OrderBy}
	}

	if s.Limit != nil || s.Offset != nil {
		node = &Limit{Input: node, Limit: s.Limit, Offset: s.Offset}
	}

	return node, nil
}

func aliasOr(ref sqlfe.TableRef) string {
	if ref.Alias != "" {
		return ref.Alias
	}
	return ref.Name
}

// findAggregates returns every aggregate FunctionCall referenced
// anywhere among items, recursing into nested expressions.
func findAggregates(items []sqlfe.SelectItem) []*sqlfe.FunctionCall {
	var out []*sqlfe.FunctionCall
	for _, item := range items {
		if item.Expr != nil {
			out = append(out, findAggregatesInExpr(item.Expr)...)
		}
	}
	return out
}

func findAggregatesInExpr(e sqlfe.Expr) []*sqlfe.FunctionCall {
	switch n := e.(type) {
	case *sqlfe.FunctionCall:
		if isAggregateName(n.Name) {
			return []*sqlfe.FunctionCall{n}
		}
		var out []*sqlfe.FunctionCall
		for _, a := range n.Args {
			out = append(out, findAggregatesInExpr(a)...)
		}
		return out
	case *sqlfe.BinaryOp:
		out := findAggregatesInExpr(n.Left)
		return append(out, findAggregatesInExpr(n.Right)...)
	case *sqlfe.UnaryOp:
		return findAggregatesInExpr(n.Operand)
	case *sqlfe.Nested:
		return findAggregatesInExpr(n.Inner)
	default:
		return nil
	}
}

func isAggregateName(name string) bool {
	switch name {
	case "COUNT", "SUM", "AVG", "MIN", "MAX":
		return true
	default:
		return false
	}
}

package exec

import (
	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/plan"
	"github.com/chocapikk/arcdb/sqlfe"
	"github.com/chocapikk/arcdb/storage/value"
)

// itemLabel returns the output column name for a select item: its
// alias if given, else the bare column name, else the function name
// for a function call, else a generic label.
func itemLabel(item sqlfe.SelectItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	if col, ok := item.Expr.(*sqlfe.ColumnRef); ok {
		return col.Column
	}
	if fn, ok := item.Expr.(*sqlfe.FunctionCall); ok {
		return fn.Name
	}
	return "?column?"
}

// expandItems resolves Wildcard and QualifiedWildcard select items
// into explicit ColumnRef items using the shape of a representative
// row, and returns the output column labels alongside the expanded
// item list. A qualified wildcard ("t.*") is only well-defined when
// the input comes from a single table: after a join, column provenance
// can't be partitioned back to one side without per-column tracking
// this engine doesn't keep, so it is rejected rather than silently
// mirroring the unqualified-star behavior.
func expandItems(items []sqlfe.SelectItem, rows []row) ([]string, []sqlfe.SelectItem, error) {
	var template row
	if len(rows) > 0 {
		template = rows[0]
	}
	distinctAliases := map[string]bool{}
	for _, a := range template.aliases {
		distinctAliases[a] = true
	}

	var expanded []sqlfe.SelectItem
	for _, item := range items {
		switch {
		case item.Wildcard:
			for i := range template.values {
				expanded = append(expanded, sqlfe.SelectItem{
					Expr: &sqlfe.ColumnRef{Table: template.aliases[i], Column: template.names[i]},
				})
			}
		case item.QualifiedWildcard != "":
			if len(distinctAliases) > 1 {
				return nil, nil, dberr.Newf(dberr.KindPlan, "qualified wildcard %q.* is not supported after a join", item.QualifiedWildcard)
			}
			for i := range template.values {
				if template.aliases[i] != item.QualifiedWildcard {
					continue
				}
				expanded = append(expanded, sqlfe.SelectItem{
					Expr: &sqlfe.ColumnRef{Table: template.aliases[i], Column: template.names[i]},
				})
			}
		default:
			expanded = append(expanded, item)
		}
	}

	cols := make([]string, len(expanded))
	for i, item := range expanded {
		cols[i] = itemLabel(item)
	}
	return cols, expanded, nil
}

func projectRow(items []sqlfe.SelectItem, r row) ([]value.Value, error) {
	out := make([]value.Value, len(items))
	for i, item := range items {
		v, err := evaluateExpr(item.Expr, r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// executeProjectRows evaluates a Project node into rows carrying the
// output column names (no table alias, since a projection's output is
// no longer attributable to one source table).
func (e *Engine) executeProjectRows(n *plan.Project) ([]row, error) {
	input, err := e.executeRows(n.Input)
	if err != nil {
		return nil, err
	}
	cols, expandedItems, err := expandItems(n.Items, input)
	if err != nil {
		return nil, err
	}
	out := make([]row, 0, len(input))
	for _, r := range input {
		vals, err := projectRow(expandedItems, r)
		if err != nil {
			return nil, err
		}
		out = append(out, row{names: cols, aliases: make([]string, len(cols)), values: vals})
	}
	return out, nil
}

// executeProject runs a Project node as a top-level statement result.
func (e *Engine) executeProject(n *plan.Project) (*Result, error) {
	rows, err := e.executeProjectRows(n)
	if err != nil {
		return nil, err
	}
	cols := outputColumns(n)
	if len(rows) > 0 {
		cols = rows[0].names
	}
	res := &Result{Columns: cols}
	for _, r := range rows {
		res.Rows = append(res.Rows, r.values)
	}
	res.AffectedRows = len(res.Rows)
	return res, nil
}

// executeAggregateResult runs the Aggregate node and formats its
// output rows (already one value per select item, see
// executeAggregateRows) into a Result.
func (e *Engine) executeAggregateResult(n *plan.Aggregate) (*Result, error) {
	rows, err := e.executeAggregateRows(n)
	if err != nil {
		return nil, err
	}
	cols := outputColumns(n)
	if len(rows) > 0 {
		cols = rows[0].names
	}
	res := &Result{Columns: cols}
	for _, r := range rows {
		res.Rows = append(res.Rows, r.values)
	}
	res.AffectedRows = len(res.Rows)
	return res, nil
}

// outputColumns derives the result column labels for a read-only plan
// node without evaluating it, for the empty-result-set case where no
// row is available to read labels off of. Wildcards resolve to "*"
// placeholders in that fallback, since no rows means no schema to
// expand against.
func outputColumns(node plan.Node) []string {
	switch n := node.(type) {
	case *plan.Sort:
		return outputColumns(n.Input)
	case *plan.Limit:
		return outputColumns(n.Input)
	case *plan.Filter:
		return outputColumns(n.Input)
	case *plan.Project:
		var cols []string
		for _, item := range n.Items {
			if item.Wildcard || item.QualifiedWildcard != "" {
				cols = append(cols, "*")
				continue
			}
			cols = append(cols, itemLabel(item))
		}
		return cols
	case *plan.Aggregate:
		var cols []string
		for _, item := range n.Items {
			cols = append(cols, itemLabel(item))
		}
		return cols
	default:
		return nil
	}
}

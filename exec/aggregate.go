package exec

import (
	"fmt"

	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/plan"
	"github.com/chocapikk/arcdb/sqlfe"
	"github.com/chocapikk/arcdb/storage/value"
)

// executeAggregateRows groups Input by GroupBy keys (the whole input is
// one group when GroupBy is empty) and evaluates each select item once
// per group: aggregate FunctionCalls are reduced over the group's rows,
// everything else is evaluated against the group's first row (valid
// only when it is itself one of the GroupBy expressions, as SQL
// requires).
func (e *Engine) executeAggregateRows(n *plan.Aggregate) ([]row, error) {
	input, err := e.executeRows(n.Input)
	if err != nil {
		return nil, err
	}

	type group struct {
		keyRow row
		rows   []row
	}
	var groups []*group
	index := make(map[string]*group)

	if len(n.GroupBy) == 0 {
		groups = append(groups, &group{rows: input})
	} else {
		for _, r := range input {
			keyParts := make([]value.Value, len(n.GroupBy))
			keyStr := ""
			for i, ge := range n.GroupBy {
				v, err := evaluateExpr(ge, r)
				if err != nil {
					return nil, err
				}
				keyParts[i] = v
				keyStr += fmt.Sprintf("%v|", v.HashKey())
			}
			g, ok := index[keyStr]
			if !ok {
				g = &group{keyRow: r}
				index[keyStr] = g
				groups = append(groups, g)
			}
			g.rows = append(g.rows, r)
		}
	}

	var out []row
	for _, g := range groups {
		rep := g.keyRow
		if len(g.rows) > 0 && len(rep.values) == 0 {
			rep = g.rows[0]
		}
		values := make([]value.Value, len(n.Items))
		names := make([]string, len(n.Items))
		for i, item := range n.Items {
			if item.Expr == nil {
				return nil, dberr.New(dberr.KindPlan, "wildcard select items are not supported with GROUP BY")
			}
			if fn, ok := item.Expr.(*sqlfe.FunctionCall); ok && isAggregateName(fn.Name) {
				v, err := evaluateAggregate(fn, g.rows)
				if err != nil {
					return nil, err
				}
				values[i] = v
			} else {
				v, err := evaluateExpr(item.Expr, rep)
				if err != nil {
					return nil, err
				}
				values[i] = v
			}
			names[i] = itemLabel(item)
		}
		out = append(out, row{
			aliases: make([]string, len(values)),
			names:   names,
			values:  values,
		})
	}
	return out, nil
}

func evaluateAggregate(fn *sqlfe.FunctionCall, rows []row) (value.Value, error) {
	switch fn.Name {
	case "COUNT":
		if fn.Star {
			return value.Int64(int64(len(rows))), nil
		}
		count := int64(0)
		for _, r := range rows {
			v, err := evaluateExpr(fn.Args[0], r)
			if err != nil {
				return value.Value{}, err
			}
			if !v.IsNull() {
				count++
			}
		}
		return value.Int64(count), nil
	case "SUM", "AVG":
		var sum float64
		var count int64
		for _, r := range rows {
			v, err := evaluateExpr(fn.Args[0], r)
			if err != nil {
				return value.Value{}, err
			}
			if v.IsNull() {
				continue
			}
			f, ok := v.AsFloat64Widened()
			if !ok {
				return value.Value{}, dberr.Newf(dberr.KindType, "%s expects a numeric argument, got %s", fn.Name, v.TypeName())
			}
			sum += f
			count++
		}
		if fn.Name == "AVG" {
			if count == 0 {
				return value.Null(), nil
			}
			return value.Float64(sum / float64(count)), nil
		}
		return value.Float64(sum), nil
	case "MIN", "MAX":
		var best value.Value
		has := false
		for _, r := range rows {
			v, err := evaluateExpr(fn.Args[0], r)
			if err != nil {
				return value.Value{}, err
			}
			if v.IsNull() {
				continue
			}
			if !has {
				best = v
				has = true
				continue
			}
			if (fn.Name == "MIN" && v.Compare(best) < 0) || (fn.Name == "MAX" && v.Compare(best) > 0) {
				best = v
			}
		}
		if !has {
			return value.Null(), nil
		}
		return best, nil
	default:
		return value.Value{}, dberr.Newf(dberr.KindPlan, "unsupported aggregate function %q", fn.Name)
	}
}

package exec

import (
	"sort"

	"github.com/chocapikk/arcdb/catalog"
	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/plan"
	"github.com/chocapikk/arcdb/storage/value"
)

// executeRows recursively evaluates a read-only plan subtree into rows
// of the engine's internal row representation.
func (e *Engine) executeRows(node plan.Node) ([]row, error) {
	switch n := node.(type) {
	case *plan.Scan:
		return e.executeScan(n)
	case *plan.IndexScan:
		return e.executeIndexScan(n)
	case *plan.Filter:
		return e.executeFilter(n)
	case *plan.Join:
		return e.executeJoin(n)
	case *plan.HashJoin:
		return e.executeHashJoin(n)
	case *plan.Sort:
		return e.executeSort(n)
	case *plan.Limit:
		return e.executeLimit(n)
	case *plan.Aggregate:
		return e.executeAggregateRows(n)
	case *plan.Project:
		return e.executeProjectRows(n)
	default:
		return nil, dberr.Newf(dberr.KindPlan, "node %T is not a row source", node)
	}
}

func (e *Engine) executeScan(n *plan.Scan) ([]row, error) {
	tb, err := e.ensureTableLoaded(n.Table)
	if err != nil {
		return nil, err
	}
	cols := tb.Def.Schema.Columns
	entries := tb.Scan()
	rows := make([]row, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, buildRow(n.Alias, cols, entry.T.Values))
	}
	return rows, nil
}

func (e *Engine) executeIndexScan(n *plan.IndexScan) ([]row, error) {
	tb, err := e.ensureTableLoaded(n.Table)
	if err != nil {
		return nil, err
	}
	cols := tb.Def.Schema.Columns

	var rows []row
	emptyRow := row{}
	if n.Eq {
		key, err := evaluateExpr(n.EqValue, emptyRow)
		if err != nil {
			return nil, err
		}
		slots, _ := tb.IndexSearch(n.Column, key)
		for _, sid := range slots {
			t, ok := tb.Get(sid)
			if !ok {
				continue
			}
			rows = append(rows, buildRow(n.Alias, cols, t.Values))
		}
		return rows, nil
	}

	var lo, hi *value.Value
	if n.Lo != nil {
		v, err := evaluateExpr(n.Lo, emptyRow)
		if err != nil {
			return nil, err
		}
		lo = &v
	}
	if n.Hi != nil {
		v, err := evaluateExpr(n.Hi, emptyRow)
		if err != nil {
			return nil, err
		}
		hi = &v
	}
	entries, _ := tb.IndexRangeScan(n.Column, lo, hi)
	for _, e2 := range entries {
		if n.Lo != nil && !n.LoIncl && len(e2.Key) == 1 && e2.Key[0].Compare(*lo) == 0 {
			continue
		}
		if n.Hi != nil && !n.HiIncl && len(e2.Key) == 1 && e2.Key[0].Compare(*hi) == 0 {
			continue
		}
		t, ok := tb.Get(e2.Slot)
		if !ok {
			continue
		}
		rows = append(rows, buildRow(n.Alias, cols, t.Values))
	}
	return rows, nil
}

func buildRow(alias string, cols []catalog.ColumnDef, values []value.Value) row {
	r := row{
		aliases: make([]string, len(values)),
		names:   make([]string, len(values)),
		values:  values,
	}
	for i := range values {
		r.aliases[i] = alias
		if i < len(cols) {
			r.names[i] = cols[i].Name
		}
	}
	return r
}

func (e *Engine) executeFilter(n *plan.Filter) ([]row, error) {
	input, err := e.executeRows(n.Input)
	if err != nil {
		return nil, err
	}
	var out []row
	for _, r := range input {
		v, err := evaluateExpr(n.Predicate, r)
		if err != nil {
			return nil, err
		}
		if asBool(v) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (e *Engine) executeJoin(n *plan.Join) ([]row, error) {
	left, err := e.executeRows(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.executeRows(n.Right)
	if err != nil {
		return nil, err
	}
	var out []row
	for _, lr := range left {
		for _, rr := range right {
			combined := concatRows(lr, rr)
			if n.Condition == nil {
				out = append(out, combined)
				continue
			}
			v, err := evaluateExpr(n.Condition, combined)
			if err != nil {
				return nil, err
			}
			if asBool(v) {
				out = append(out, combined)
			}
		}
	}
	return out, nil
}

func (e *Engine) executeHashJoin(n *plan.HashJoin) ([]row, error) {
	build, err := e.executeRows(n.Build)
	if err != nil {
		return nil, err
	}
	probe, err := e.executeRows(n.Probe)
	if err != nil {
		return nil, err
	}

	buckets := make(map[any][]row)
	for _, br := range build {
		key, err := evaluateExpr(n.BuildKey, br)
		if err != nil {
			return nil, err
		}
		buckets[key.HashKey()] = append(buckets[key.HashKey()], br)
	}

	var out []row
	for _, pr := range probe {
		key, err := evaluateExpr(n.ProbeKey, pr)
		if err != nil {
			return nil, err
		}
		for _, br := range buckets[key.HashKey()] {
			out = append(out, concatRows(br, pr))
		}
	}
	return out, nil
}

func (e *Engine) executeSort(n *plan.Sort) ([]row, error) {
	rows, err := e.executeRows(n.Input)
	if err != nil {
		return nil, err
	}
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range n.Keys {
			vi, err := evaluateExpr(key.Expr, rows[i])
			if err != nil {
				sortErr = err
				return false
			}
			vj, err := evaluateExpr(key.Expr, rows[j])
			if err != nil {
				sortErr = err
				return false
			}
			cmp := vi.Compare(vj)
			if cmp == 0 {
				continue
			}
			if key.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return rows, sortErr
}

func (e *Engine) executeLimit(n *plan.Limit) ([]row, error) {
	rows, err := e.executeRows(n.Input)
	if err != nil {
		return nil, err
	}
	offset := 0
	if n.Offset != nil {
		v, err := evaluateExpr(n.Offset, row{})
		if err != nil {
			return nil, err
		}
		i, _ := v.AsInt64()
		offset = int(i)
	}
	if offset > len(rows) {
		return nil, nil
	}
	rows = rows[offset:]

	if n.Limit != nil {
		v, err := evaluateExpr(n.Limit, row{})
		if err != nil {
			return nil, err
		}
		i, _ := v.AsInt64()
		limit := int(i)
		if limit < len(rows) {
			rows = rows[:limit]
		}
	}
	return rows, nil
}

package exec

import (
	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/plan"
	"github.com/chocapikk/arcdb/storage/tuple"
	"github.com/chocapikk/arcdb/storage/value"
	"github.com/chocapikk/arcdb/storage/wal"
	"github.com/chocapikk/arcdb/txn"
)

func (e *Engine) executeInsert(n *plan.Insert, transID uint64) (*Result, error) {
	tb, err := e.ensureTableLoaded(n.Table)
	if err != nil {
		return nil, err
	}
	if err := e.Txns.Locks.Acquire(transID, tb.Def.ID, txn.Exclusive); err != nil {
		return nil, err
	}

	cols := tb.Def.Schema.Columns
	colPos := make([]int, len(cols))
	for i := range colPos {
		colPos[i] = -1
	}
	if len(n.Columns) == 0 {
		for i := range cols {
			colPos[i] = i
		}
	} else {
		for specPos, name := range n.Columns {
			idx, ok := tb.Def.Schema.ColumnIndex(name)
			if !ok {
				return nil, dberr.Newf(dberr.KindSchema, "column %q not found on table %q", name, n.Table)
			}
			colPos[idx] = specPos
		}
	}

	wantValues := len(cols)
	if len(n.Columns) > 0 {
		wantValues = len(n.Columns)
	}

	affected := 0
	for _, exprRow := range n.Rows {
		if len(exprRow) != wantValues {
			return nil, dberr.Newf(dberr.KindType, "table %q has %d target column(s) but %d value(s) were supplied", n.Table, wantValues, len(exprRow))
		}
		values := make([]value.Value, len(cols))
		for i, col := range cols {
			if colPos[i] == -1 {
				values[i] = value.Null()
				continue
			}
			v, err := evaluateExpr(exprRow[colPos[i]], row{})
			if err != nil {
				return nil, err
			}
			if v.IsNull() && col.NotNull {
				return nil, dberr.Newf(dberr.KindType, "column %q may not be null", col.Name)
			}
			values[i] = v
		}

		t := tuple.New(values)
		sid, err := tb.Insert(t)
		if err != nil {
			return nil, err
		}
		lsn := e.WAL.Append(wal.Record{
			TransID: transID,
			Type:    wal.RecordInsert,
			TableID: tb.Def.ID,
			PageID:  sid.PageID,
			Slot:    sid.Slot,
			After:   tuple.Encode(t),
		})
		if err := tb.Heap.SetPageLSN(sid.PageID, lsn); err != nil {
			return nil, err
		}
		affected++
	}
	return &Result{Message: "INSERT", AffectedRows: affected}, nil
}

func (e *Engine) executeUpdate(n *plan.Update, transID uint64) (*Result, error) {
	tb, err := e.ensureTableLoaded(n.Table)
	if err != nil {
		return nil, err
	}
	if err := e.Txns.Locks.Acquire(transID, tb.Def.ID, txn.Exclusive); err != nil {
		return nil, err
	}

	cols := tb.Def.Schema.Columns
	entries := tb.Scan()
	affected := 0
	for _, entry := range entries {
		r := buildRow("", cols, entry.T.Values)
		if n.Where != nil {
			matched, err := evaluateExpr(n.Where, r)
			if err != nil {
				return nil, err
			}
			if !asBool(matched) {
				continue
			}
		}

		newValues := append([]value.Value(nil), entry.T.Values...)
		for _, assign := range n.Assignments {
			idx, ok := tb.Def.Schema.ColumnIndex(assign.Column)
			if !ok {
				return nil, dberr.Newf(dberr.KindSchema, "column %q not found on table %q", assign.Column, n.Table)
			}
			v, err := evaluateExpr(assign.Value, r)
			if err != nil {
				return nil, err
			}
			if v.IsNull() && cols[idx].NotNull {
				return nil, dberr.Newf(dberr.KindType, "column %q may not be null", assign.Column)
			}
			newValues[idx] = v
		}

		newTuple := tuple.New(newValues)
		before := tuple.Encode(entry.T)
		if err := tb.Update(entry.ID, newTuple); err != nil {
			return nil, err
		}
		lsn := e.WAL.Append(wal.Record{
			TransID: transID,
			Type:    wal.RecordUpdate,
			TableID: tb.Def.ID,
			PageID:  entry.ID.PageID,
			Slot:    entry.ID.Slot,
			Before:  before,
			After:   tuple.Encode(newTuple),
		})
		if err := tb.Heap.SetPageLSN(entry.ID.PageID, lsn); err != nil {
			return nil, err
		}
		affected++
	}
	return &Result{Message: "UPDATE", AffectedRows: affected}, nil
}

func (e *Engine) executeDelete(n *plan.Delete, transID uint64) (*Result, error) {
	tb, err := e.ensureTableLoaded(n.Table)
	if err != nil {
		return nil, err
	}
	if err := e.Txns.Locks.Acquire(transID, tb.Def.ID, txn.Exclusive); err != nil {
		return nil, err
	}

	cols := tb.Def.Schema.Columns
	entries := tb.Scan()
	affected := 0
	for _, entry := range entries {
		r := buildRow("", cols, entry.T.Values)
		if n.Where != nil {
			matched, err := evaluateExpr(n.Where, r)
			if err != nil {
				return nil, err
			}
			if !asBool(matched) {
				continue
			}
		}

		before := tuple.Encode(entry.T)
		if err := tb.Delete(entry.ID); err != nil {
			return nil, err
		}
		lsn := e.WAL.Append(wal.Record{
			TransID: transID,
			Type:    wal.RecordDelete,
			TableID: tb.Def.ID,
			PageID:  entry.ID.PageID,
			Slot:    entry.ID.Slot,
			Before:  before,
		})
		if err := tb.Heap.SetPageLSN(entry.ID.PageID, lsn); err != nil {
			return nil, err
		}
		affected++
	}
	return &Result{Message: "DELETE", AffectedRows: affected}, nil
}

// Package exec implements the execution engine: it takes an optimized
// plan.Node, drives locking through txn.Manager, applies mutations to
// table.Table while logging before/after images to the WAL, and runs
// ARIES-style crash recovery from the log.
package exec

import (
	"sync"

	"github.com/chocapikk/arcdb/catalog"
	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/internal/metrics"
	"github.com/chocapikk/arcdb/plan"
	"github.com/chocapikk/arcdb/sqlfe"
	"github.com/chocapikk/arcdb/storage/buffer"
	"github.com/chocapikk/arcdb/storage/disk"
	"github.com/chocapikk/arcdb/storage/heap"
	"github.com/chocapikk/arcdb/storage/tuple"
	"github.com/chocapikk/arcdb/storage/value"
	"github.com/chocapikk/arcdb/storage/wal"
	"github.com/chocapikk/arcdb/table"
	"github.com/chocapikk/arcdb/txn"
)

// Result is the tabular output of executing one statement.
type Result struct {
	Columns      []string
	Rows         [][]value.Value
	AffectedRows int
	Message      string
}

// Engine ties together the catalog, per-table storage, the lock/
// transaction manager, and the WAL into one executable unit. One
// Engine is shared by every connection; transaction state is tracked
// per Connection via the transID it gets from Txns.Begin.
type Engine struct {
	mu      sync.Mutex
	Catalog *catalog.Catalog
	Disk    *disk.Manager
	BPM     *buffer.Manager
	WAL     *wal.Manager
	Txns    *txn.Manager
	tables  map[string]*table.Table
}

// NewEngine returns an engine over the given shared components. Call
// Recover before serving any statements against a pre-existing
// data directory.
func NewEngine(cat *catalog.Catalog, d *disk.Manager, bpm *buffer.Manager, w *wal.Manager) *Engine {
	return &Engine{
		Catalog: cat,
		Disk:    d,
		BPM:     bpm,
		WAL:     w,
		Txns:    txn.NewManager(),
		tables:  make(map[string]*table.Table),
	}
}

// ensureTableLoaded lazily opens a table.Table for name, loading its
// page count from disk and rebuilding its indexes by scanning the heap.
func (e *Engine) ensureTableLoaded(name string) (*table.Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tb, ok := e.tables[name]; ok {
		return tb, nil
	}
	td, ok := e.Catalog.GetTable(name)
	if !ok {
		return nil, dberr.Newf(dberr.KindSchema, "table %q not found", name)
	}
	count, err := e.Disk.PageCount(td.ID)
	if err != nil {
		return nil, err
	}
	tb := table.Open(td, e.BPM, count)
	e.tables[name] = tb
	return tb, nil
}

func (e *Engine) ensureTableLoadedByID(id uint32) (*table.Table, error) {
	td, ok := e.Catalog.GetTableByID(id)
	if !ok {
		return nil, dberr.Newf(dberr.KindSchema, "table id %d not found", id)
	}
	return e.ensureTableLoaded(td.Name)
}

// Connection is a per-client handle carrying its own active
// transaction id, since the engine's storage state is shared but
// transaction scope is not.
type Connection struct {
	engine  *Engine
	transID uint64
	active  bool
}

// NewConnection returns a connection bound to e with no active
// transaction (autocommit mode).
func (e *Engine) NewConnection() *Connection {
	return &Connection{engine: e}
}

// Execute plans, optimizes, and runs stmt against the connection's
// current transaction, opening and committing an implicit one-
// statement transaction if none is active (autocommit).
func (c *Connection) Execute(stmt sqlfe.Statement) (*Result, error) {
	p := plan.NewPlanner(c.engine.Catalog)
	node, err := p.Plan(stmt)
	if err != nil {
		return nil, err
	}

	switch node.(type) {
	case *plan.BeginTransaction, *plan.Commit, *plan.Rollback:
		return c.executeTxnControl(node)
	}

	opt := plan.NewOptimizer(c.engine.Catalog)
	optimized := opt.Optimize(node)

	metrics.ExecutorStatements.WithLabelValues(planNodeLabel(optimized)).Inc()

	autocommit := !c.active
	if autocommit {
		c.transID = c.engine.Txns.Begin().ID
		c.active = true
	}

	res, err := c.engine.executeNode(optimized, c.transID)

	if autocommit {
		c.active = false
		if err != nil {
			c.engine.rollbackTransaction(c.transID)
			return nil, err
		}
		if cerr := c.engine.commitTransaction(c.transID); cerr != nil {
			return nil, cerr
		}
	}
	return res, err
}

func (c *Connection) executeTxnControl(node plan.Node) (*Result, error) {
	switch node.(type) {
	case *plan.BeginTransaction:
		if c.active {
			return nil, dberr.New(dberr.KindTransaction, "transaction already active")
		}
		c.transID = c.engine.Txns.Begin().ID
		c.active = true
		c.engine.WAL.Append(wal.Record{TransID: c.transID, Type: wal.RecordBegin})
		return &Result{Message: "BEGIN"}, nil
	case *plan.Commit:
		if !c.active {
			return nil, dberr.New(dberr.KindTransaction, "no active transaction")
		}
		err := c.engine.commitTransaction(c.transID)
		c.active = false
		return &Result{Message: "COMMIT"}, err
	case *plan.Rollback:
		if !c.active {
			return nil, dberr.New(dberr.KindTransaction, "no active transaction")
		}
		err := c.engine.rollbackTransactionWithUndo(c.transID)
		c.active = false
		return &Result{Message: "ROLLBACK"}, err
	default:
		return nil, dberr.New(dberr.KindInternal, "not a transaction control node")
	}
}

// executeNode acquires the locks a plan requires, then dispatches to
// the read, mutation, or DDL path.
func (e *Engine) executeNode(node plan.Node, transID uint64) (*Result, error) {
	switch n := node.(type) {
	case *plan.Scan, *plan.IndexScan, *plan.Filter, *plan.Join, *plan.HashJoin,
		*plan.Sort, *plan.Limit, *plan.Aggregate, *plan.Project:
		if err := e.acquireReadLocks(node, transID); err != nil {
			return nil, err
		}
		switch rn := node.(type) {
		case *plan.Project:
			return e.executeProject(rn)
		case *plan.Aggregate:
			return e.executeAggregateResult(rn)
		default:
			rows, err := e.executeRows(rn)
			if err != nil {
				return nil, err
			}
			res := &Result{Columns: outputColumns(rn)}
			for _, r := range rows {
				if len(res.Columns) == 0 {
					res.Columns = r.names
				}
				res.Rows = append(res.Rows, r.values)
			}
			res.AffectedRows = len(res.Rows)
			return res, nil
		}
	case *plan.Insert:
		return e.executeInsert(n, transID)
	case *plan.Update:
		return e.executeUpdate(n, transID)
	case *plan.Delete:
		return e.executeDelete(n, transID)
	case *plan.CreateTable:
		return e.executeCreateTable(n)
	case *plan.DropTable:
		return e.executeDropTable(n)
	case *plan.CreateIndex:
		return e.executeCreateIndex(n)
	case *plan.Analyze:
		return e.executeAnalyze(n)
	default:
		return nil, dberr.Newf(dberr.KindPlan, "unsupported plan node %T", node)
	}
}

// scannedTables walks node collecting the table names its Scan/
// IndexScan leaves read, so executeNode can take shared locks on all
// of them up front.
func scannedTables(node plan.Node) []string {
	switch n := node.(type) {
	case *plan.Scan:
		return []string{n.Table}
	case *plan.IndexScan:
		return []string{n.Table}
	case *plan.Filter:
		return scannedTables(n.Input)
	case *plan.Project:
		return scannedTables(n.Input)
	case *plan.Sort:
		return scannedTables(n.Input)
	case *plan.Limit:
		return scannedTables(n.Input)
	case *plan.Aggregate:
		return scannedTables(n.Input)
	case *plan.Join:
		return append(scannedTables(n.Left), scannedTables(n.Right)...)
	case *plan.HashJoin:
		return append(scannedTables(n.Build), scannedTables(n.Probe)...)
	default:
		return nil
	}
}

func (e *Engine) acquireReadLocks(node plan.Node, transID uint64) error {
	for _, name := range scannedTables(node) {
		tb, err := e.ensureTableLoaded(name)
		if err != nil {
			return err
		}
		if err := e.Txns.Locks.Acquire(transID, tb.Def.ID, txn.Shared); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) commitTransaction(transID uint64) error {
	e.WAL.Append(wal.Record{TransID: transID, Type: wal.RecordCommit})
	if err := e.WAL.Flush(); err != nil {
		return err
	}
	return e.Txns.Commit(transID)
}

// rollbackTransaction is used for the implicit autocommit failure
// path. A statement can fail after some of its rows were already
// written and logged (a multi-row INSERT whose later row is rejected),
// so those writes are undone exactly as an explicit ROLLBACK undoes
// them. If that undo fails, the Rollback record is still written and
// the transaction's locks released.
func (e *Engine) rollbackTransaction(transID uint64) {
	if err := e.rollbackTransactionWithUndo(transID); err == nil {
		return
	}
	e.WAL.Append(wal.Record{TransID: transID, Type: wal.RecordRollback})
	_ = e.WAL.Flush()
	_ = e.Txns.Rollback(transID)
}

// rollbackTransactionWithUndo reverses transID's own WAL-logged data
// changes in reverse order before releasing its locks: an explicit
// ROLLBACK can follow any number of writes made earlier in the
// transaction that already touched the heap and must be undone. The
// autocommit failure path uses it too. The heap is flushed immediately afterward
// (rather than left to the buffer pool's own eviction schedule)
// because this undo writes no compensation log records of its own: a
// crash between undoing and a later flush would leave Recover unable
// to tell "rolled back, not yet durable" apart from "never rolled
// back", so the reversed state is made durable before returning.
func (e *Engine) rollbackTransactionWithUndo(transID uint64) error {
	all, err := e.WAL.AllRecords()
	if err != nil {
		return err
	}
	var mine []wal.Record
	for _, rec := range all {
		if rec.TransID == transID {
			mine = append(mine, rec)
		}
	}
	remap := make(map[slotKey]heap.SlotID)
	for i := len(mine) - 1; i >= 0; i-- {
		if err := e.undoRecord(mine[i], remap); err != nil {
			return err
		}
	}
	if err := e.BPM.FlushAll(); err != nil {
		return err
	}
	e.WAL.Append(wal.Record{TransID: transID, Type: wal.RecordRollback})
	if err := e.WAL.Flush(); err != nil {
		return err
	}
	return e.Txns.Rollback(transID)
}

// slotKey identifies a slot across tables, for remap.
type slotKey struct {
	TableID uint32
	Slot    heap.SlotID
}

// undoRecord reverses one data-modifying WAL record. remap tracks
// slots that moved because a delete-undo had to re-insert at a new
// physical slot: a transaction that inserted a row and then deleted it
// before aborting must have its insert-undo target that new slot, not
// the original one the delete record names, since the original slot
// was never reused (tombstones are never recycled).
func (e *Engine) undoRecord(rec wal.Record, remap map[slotKey]heap.SlotID) error {
	switch rec.Type {
	case wal.RecordInsert, wal.RecordUpdate, wal.RecordDelete:
	default:
		return nil
	}

	tb, err := e.ensureTableLoadedByID(rec.TableID)
	if err != nil {
		return err
	}
	key := slotKey{TableID: rec.TableID, Slot: heap.SlotID{PageID: rec.PageID, Slot: rec.Slot}}
	sid := key.Slot
	if mapped, ok := remap[key]; ok {
		sid = mapped
	}

	switch rec.Type {
	case wal.RecordInsert:
		return tb.Delete(sid)
	case wal.RecordUpdate:
		before, err := tuple.Decode(rec.Before)
		if err != nil {
			return err
		}
		return tb.Update(sid, before)
	case wal.RecordDelete:
		before, err := tuple.Decode(rec.Before)
		if err != nil {
			return err
		}
		newSID, err := tb.Insert(before)
		if err != nil {
			return err
		}
		if newSID != sid {
			remap[key] = newSID
		}
		return nil
	}
	return nil
}

func planNodeLabel(node plan.Node) string {
	switch node.(type) {
	case *plan.Scan:
		return "scan"
	case *plan.IndexScan:
		return "index_scan"
	case *plan.Filter:
		return "filter"
	case *plan.Project:
		return "project"
	case *plan.Join:
		return "join"
	case *plan.HashJoin:
		return "hash_join"
	case *plan.Sort:
		return "sort"
	case *plan.Limit:
		return "limit"
	case *plan.Aggregate:
		return "aggregate"
	case *plan.Insert:
		return "insert"
	case *plan.Update:
		return "update"
	case *plan.Delete:
		return "delete"
	case *plan.CreateTable:
		return "create_table"
	case *plan.DropTable:
		return "drop_table"
	case *plan.CreateIndex:
		return "create_index"
	case *plan.Analyze:
		return "analyze"
	default:
		return "other"
	}
}

package exec

import (
	"github.com/chocapikk/arcdb/internal/dblog"
	"github.com/chocapikk/arcdb/storage/heap"
	"github.com/chocapikk/arcdb/storage/tuple"
	"github.com/chocapikk/arcdb/storage/wal"
	"github.com/chocapikk/arcdb/table"
)

// Recover replays walPath against the engine's current storage state
// following the standard three-pass ARIES shape. Analyze partitions
// transactions into three sets from the log's Begin/Commit/Rollback/
// Abort records: committed, rolled back (already undone live, before
// the crash), and in-flight (neither). Redo reapplies every data
// record whose target page-LSN is behind the record's own LSN, for
// committed and in-flight transactions only — a rolled-back
// transaction's writes were already reversed and flushed before its
// Rollback record was appended, so redoing them here would undo that
// correction. Undo then reverses, in reverse log order, every data
// record belonging to an in-flight transaction; committed and already-
// rolled-back transactions are never undone. No compensation log
// records are written: this startup undo runs before any new statement
// is accepted, and a live rollback flushes its reversed pages before
// appending its Rollback record.
func (e *Engine) Recover(walPath string) error {
	log := dblog.WithComponent("recovery")
	records, err := wal.ReadAll(walPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		log.Info().Msg("no wal records to replay")
		return e.WAL.SetLogFile(walPath)
	}
	log.Info().Int("records", len(records)).Msg("starting recovery")

	// A transaction already rolled back live needs neither redo nor
	// undo: rollbackTransactionWithUndo flushes the heap before
	// appending its Rollback record, so redoing its forward writes here
	// would re-apply data that was deliberately reversed. Committed
	// transactions still need redo (the buffer pool may not have
	// flushed their pages before a crash) but never undo. Transactions
	// with neither record were in flight at crash time and need undo
	// only.
	rolledBack := make(map[uint64]bool)
	committed := make(map[uint64]bool)
	var maxLSN uint64
	for _, rec := range records {
		if rec.LSN > maxLSN {
			maxLSN = rec.LSN
		}
		switch rec.Type {
		case wal.RecordCommit:
			committed[rec.TransID] = true
		case wal.RecordRollback, wal.RecordAbort:
			rolledBack[rec.TransID] = true
		}
	}

	for _, rec := range records {
		if rolledBack[rec.TransID] {
			continue
		}
		if err := e.redoRecord(rec); err != nil {
			return err
		}
	}

	remap := make(map[slotKey]heap.SlotID)
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if committed[rec.TransID] || rolledBack[rec.TransID] {
			continue
		}
		// Still in flight at crash time: undo it.
		if err := e.undoRecord(rec, remap); err != nil {
			return err
		}
	}

	e.WAL.SeedNextLSN(maxLSN)
	log.Info().Int("committed", len(committed)).Int("rolled_back", len(rolledBack)).Msg("recovery complete")

	// Recovery touched heap pages directly through tb.Heap, bypassing
	// index maintenance; drop any table handles it opened so the next
	// access rebuilds indexes from the now-final heap contents.
	e.mu.Lock()
	e.tables = make(map[string]*table.Table)
	e.mu.Unlock()

	return e.WAL.SetLogFile(walPath)
}

// redoRecord reapplies a data-modifying record if the target page's
// LSN predates it, matching the page-LSN comparison ARIES redo uses to
// skip already-durable changes.
func (e *Engine) redoRecord(rec wal.Record) error {
	switch rec.Type {
	case wal.RecordInsert, wal.RecordUpdate, wal.RecordDelete:
	default:
		return nil
	}

	tb, err := e.ensureTableLoadedByID(rec.TableID)
	if err != nil {
		return err
	}
	sid := heap.SlotID{PageID: rec.PageID, Slot: rec.Slot}
	if tb.Heap.PageLSN(sid.PageID) >= rec.LSN {
		return nil
	}

	switch rec.Type {
	case wal.RecordInsert:
		after, err := tuple.Decode(rec.After)
		if err != nil {
			return err
		}
		if _, err := tb.Heap.InsertAt(sid.PageID, after); err != nil {
			return err
		}
	case wal.RecordUpdate:
		after, err := tuple.Decode(rec.After)
		if err != nil {
			return err
		}
		if err := tb.Heap.Update(sid, after); err != nil {
			return err
		}
	case wal.RecordDelete:
		_ = tb.Heap.Delete(sid)
	}
	return tb.Heap.SetPageLSN(sid.PageID, rec.LSN)
}

// Package table binds a catalog.TableDef to its heap file and
// secondary indexes, keeping index entries consistent with heap
// contents across insert, update, and delete.
package table

import (
	"github.com/chocapikk/arcdb/catalog"
	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/storage/btree"
	"github.com/chocapikk/arcdb/storage/buffer"
	"github.com/chocapikk/arcdb/storage/heap"
	"github.com/chocapikk/arcdb/storage/tuple"
	"github.com/chocapikk/arcdb/storage/value"
)

// Table is a table's runtime handle: its definition plus bound heap
// file and one B+ tree per declared index, keyed by index name so two
// indexes can share a leading column.
type Table struct {
	Def     *catalog.TableDef
	Heap    *heap.File
	Indexes map[string]*btree.Tree
}

// New creates a table handle over a fresh (empty) heap file.
func New(def *catalog.TableDef, bpm *buffer.Manager) *Table {
	t := &Table{
		Def:     def,
		Heap:    heap.New(def.ID, bpm),
		Indexes: make(map[string]*btree.Tree),
	}
	for _, idx := range def.Indexes {
		t.Indexes[idx.Name] = btree.New()
	}
	return t
}

// Open binds to a heap file that already has pageCount pages, then
// rebuilds every declared index by scanning the heap. Index contents
// are never persisted directly; they are always rebuilt from the heap
// at startup.
func Open(def *catalog.TableDef, bpm *buffer.Manager, pageCount uint64) *Table {
	t := &Table{
		Def:     def,
		Heap:    heap.Open(def.ID, bpm, pageCount),
		Indexes: make(map[string]*btree.Tree),
	}
	for _, idx := range def.Indexes {
		tree := btree.New()
		for _, e := range t.Heap.Scan() {
			if key, ok := compositeKey(def.Schema, e.T, idx.Columns); ok {
				tree.Insert(key, e.ID)
			}
		}
		t.Indexes[idx.Name] = tree
	}
	return t
}

// compositeKey builds the B+ tree key for columns from row, in
// declaration order, failing if any named column is not in schema.
func compositeKey(schema catalog.Schema, row tuple.Tuple, columns []string) (btree.Key, bool) {
	key := make(btree.Key, len(columns))
	for i, col := range columns {
		colIdx, ok := schema.ColumnIndex(col)
		if !ok {
			return nil, false
		}
		v, ok := row.Get(colIdx)
		if !ok {
			return nil, false
		}
		key[i] = v
	}
	return key, true
}

// CreateIndex builds a new index over columns by scanning every live
// heap row, and registers it on the table definition. unique carries
// the index's own uniqueness flag, which Insert/Update enforce
// independently of any column-level UNIQUE schema annotation.
func (t *Table) CreateIndex(name string, columns []string, unique bool) error {
	if _, exists := t.Indexes[name]; exists {
		return dberr.Newf(dberr.KindSchema, "index %q already exists", name)
	}
	for _, col := range columns {
		if _, ok := t.Def.Schema.ColumnIndex(col); !ok {
			return dberr.Newf(dberr.KindSchema, "column %q not found", col)
		}
	}
	tree := btree.New()
	for _, e := range t.Heap.Scan() {
		key, ok := compositeKey(t.Def.Schema, e.T, columns)
		if !ok {
			continue
		}
		tree.Insert(key, e.ID)
	}
	t.Indexes[name] = tree
	if t.Def.NextIndexID == 0 {
		t.Def.NextIndexID = 1
	}
	t.Def.Indexes = append(t.Def.Indexes, catalog.IndexDef{
		ID:      t.Def.NextIndexID,
		Name:    name,
		Columns: append([]string(nil), columns...),
		Unique:  unique,
	})
	t.Def.NextIndexID++
	return nil
}

// Insert adds row to the heap and every declared index. If a unique
// index's key already holds the new value, the heap insert and any
// already-applied index inserts are rolled back and an error is
// returned.
func (t *Table) Insert(row tuple.Tuple) (heap.SlotID, error) {
	sid, err := t.Heap.Insert(row)
	if err != nil {
		return heap.SlotID{}, err
	}

	applied := make([]catalog.IndexDef, 0, len(t.Def.Indexes))
	for _, idx := range t.Def.Indexes {
		key, ok := compositeKey(t.Def.Schema, row, idx.Columns)
		if !ok {
			continue
		}
		tree := t.Indexes[idx.Name]

		if idx.Unique && len(tree.Search(key)) > 0 {
			t.compensate(sid, row, applied)
			return heap.SlotID{}, dberr.Newf(dberr.KindSchema, "unique constraint violated on index %q", idx.Name)
		}
		tree.Insert(key, sid)
		applied = append(applied, idx)
	}
	return sid, nil
}

func (t *Table) compensate(sid heap.SlotID, row tuple.Tuple, applied []catalog.IndexDef) {
	t.Heap.Delete(sid)
	for _, idx := range applied {
		key, ok := compositeKey(t.Def.Schema, row, idx.Columns)
		if !ok {
			continue
		}
		t.Indexes[idx.Name].Delete(key, sid)
	}
}

// Delete removes sid from the heap and from every index entry
// referencing it.
func (t *Table) Delete(sid heap.SlotID) error {
	row, ok := t.Heap.Get(sid)
	if !ok {
		return dberr.New(dberr.KindStorage, "slot not found")
	}
	if err := t.Heap.Delete(sid); err != nil {
		return err
	}
	for _, idx := range t.Def.Indexes {
		key, ok := compositeKey(t.Def.Schema, row, idx.Columns)
		if !ok {
			continue
		}
		t.Indexes[idx.Name].Delete(key, sid)
	}
	return nil
}

// Update replaces the row at sid with newRow, reindexing only the
// indexes whose key actually changed.
func (t *Table) Update(sid heap.SlotID, newRow tuple.Tuple) error {
	oldRow, ok := t.Heap.Get(sid)
	if !ok {
		return dberr.New(dberr.KindStorage, "slot not found")
	}

	for _, idx := range t.Def.Indexes {
		oldKey, ok := compositeKey(t.Def.Schema, oldRow, idx.Columns)
		if !ok {
			continue
		}
		newKey, _ := compositeKey(t.Def.Schema, newRow, idx.Columns)
		if oldKey.Equal(newKey) {
			continue
		}
		if idx.Unique && len(t.Indexes[idx.Name].Search(newKey)) > 0 {
			return dberr.Newf(dberr.KindSchema, "unique constraint violated on index %q", idx.Name)
		}
	}

	if err := t.Heap.Update(sid, newRow); err != nil {
		return err
	}

	for _, idx := range t.Def.Indexes {
		oldKey, ok := compositeKey(t.Def.Schema, oldRow, idx.Columns)
		if !ok {
			continue
		}
		newKey, _ := compositeKey(t.Def.Schema, newRow, idx.Columns)
		if oldKey.Equal(newKey) {
			continue
		}
		tree := t.Indexes[idx.Name]
		tree.Delete(oldKey, sid)
		tree.Insert(newKey, sid)
	}
	return nil
}

// Get returns the row at sid.
func (t *Table) Get(sid heap.SlotID) (tuple.Tuple, bool) {
	return t.Heap.Get(sid)
}

// Scan returns every live row in the table.
func (t *Table) Scan() []heap.Entry {
	return t.Heap.Scan()
}

// singleColumnIndex returns the index def declared over exactly
// [column], the only shape IndexSearch/IndexRangeScan can serve
// (see TableDef.IndexFor).
func (t *Table) singleColumnIndex(column string) (catalog.IndexDef, bool) {
	for _, idx := range t.Def.Indexes {
		if len(idx.Columns) == 1 && idx.Columns[0] == column {
			return idx, true
		}
	}
	return catalog.IndexDef{}, false
}

// IndexSearch returns every slot holding key on column, or
// (nil, false) if no single-column index covers that column.
func (t *Table) IndexSearch(column string, key value.Value) ([]heap.SlotID, bool) {
	idx, ok := t.singleColumnIndex(column)
	if !ok {
		return nil, false
	}
	return t.Indexes[idx.Name].Search(btree.Key{key}), true
}

// IndexRangeScan returns every (key, slot) entry on column within
// [lo, hi], or (nil, false) if no single-column index covers that
// column.
func (t *Table) IndexRangeScan(column string, lo, hi *value.Value) ([]btree.Entry, bool) {
	idx, ok := t.singleColumnIndex(column)
	if !ok {
		return nil, false
	}
	var loKey, hiKey btree.Key
	if lo != nil {
		loKey = btree.Key{*lo}
	}
	if hi != nil {
		hiKey = btree.Key{*hi}
	}
	return t.Indexes[idx.Name].RangeScan(loKey, hiKey), true
}

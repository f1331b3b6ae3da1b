// Package catalog holds table and index definitions: the schema
// metadata the executor and planner consult to resolve column names
// and decide whether an index can serve a predicate.
package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/storage/value"
)

// DataType is a column's declared storage type.
type DataType string

const (
	TypeInt32     DataType = "int32"
	TypeInt64     DataType = "int64"
	TypeFloat64   DataType = "float64"
	TypeBool      DataType = "bool"
	TypeString    DataType = "string"
	TypeDate      DataType = "date"
	TypeTimestamp DataType = "timestamp"
	TypeBytes     DataType = "bytes"
)

// Kind maps a DataType to the storage value.Kind it is represented by.
func (d DataType) Kind() value.Kind {
	switch d {
	case TypeInt32:
		return value.KindInt32
	case TypeInt64:
		return value.KindInt64
	case TypeFloat64:
		return value.KindFloat64
	case TypeBool:
		return value.KindBool
	case TypeString:
		return value.KindString
	case TypeDate:
		return value.KindDate
	case TypeTimestamp:
		return value.KindTimestamp
	case TypeBytes:
		return value.KindBytes
	default:
		return value.KindNull
	}
}

// ColumnDef describes one column of a table.
type ColumnDef struct {
	Name       string   `json:"name"`
	Type       DataType `json:"type"`
	NotNull    bool     `json:"not_null,omitempty"`
	PrimaryKey bool     `json:"primary_key,omitempty"`
	Unique     bool     `json:"unique,omitempty"`
}

// Schema is the ordered column list of a table.
type Schema struct {
	Columns []ColumnDef `json:"columns"`
}

// ColumnIndex returns the position of name within the schema.
func (s Schema) ColumnIndex(name string) (int, bool) {
	for i, c := range s.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// IndexDef describes a secondary index over an ordered list of
// columns. Unique marks a uniqueness constraint owned by the index
// itself (independent of any column-level UNIQUE annotation in the
// schema); Primary marks the index backing the table's primary key.
type IndexDef struct {
	ID      uint32   `json:"id"`
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
	Primary bool     `json:"primary,omitempty"`
}

// TableStats holds optional table-level statistics populated by
// ANALYZE. A nil Stats field on a TableDef means no ANALYZE has run
// yet.
type TableStats struct {
	RowCount int64 `json:"row_count"`
}

// TableDef is a table's full metadata: its storage id, schema, the
// indexes built over it, and optional ANALYZE-derived statistics.
type TableDef struct {
	ID          uint32      `json:"id"`
	Name        string      `json:"name"`
	Schema      Schema      `json:"schema"`
	Indexes     []IndexDef  `json:"indexes"`
	NextIndexID uint32      `json:"next_index_id"`
	Stats       *TableStats `json:"stats,omitempty"`
}

// IndexFor returns the single-column index over column, if one
// exists. Composite (multi-column) indexes are not returned here: the
// planner only ever probes for a lone-column equality/range predicate,
// and a composite index's entries are keyed on the full column vector,
// so a partial-key lookup against it would need prefix matching the
// planner does not perform.
func (t *TableDef) IndexFor(column string) (IndexDef, bool) {
	for _, idx := range t.Indexes {
		if len(idx.Columns) == 1 && idx.Columns[0] == column {
			return idx, true
		}
	}
	return IndexDef{}, false
}

// IndexByName returns the index definition with the given name.
func (t *TableDef) IndexByName(name string) (IndexDef, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDef{}, false
}

type catalogFile struct {
	NextTableID uint32      `json:"next_table_id"`
	Tables      []*TableDef `json:"tables"`
}

// Catalog is the in-memory table/index metadata store, persisted as a
// single JSON document.
type Catalog struct {
	mu          sync.RWMutex
	tables      map[string]*TableDef
	nextTableID uint32
}

// New returns an empty catalog, table ids starting at 1.
func New() *Catalog {
	return &Catalog{tables: make(map[string]*TableDef), nextTableID: 1}
}

// CreateTable registers a new table and assigns it a storage id.
func (c *Catalog) CreateTable(name string, schema Schema) (*TableDef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tables[name]; exists {
		return nil, dberr.Newf(dberr.KindSchema, "table %q already exists", name)
	}
	td := &TableDef{ID: c.nextTableID, Name: name, Schema: schema, NextIndexID: 1}
	c.nextTableID++
	c.tables[name] = td
	return td, nil
}

// DropTable removes a table's metadata.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tables[name]; !exists {
		return dberr.Newf(dberr.KindSchema, "table %q not found", name)
	}
	delete(c.tables, name)
	return nil
}

// GetTable returns the table definition for name.
func (c *Catalog) GetTable(name string) (*TableDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	td, ok := c.tables[name]
	return td, ok
}

// GetTableByID returns the table definition with the given storage id,
// used by recovery to map a WAL record's table id back to a name.
func (c *Catalog) GetTableByID(id uint32) (*TableDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, td := range c.tables {
		if td.ID == id {
			return td, true
		}
	}
	return nil, false
}

// ListTables returns every registered table definition.
func (c *Catalog) ListTables() []*TableDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*TableDef, 0, len(c.tables))
	for _, td := range c.tables {
		out = append(out, td)
	}
	return out
}

// CreateIndex registers indexName over columns of table, carrying the
// unique flag into the index's own IndexDef. The caller is responsible
// for populating the index from existing rows.
func (c *Catalog) CreateIndex(tableName, indexName string, columns []string, unique bool) (*TableDef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	td, ok := c.tables[tableName]
	if !ok {
		return nil, dberr.Newf(dberr.KindSchema, "table %q not found", tableName)
	}
	if len(columns) == 0 {
		return nil, dberr.Newf(dberr.KindSchema, "index %q must name at least one column", indexName)
	}
	for _, col := range columns {
		if _, ok := td.Schema.ColumnIndex(col); !ok {
			return nil, dberr.Newf(dberr.KindSchema, "column %q not found on table %q", col, tableName)
		}
	}
	for _, idx := range td.Indexes {
		if idx.Name == indexName {
			return nil, dberr.Newf(dberr.KindSchema, "index %q already exists", indexName)
		}
	}
	if td.NextIndexID == 0 {
		td.NextIndexID = 1
	}
	td.Indexes = append(td.Indexes, IndexDef{
		ID:      td.NextIndexID,
		Name:    indexName,
		Columns: append([]string(nil), columns...),
		Unique:  unique,
	})
	td.NextIndexID++
	return td, nil
}

// SetTableStats records rowCount as table's current row-count
// statistic, overwriting any previous value.
func (c *Catalog) SetTableStats(name string, rowCount int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	td, ok := c.tables[name]
	if !ok {
		return dberr.Newf(dberr.KindSchema, "table %q not found", name)
	}
	td.Stats = &TableStats{RowCount: rowCount}
	return nil
}

// Save writes the catalog to path as a single JSON document, rewritten
// atomically via a temp-file-plus-rename in the same directory so a
// crash mid-write never leaves a torn catalog file behind.
func (c *Catalog) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cf := catalogFile{NextTableID: c.nextTableID}
	for _, td := range c.tables {
		cf.Tables = append(cf.Tables, td)
	}
	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return dberr.Wrap(dberr.KindIO, err, "marshal catalog")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.tmp")
	if err != nil {
		return dberr.Wrapf(dberr.KindIO, err, "create temp catalog file in %s", dir)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return dberr.Wrapf(dberr.KindIO, err, "write temp catalog file %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return dberr.Wrapf(dberr.KindIO, err, "sync temp catalog file %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return dberr.Wrapf(dberr.KindIO, err, "close temp catalog file %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return dberr.Wrapf(dberr.KindIO, err, "rename temp catalog file to %s", path)
	}
	return nil
}

// Load reads a catalog previously written by Save. A missing file
// yields an empty catalog rather than an error, matching a first-run
// startup.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, dberr.Wrapf(dberr.KindIO, err, "read catalog file %s", path)
	}
	var cf catalogFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, dberr.Wrap(dberr.KindSchema, err, "parse catalog file")
	}
	c := &Catalog{tables: make(map[string]*TableDef), nextTableID: cf.NextTableID}
	if c.nextTableID == 0 {
		c.nextTableID = 1
	}
	for _, td := range cf.Tables {
		c.tables[td.Name] = td
	}
	return c, nil
}

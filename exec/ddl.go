package exec

import (
	"strings"

	"github.com/chocapikk/arcdb/catalog"
	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/plan"
	"github.com/chocapikk/arcdb/table"
)

// dataType maps a parsed column type name to a catalog.DataType,
// accepting both this engine's native names and common SQL aliases.
func dataType(name string) (catalog.DataType, error) {
	switch strings.ToUpper(name) {
	case "INT32", "INT", "INTEGER":
		return catalog.TypeInt32, nil
	case "INT64", "BIGINT", "LONG":
		return catalog.TypeInt64, nil
	case "FLOAT64", "FLOAT", "DOUBLE", "REAL", "NUMERIC", "DECIMAL":
		return catalog.TypeFloat64, nil
	case "BOOL", "BOOLEAN":
		return catalog.TypeBool, nil
	case "STRING", "TEXT", "VARCHAR", "CHAR":
		return catalog.TypeString, nil
	case "DATE":
		return catalog.TypeDate, nil
	case "TIMESTAMP", "DATETIME":
		return catalog.TypeTimestamp, nil
	case "BYTES", "BLOB", "BYTEA":
		return catalog.TypeBytes, nil
	default:
		return "", dberr.Newf(dberr.KindSchema, "unknown data type %q", name)
	}
}

func (e *Engine) executeCreateTable(n *plan.CreateTable) (*Result, error) {
	if _, ok := e.Catalog.GetTable(n.TableName); ok {
		if n.IfNotExists {
			return &Result{Message: "CREATE TABLE"}, nil
		}
		return nil, dberr.Newf(dberr.KindSchema, "table %q already exists", n.TableName)
	}

	cols := make([]catalog.ColumnDef, len(n.Columns))
	for i, c := range n.Columns {
		dt, err := dataType(c.DataType)
		if err != nil {
			return nil, err
		}
		cols[i] = catalog.ColumnDef{
			Name:       c.Name,
			Type:       dt,
			NotNull:    c.NotNull,
			PrimaryKey: c.PrimaryKey,
			Unique:     c.Unique,
		}
	}

	td, err := e.Catalog.CreateTable(n.TableName, catalog.Schema{Columns: cols})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.tables[n.TableName] = table.New(td, e.BPM)
	e.mu.Unlock()

	return &Result{Message: "CREATE TABLE"}, nil
}

func (e *Engine) executeDropTable(n *plan.DropTable) (*Result, error) {
	if _, ok := e.Catalog.GetTable(n.TableName); !ok {
		if n.IfExists {
			return &Result{Message: "DROP TABLE"}, nil
		}
		return nil, dberr.Newf(dberr.KindSchema, "table %q not found", n.TableName)
	}
	if err := e.Catalog.DropTable(n.TableName); err != nil {
		return nil, err
	}
	e.mu.Lock()
	delete(e.tables, n.TableName)
	e.mu.Unlock()
	return &Result{Message: "DROP TABLE"}, nil
}

func (e *Engine) executeCreateIndex(n *plan.CreateIndex) (*Result, error) {
	tb, err := e.ensureTableLoaded(n.TableName)
	if err != nil {
		return nil, err
	}
	if _, ok := tb.Def.IndexByName(n.IndexName); ok {
		if n.IfNotExists {
			return &Result{Message: "CREATE INDEX"}, nil
		}
		return nil, dberr.Newf(dberr.KindSchema, "index %q already exists", n.IndexName)
	}
	// tb.CreateIndex registers the IndexDef on tb.Def, which is the same
	// *catalog.TableDef the catalog holds, so no separate catalog call
	// is needed to persist the definition.
	if err := tb.CreateIndex(n.IndexName, n.Columns, n.Unique); err != nil {
		return nil, err
	}
	return &Result{Message: "CREATE INDEX"}, nil
}

// executeAnalyze scans table and writes a fresh row-count statistic
// into its TableDef.
func (e *Engine) executeAnalyze(n *plan.Analyze) (*Result, error) {
	tb, err := e.ensureTableLoaded(n.Table)
	if err != nil {
		return nil, err
	}
	count := int64(len(tb.Scan()))
	if err := e.Catalog.SetTableStats(n.Table, count); err != nil {
		return nil, err
	}
	return &Result{Message: "ANALYZE", AffectedRows: int(count)}, nil
}

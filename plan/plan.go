// Package plan translates a parsed sqlfe.Statement into a LogicalPlan
// tree and applies a small set of heuristic rewrites (index-scan
// substitution for Filter-over-Scan predicates, equi-join lifting to
// hash join).
package plan

import (
	"github.com/chocapikk/arcdb/catalog"
	"github.com/chocapikk/arcdb/sqlfe"
)

// Node is any logical plan node.
type Node interface{ planNode() }

// Scan reads every live row of a table.
type Scan struct {
	Table string
	Alias string
}

func (*Scan) planNode() {}

// IndexScan reads rows of Table via the index on Column, either an
// exact-match lookup (Eq true) or a range bounded by Lo/Hi (nil = open).
type IndexScan struct {
	Table   string
	Alias   string
	Column  string
	Eq      bool
	EqValue sqlfe.Expr
	Lo, Hi  sqlfe.Expr // nil if unbounded on that side
	LoIncl  bool
	HiIncl  bool
}

func (*IndexScan) planNode() {}

// Filter keeps only rows of Input satisfying Predicate.
type Filter struct {
	Input     Node
	Predicate sqlfe.Expr
}

func (*Filter) planNode() {}

// Project evaluates Items against each row of Input.
type Project struct {
	Input Node
	Items []sqlfe.SelectItem
}

func (*Project) planNode() {}

// Join is a nested-loop join (Inner and Cross are executed; other
// types parse but are rejected at plan time — see Planner.planSelect).
type Join struct {
	Left, Right Node
	Type        sqlfe.JoinType
	Condition   sqlfe.Expr
}

func (*Join) planNode() {}

// HashJoin is an equi-join lifted from Join by the optimizer: Build is
// always the left side (no size check), hashed on BuildKey; Probe is read row by row
// and hashed on ProbeKey.
type HashJoin struct {
	Build, Probe       Node
	BuildKey, ProbeKey sqlfe.Expr
}

func (*HashJoin) planNode() {}

// Sort orders Input rows by Keys, each with an ascending flag.
type Sort struct {
	Input Node
	Keys  []sqlfe.OrderByItem
}

func (*Sort) planNode() {}

// Limit applies an optional offset then caps row count.
type Limit struct {
	Input  Node
	Limit  sqlfe.Expr // nil means unbounded
	Offset sqlfe.Expr // nil means 0
}

func (*Limit) planNode() {}

// Aggregate groups Input by GroupBy and evaluates Items (a mix of
// plain columns and aggregate FunctionCalls) per group.
type Aggregate struct {
	Input   Node
	GroupBy []sqlfe.Expr
	Items   []sqlfe.SelectItem
}

func (*Aggregate) planNode() {}

// Insert appends Rows to Table.
type Insert struct {
	Table   string
	Columns []string
	Rows    [][]sqlfe.Expr
}

func (*Insert) planNode() {}

// Update sets Assignments on every row of Table matching Where.
type Update struct {
	Table       string
	Assignments []sqlfe.Assignment
	Where       sqlfe.Expr
}

func (*Update) planNode() {}

// Delete removes every row of Table matching Where.
type Delete struct {
	Table string
	Where sqlfe.Expr
}

func (*Delete) planNode() {}

// CreateTable creates a new table.
type CreateTable struct {
	TableName   string
	Columns     []sqlfe.ColumnDef
	IfNotExists bool
}

func (*CreateTable) planNode() {}

// DropTable drops a table.
type DropTable struct {
	TableName string
	IfExists  bool
}

func (*DropTable) planNode() {}

// CreateIndex builds a new secondary index.
type CreateIndex struct {
	IndexName   string
	TableName   string
	Columns     []string
	Unique      bool
	IfNotExists bool
}

func (*CreateIndex) planNode() {}

// Analyze recomputes and stores a row-count statistic for Table.
type Analyze struct {
	Table string
}

func (*Analyze) planNode() {}

// BeginTransaction starts a transaction.
type BeginTransaction struct{}

func (*BeginTransaction) planNode() {}

// Commit commits the current transaction.
type Commit struct{}

func (*Commit) planNode() {}

// Rollback rolls back the current transaction.
type Rollback struct{}

func (*Rollback) planNode() {}

// Planner turns a parsed statement into a naive logical plan without
// consulting the catalog; deciding whether a WHERE predicate can be
// served by an index is the Optimizer's job (see tryIndexScan in
// optimizer.go).
type Planner struct {
	Catalog *catalog.Catalog
}

// NewPlanner returns a planner bound to cat.
func NewPlanner(cat *catalog.Catalog) *Planner {
	return &Planner{Catalog: cat}
}

// Plan builds a logical plan for stmt.
func (p *Planner) Plan(stmt sqlfe.Statement) (Node, error) {
	switch s := stmt.(type) {
	case *sqlfe.SelectStatement:
		return p.planSelect(s)
	case *sqlfe.InsertStatement:
		return &Insert{Table: s.Table, Columns: s.Columns, Rows: s.Values}, nil
	case *sqlfe.UpdateStatement:
		return &Update{Table: s.Table, Assignments: s.Assignments, Where: s.Where}, nil
	case *sqlfe.DeleteStatement:
		return &Delete{Table: s.Table, Where: s.Where}, nil
	case *sqlfe.CreateTableStatement:
		return &CreateTable{TableName: s.TableName, Columns: s.Columns, IfNotExists: s.IfNotExists}, nil
	case *sqlfe.DropTableStatement:
		return &DropTable{TableName: s.TableName, IfExists: s.IfExists}, nil
	case *sqlfe.CreateIndexStatement:
		return &CreateIndex{
			IndexName:   s.IndexName,
			TableName:   s.TableName,
			Columns:     s.Columns,
			Unique:      s.Unique,
			IfNotExists: s.IfNotExists,
		}, nil
	case *sqlfe.AnalyzeStatement:
		return &Analyze{Table: s.Table}, nil
	case *sqlfe.BeginStatement:
		return &BeginTransaction{}, nil
	case *sqlfe.CommitStatement:
		return &Commit{}, nil
	case *sqlfe.RollbackStatement:
		return &Rollback{}, nil
	default:
		return nil, planErrUnsupportedStatement()
	}
}

package plan

import (
	"testing"

	"github.com/chocapikk/arcdb/catalog"
	"github.com/chocapikk/arcdb/sqlfe"
)

func setupCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	if _, err := c.CreateTable("users", catalog.Schema{Columns: []catalog.ColumnDef{
		{Name: "id", Type: catalog.TypeInt64},
		{Name: "name", Type: catalog.TypeString},
	}}); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := c.CreateIndex("users", "idx_id", []string{"id"}, false); err != nil {
		t.Fatalf("create index: %v", err)
	}
	return c
}

func TestPlanSelectBuildsScanProject(t *testing.T) {
	c := setupCatalog(t)
	p := NewPlanner(c)
	stmt, err := sqlfe.Parse("SELECT id, name FROM users")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	node, err := p.Plan(stmt)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	proj, ok := node.(*Project)
	if !ok {
		t.Fatalf("expected *Project root, got %T", node)
	}
	if _, ok := proj.Input.(*Scan); !ok {
		t.Fatalf("expected Scan under Project, got %T", proj.Input)
	}
}

func TestPlanAnalyzeLowersToAnalyzeNode(t *testing.T) {
	c := setupCatalog(t)
	p := NewPlanner(c)
	stmt, err := sqlfe.Parse("ANALYZE users")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	node, err := p.Plan(stmt)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	an, ok := node.(*Analyze)
	if !ok {
		t.Fatalf("expected *Analyze, got %T", node)
	}
	if an.Table != "users" {
		t.Fatalf("expected table %q, got %q", "users", an.Table)
	}
}

func TestOptimizerRewritesEqFilterToIndexScan(t *testing.T) {
	c := setupCatalog(t)
	p := NewPlanner(c)
	stmt, err := sqlfe.Parse("SELECT id FROM users WHERE id = 5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	node, err := p.Plan(stmt)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	opt := NewOptimizer(c)
	optimized := opt.Optimize(node)

	proj, ok := optimized.(*Project)
	if !ok {
		t.Fatalf("expected *Project root, got %T", optimized)
	}
	idx, ok := proj.Input.(*IndexScan)
	if !ok {
		t.Fatalf("expected filter to be rewritten to *IndexScan, got %T", proj.Input)
	}
	if !idx.Eq || idx.Column != "id" {
		t.Fatalf("expected equality index scan on id, got %+v", idx)
	}
}

func TestOptimizerLeavesUnindexedColumnAsFilter(t *testing.T) {
	c := setupCatalog(t)
	p := NewPlanner(c)
	stmt, err := sqlfe.Parse("SELECT id FROM users WHERE name = 'bob'")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	node, err := p.Plan(stmt)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	opt := NewOptimizer(c)
	optimized := opt.Optimize(node)
	proj := optimized.(*Project)
	if _, ok := proj.Input.(*Filter); !ok {
		t.Fatalf("expected predicate on unindexed column to remain a Filter, got %T", proj.Input)
	}
}

func TestOptimizerLiftsEquiJoinToHashJoin(t *testing.T) {
	c := setupCatalog(t)
	if _, err := c.CreateTable("orders", catalog.Schema{Columns: []catalog.ColumnDef{
		{Name: "id", Type: catalog.TypeInt64},
		{Name: "user_id", Type: catalog.TypeInt64},
	}}); err != nil {
		t.Fatalf("create orders: %v", err)
	}
	p := NewPlanner(c)
	stmt, err := sqlfe.Parse("SELECT orders.id FROM orders JOIN users ON orders.user_id = users.id")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	node, err := p.Plan(stmt)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	opt := NewOptimizer(c)
	optimized := opt.Optimize(node)
	proj := optimized.(*Project)
	if _, ok := proj.Input.(*HashJoin); !ok {
		t.Fatalf("expected equi-join to lift to *HashJoin, got %T", proj.Input)
	}
}

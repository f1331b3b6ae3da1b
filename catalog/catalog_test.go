package catalog

import (
	"path/filepath"
	"testing"
)

func sampleSchema() Schema {
	return Schema{Columns: []ColumnDef{
		{Name: "id", Type: TypeInt64, PrimaryKey: true, NotNull: true},
		{Name: "name", Type: TypeString},
	}}
}

func TestCreateTableAssignsIncreasingIDs(t *testing.T) {
	c := New()
	t1, err := c.CreateTable("users", sampleSchema())
	if err != nil {
		t.Fatalf("create users: %v", err)
	}
	t2, err := c.CreateTable("orders", sampleSchema())
	if err != nil {
		t.Fatalf("create orders: %v", err)
	}
	if t1.ID != 1 || t2.ID != 2 {
		t.Fatalf("expected ids 1,2 got %d,%d", t1.ID, t2.ID)
	}
}

func TestCreateTableDuplicateRejected(t *testing.T) {
	c := New()
	if _, err := c.CreateTable("users", sampleSchema()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.CreateTable("users", sampleSchema()); err == nil {
		t.Fatalf("expected duplicate table creation to fail")
	}
}

func TestCreateIndexValidatesColumn(t *testing.T) {
	c := New()
	if _, err := c.CreateTable("users", sampleSchema()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.CreateIndex("users", "idx_name", []string{"name"}, false); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if _, err := c.CreateIndex("users", "idx_bad", []string{"missing"}, false); err == nil {
		t.Fatalf("expected index on unknown column to fail")
	}
}

func TestCreateIndexAssignsIncreasingIDsAndCarriesFlags(t *testing.T) {
	c := New()
	if _, err := c.CreateTable("users", sampleSchema()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.CreateIndex("users", "idx_name", []string{"name"}, true); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if _, err := c.CreateIndex("users", "idx_id_name", []string{"id", "name"}, false); err != nil {
		t.Fatalf("create composite index: %v", err)
	}
	td, _ := c.GetTable("users")
	if len(td.Indexes) != 2 {
		t.Fatalf("expected 2 indexes, got %d", len(td.Indexes))
	}
	first, second := td.Indexes[0], td.Indexes[1]
	if first.ID == 0 || second.ID != first.ID+1 {
		t.Fatalf("expected increasing index ids, got %d then %d", first.ID, second.ID)
	}
	if !first.Unique {
		t.Fatalf("expected idx_name to carry its own unique flag")
	}
	if len(second.Columns) != 2 || second.Columns[0] != "id" || second.Columns[1] != "name" {
		t.Fatalf("expected composite index to carry both columns in order, got %+v", second.Columns)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := New()
	if _, err := c.CreateTable("users", sampleSchema()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.CreateIndex("users", "idx_name", []string{"name"}, true); err != nil {
		t.Fatalf("create index: %v", err)
	}

	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := c.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	td, ok := loaded.GetTable("users")
	if !ok {
		t.Fatalf("expected users table after reload")
	}
	if len(td.Indexes) != 1 || td.Indexes[0].Name != "idx_name" || !td.Indexes[0].Unique {
		t.Fatalf("expected index to survive round trip with its unique flag, got %+v", td.Indexes)
	}

	next, err := loaded.CreateTable("orders", sampleSchema())
	if err != nil {
		t.Fatalf("create after reload: %v", err)
	}
	if next.ID != 2 {
		t.Fatalf("expected next table id to continue from 2, got %d", next.ID)
	}
}

func TestLoadMissingFileReturnsEmptyCatalog(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("expected no error for missing catalog file, got %v", err)
	}
	if len(c.ListTables()) != 0 {
		t.Fatalf("expected empty catalog")
	}
}

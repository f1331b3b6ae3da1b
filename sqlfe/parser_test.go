package sqlfe

import "testing"

func TestParseSimpleSelect(t *testing.T) {
	stmt, err := Parse("SELECT id, name FROM users WHERE id = 1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sel, ok := stmt.(*SelectStatement)
	if !ok {
		t.Fatalf("expected *SelectStatement, got %T", stmt)
	}
	if len(sel.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(sel.Columns))
	}
	if sel.From.Table.Name != "users" {
		t.Fatalf("expected table users, got %q", sel.From.Table.Name)
	}
	bop, ok := sel.Where.(*BinaryOp)
	if !ok || bop.Op != OpEq {
		t.Fatalf("expected WHERE id = 1 to parse as Eq BinaryOp, got %#v", sel.Where)
	}
}

func TestParseWildcardAndQualifiedWildcard(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sel := stmt.(*SelectStatement)
	if !sel.Columns[0].Wildcard {
		t.Fatalf("expected wildcard select item")
	}

	stmt2, err := Parse("SELECT u.* FROM users u")
	if err != nil {
		t.Fatalf("parse qualified wildcard: %v", err)
	}
	sel2 := stmt2.(*SelectStatement)
	if sel2.Columns[0].QualifiedWildcard != "u" {
		t.Fatalf("expected qualified wildcard on u, got %+v", sel2.Columns[0])
	}
}

func TestParseQualifiedColumnNotMistakenForWildcard(t *testing.T) {
	stmt, err := Parse("SELECT u.id FROM users u")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sel := stmt.(*SelectStatement)
	col, ok := sel.Columns[0].Expr.(*ColumnRef)
	if !ok || col.Table != "u" || col.Column != "id" {
		t.Fatalf("expected qualified column ref, got %+v", sel.Columns[0])
	}
}

func TestParseJoinWithOnCondition(t *testing.T) {
	stmt, err := Parse("SELECT * FROM orders o JOIN users u ON o.user_id = u.id")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sel := stmt.(*SelectStatement)
	if len(sel.From.Joins) != 1 || sel.From.Joins[0].Type != JoinInner {
		t.Fatalf("expected one inner join, got %+v", sel.From.Joins)
	}
}

func TestParseOrderByLimitOffset(t *testing.T) {
	stmt, err := Parse("SELECT id FROM users ORDER BY id DESC LIMIT 10 OFFSET 5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sel := stmt.(*SelectStatement)
	if len(sel.OrderBy) != 1 || sel.OrderBy[0].Ascending {
		t.Fatalf("expected descending order by, got %+v", sel.OrderBy)
	}
	lit, ok := sel.Limit.(*Literal)
	if !ok || lit.Integer != 10 {
		t.Fatalf("expected limit 10, got %#v", sel.Limit)
	}
}

func TestParseInsertWithColumnList(t *testing.T) {
	stmt, err := Parse("INSERT INTO users (id, name) VALUES (1, 'alice')")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ins := stmt.(*InsertStatement)
	if len(ins.Columns) != 2 || len(ins.Values) != 1 || len(ins.Values[0]) != 2 {
		t.Fatalf("unexpected insert shape: %+v", ins)
	}
}

func TestParseUpdateSetWhere(t *testing.T) {
	stmt, err := Parse("UPDATE users SET name = 'bob' WHERE id = 2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	upd := stmt.(*UpdateStatement)
	if len(upd.Assignments) != 1 || upd.Assignments[0].Column != "name" {
		t.Fatalf("unexpected update shape: %+v", upd)
	}
	if upd.Where == nil {
		t.Fatalf("expected WHERE clause")
	}
}

func TestParseDelete(t *testing.T) {
	stmt, err := Parse("DELETE FROM users WHERE id = 3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	del := stmt.(*DeleteStatement)
	if del.Table != "users" || del.Where == nil {
		t.Fatalf("unexpected delete shape: %+v", del)
	}
}

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE users (id INTEGER PRIMARY KEY, name VARCHAR(255) NOT NULL, email TEXT UNIQUE)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ct := stmt.(*CreateTableStatement)
	if ct.TableName != "users" || len(ct.Columns) != 3 {
		t.Fatalf("unexpected create table shape: %+v", ct)
	}
	if !ct.Columns[0].PrimaryKey || !ct.Columns[1].NotNull || !ct.Columns[2].Unique {
		t.Fatalf("unexpected column constraints: %+v", ct.Columns)
	}
}

func TestParseCreateIndex(t *testing.T) {
	stmt, err := Parse("CREATE INDEX idx_name ON users (name)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ci := stmt.(*CreateIndexStatement)
	if ci.IndexName != "idx_name" || ci.TableName != "users" || len(ci.Columns) != 1 || ci.Columns[0] != "name" {
		t.Fatalf("unexpected create index shape: %+v", ci)
	}
	if ci.Unique || ci.IfNotExists {
		t.Fatalf("expected plain index to have no unique/if-not-exists flags, got %+v", ci)
	}
}

func TestParseCreateUniqueIndexIfNotExistsComposite(t *testing.T) {
	stmt, err := Parse("CREATE UNIQUE INDEX IF NOT EXISTS idx_id_name ON users (id, name)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ci := stmt.(*CreateIndexStatement)
	if !ci.Unique {
		t.Fatalf("expected Unique to be true")
	}
	if !ci.IfNotExists {
		t.Fatalf("expected IfNotExists to be true")
	}
	if len(ci.Columns) != 2 || ci.Columns[0] != "id" || ci.Columns[1] != "name" {
		t.Fatalf("expected composite column list [id name], got %+v", ci.Columns)
	}
}

func TestParseTransactionControl(t *testing.T) {
	for _, sql := range []string{"BEGIN", "BEGIN TRANSACTION", "COMMIT", "ROLLBACK"} {
		if _, err := Parse(sql); err != nil {
			t.Fatalf("parse %q: %v", sql, err)
		}
	}
}

func TestParseAnalyze(t *testing.T) {
	stmt, err := Parse("ANALYZE users")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	an, ok := stmt.(*AnalyzeStatement)
	if !ok {
		t.Fatalf("expected *AnalyzeStatement, got %T", stmt)
	}
	if an.Table != "users" {
		t.Fatalf("expected table %q, got %q", "users", an.Table)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	stmt, err := Parse("SELECT id FROM t WHERE a = 1 AND b = 2 OR c = 3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sel := stmt.(*SelectStatement)
	top, ok := sel.Where.(*BinaryOp)
	if !ok || top.Op != OpOr {
		t.Fatalf("expected top-level OR (lowest precedence), got %#v", sel.Where)
	}
	left, ok := top.Left.(*BinaryOp)
	if !ok || left.Op != OpAnd {
		t.Fatalf("expected left side to be AND, got %#v", top.Left)
	}
}

func TestFunctionCallCountStar(t *testing.T) {
	stmt, err := Parse("SELECT COUNT(*) FROM users")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sel := stmt.(*SelectStatement)
	fn, ok := sel.Columns[0].Expr.(*FunctionCall)
	if !ok || fn.Name != "COUNT" || !fn.Star {
		t.Fatalf("expected COUNT(*) function call, got %#v", sel.Columns[0].Expr)
	}
}

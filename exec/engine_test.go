package exec

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chocapikk/arcdb/catalog"
	"github.com/chocapikk/arcdb/sqlfe"
	"github.com/chocapikk/arcdb/storage/buffer"
	"github.com/chocapikk/arcdb/storage/disk"
	"github.com/chocapikk/arcdb/storage/wal"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	walPath := filepath.Join(dir, "arcdb.wal")

	cat := catalog.New()
	d := disk.New(dir)
	bpm := buffer.New(32, d)
	w := wal.New()
	e := NewEngine(cat, d, bpm, w)
	require.NoError(t, e.Recover(walPath))
	return e, walPath
}

func mustExec(t *testing.T, conn *Connection, sql string) *Result {
	t.Helper()
	stmt, err := sqlfe.Parse(sql)
	require.NoError(t, err, sql)
	res, err := conn.Execute(stmt)
	require.NoError(t, err, sql)
	return res
}

func TestCreateInsertSelectRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	conn := e.NewConnection()

	mustExec(t, conn, "CREATE TABLE users (id INT32 PRIMARY KEY, name STRING, age INT32);")
	mustExec(t, conn, "INSERT INTO users VALUES (1, 'Alice', 30), (2, 'Bob', 25);")

	res := mustExec(t, conn, "SELECT id, name FROM users WHERE age > 26;")
	require.Len(t, res.Rows, 1)
	name, ok := res.Rows[0][1].AsString()
	require.True(t, ok)
	require.Equal(t, "Alice", name)
}

func TestUpdateAndDelete(t *testing.T) {
	e, _ := newTestEngine(t)
	conn := e.NewConnection()

	mustExec(t, conn, "CREATE TABLE items (id INT32 PRIMARY KEY, qty INT32);")
	mustExec(t, conn, "INSERT INTO items VALUES (1, 10), (2, 20);")

	res := mustExec(t, conn, "UPDATE items SET qty = 99 WHERE id = 1;")
	require.Equal(t, 1, res.AffectedRows)

	res = mustExec(t, conn, "SELECT qty FROM items WHERE id = 1;")
	require.Len(t, res.Rows, 1)
	qty, ok := res.Rows[0][0].AsInt64()
	require.True(t, ok)
	require.EqualValues(t, 99, qty)

	res = mustExec(t, conn, "DELETE FROM items WHERE id = 2;")
	require.Equal(t, 1, res.AffectedRows)

	res = mustExec(t, conn, "SELECT id FROM items;")
	require.Len(t, res.Rows, 1)
}

func TestExplicitRollbackUndoesWrites(t *testing.T) {
	e, _ := newTestEngine(t)
	conn := e.NewConnection()

	mustExec(t, conn, "CREATE TABLE accounts (id INT32 PRIMARY KEY, balance INT32);")
	mustExec(t, conn, "INSERT INTO accounts VALUES (1, 100);")

	mustExec(t, conn, "BEGIN;")
	mustExec(t, conn, "UPDATE accounts SET balance = 0 WHERE id = 1;")
	mustExec(t, conn, "ROLLBACK;")

	res := mustExec(t, conn, "SELECT balance FROM accounts WHERE id = 1;")
	require.Len(t, res.Rows, 1)
	balance, ok := res.Rows[0][0].AsInt64()
	require.True(t, ok)
	require.EqualValues(t, 100, balance)
}

func TestAggregateGroupBy(t *testing.T) {
	e, _ := newTestEngine(t)
	conn := e.NewConnection()

	mustExec(t, conn, "CREATE TABLE sales (region STRING, amount INT32);")
	mustExec(t, conn, "INSERT INTO sales VALUES ('east', 10), ('east', 20), ('west', 5);")

	res := mustExec(t, conn, "SELECT region, SUM(amount) FROM sales GROUP BY region;")
	require.Len(t, res.Rows, 2)

	totals := map[string]int64{}
	for _, row := range res.Rows {
		region, _ := row[0].AsString()
		sum, _ := row[1].AsFloat64Widened()
		totals[region] = int64(sum)
	}
	require.Equal(t, int64(30), totals["east"])
	require.Equal(t, int64(5), totals["west"])
}

func TestCreateUniqueCompositeIndexEnforcesDuplicateRejectionAndIfNotExists(t *testing.T) {
	e, _ := newTestEngine(t)
	conn := e.NewConnection()

	mustExec(t, conn, "CREATE TABLE memberships (org_id INT32, user_id INT32);")
	mustExec(t, conn, "CREATE UNIQUE INDEX idx_org_user ON memberships (org_id, user_id);")
	mustExec(t, conn, "INSERT INTO memberships VALUES (1, 100);")

	// Same org, different user: distinct composite key, must succeed.
	mustExec(t, conn, "INSERT INTO memberships VALUES (1, 200);")

	stmt, err := sqlfe.Parse("INSERT INTO memberships VALUES (1, 100);")
	require.NoError(t, err)
	_, err = conn.Execute(stmt)
	require.Error(t, err)

	// Re-creating the same index is a no-op under IF NOT EXISTS.
	mustExec(t, conn, "CREATE UNIQUE INDEX IF NOT EXISTS idx_org_user ON memberships (org_id, user_id);")

	stmt, err = sqlfe.Parse("CREATE UNIQUE INDEX idx_org_user ON memberships (org_id, user_id);")
	require.NoError(t, err)
	_, err = conn.Execute(stmt)
	require.Error(t, err)
}

func TestCrashRecoveryRedoesCommittedWrites(t *testing.T) {
	dir := t.TempDir()
	walPath := filepath.Join(dir, "arcdb.wal")

	cat := catalog.New()
	d := disk.New(dir)
	bpm := buffer.New(32, d)
	w := wal.New()
	e := NewEngine(cat, d, bpm, w)
	require.NoError(t, e.Recover(walPath))

	conn := e.NewConnection()
	mustExec(t, conn, "CREATE TABLE t (id INT32 PRIMARY KEY, v INT32);")
	mustExec(t, conn, "INSERT INTO t VALUES (1, 7);")

	// Simulate a crash: a fresh engine over the same on-disk state and
	// WAL, without the first engine's buffer pool having necessarily
	// flushed anything beyond what Recover/autocommit already forced.
	d2 := disk.New(dir)
	bpm2 := buffer.New(32, d2)
	w2 := wal.New()
	e2 := NewEngine(cat, d2, bpm2, w2)
	require.NoError(t, e2.Recover(walPath))

	conn2 := e2.NewConnection()
	res := mustExec(t, conn2, "SELECT v FROM t WHERE id = 1;")
	require.Len(t, res.Rows, 1)
	v, ok := res.Rows[0][0].AsInt64()
	require.True(t, ok)
	require.EqualValues(t, 7, v)
}

func TestAnalyzeWritesRowCountStatistic(t *testing.T) {
	e, _ := newTestEngine(t)
	conn := e.NewConnection()

	mustExec(t, conn, "CREATE TABLE t (id INT32, v INT32);")
	mustExec(t, conn, "INSERT INTO t VALUES (1, 10);")
	mustExec(t, conn, "INSERT INTO t VALUES (2, 20);")
	mustExec(t, conn, "INSERT INTO t VALUES (3, 30);")

	res := mustExec(t, conn, "ANALYZE t;")
	require.Equal(t, 3, res.AffectedRows)

	td, ok := e.Catalog.GetTable("t")
	require.True(t, ok)
	require.NotNil(t, td.Stats)
	require.EqualValues(t, 3, td.Stats.RowCount)
}

func TestInsertRejectsRowWithWrongArityInsteadOfPanicking(t *testing.T) {
	e, _ := newTestEngine(t)
	conn := e.NewConnection()

	mustExec(t, conn, "CREATE TABLE t (id INT32, v INT32);")

	stmt, err := sqlfe.Parse("INSERT INTO t VALUES (1);")
	require.NoError(t, err)
	_, err = conn.Execute(stmt)
	require.Error(t, err)

	stmt, err = sqlfe.Parse("INSERT INTO t (id) VALUES (1, 2);")
	require.NoError(t, err)
	_, err = conn.Execute(stmt)
	require.Error(t, err)
}

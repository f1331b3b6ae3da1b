package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chocapikk/arcdb/catalog"
	"github.com/chocapikk/arcdb/exec"
	"github.com/chocapikk/arcdb/storage/buffer"
	"github.com/chocapikk/arcdb/storage/disk"
	"github.com/chocapikk/arcdb/storage/value"
	"github.com/chocapikk/arcdb/storage/wal"
)

func newTestServerEngine(t *testing.T) *exec.Engine {
	t.Helper()
	dir := t.TempDir()
	d := disk.New(dir)
	bpm := buffer.New(32, d)
	w := wal.New()
	e := exec.NewEngine(catalog.New(), d, bpm, w)
	require.NoError(t, e.Recover(filepath.Join(dir, "arcdb.wal")))
	return e
}

func TestValuesToJSONNullAndScalar(t *testing.T) {
	row := []value.Value{value.Int32(7), value.Null(), value.String("hi")}
	out := valuesToJSON(row)
	require.Equal(t, []interface{}{"7", nil, "hi"}, out)
}

func TestExecuteParseError(t *testing.T) {
	e := newTestServerEngine(t)
	s := New("127.0.0.1:0", e)
	conn := e.NewConnection()

	resp := s.execute(conn, "NOT SQL AT ALL;;;")
	require.NotEmpty(t, resp.Error)
}

func TestExecuteRoundTrip(t *testing.T) {
	e := newTestServerEngine(t)
	s := New("127.0.0.1:0", e)
	conn := e.NewConnection()

	resp := s.execute(conn, "CREATE TABLE t (id INT32 PRIMARY KEY);")
	require.Empty(t, resp.Error)

	resp = s.execute(conn, "INSERT INTO t VALUES (1);")
	require.Empty(t, resp.Error)
	require.Equal(t, 1, resp.AffectedRows)

	resp = s.execute(conn, "SELECT id FROM t;")
	require.Empty(t, resp.Error)
	require.Equal(t, []string{"id"}, resp.Columns)
	require.Len(t, resp.Rows, 1)
}

func TestServeRoundTripOverTCP(t *testing.T) {
	e := newTestServerEngine(t)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	s := New(addr, e)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	var conn net.Conn
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("CREATE TABLE t (id INT32 PRIMARY KEY);\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)

	var resp wireResponse
	require.NoError(t, json.Unmarshal([]byte(line), &resp))
	require.Empty(t, resp.Error)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}

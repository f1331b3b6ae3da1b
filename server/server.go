// Package server implements arcdb's line-oriented TCP server: one
// accepted connection gets its own exec.Connection (so its own
// transaction state) over the shared exec.Engine, exchanging one line
// of SQL for one line of JSON per request.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/chocapikk/arcdb/exec"
	"github.com/chocapikk/arcdb/internal/dblog"
	"github.com/chocapikk/arcdb/sqlfe"
	"github.com/chocapikk/arcdb/storage/value"
)

// Server listens on Addr and dispatches each accepted connection to
// its own goroutine against a shared engine.
type Server struct {
	Addr   string
	Engine *exec.Engine
}

// New returns a server bound to addr over engine.
func New(addr string, engine *exec.Engine) *Server {
	return &Server{Addr: addr, Engine: engine}
}

// Serve listens on s.Addr and accepts connections until ctx is
// cancelled or the listener errors. The accept loop and every
// connection handler are tracked in one errgroup so a listener error
// or ctx cancellation unwinds every in-flight connection's goroutine.
func (s *Server) Serve(ctx context.Context) error {
	log := dblog.WithComponent("server")

	lis, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	log.Info().Str("addr", s.Addr).Msg("listening")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return lis.Close()
	})
	g.Go(func() error {
		for {
			conn, err := lis.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return nil
				default:
					return err
				}
			}
			g.Go(func() error {
				s.handleConnection(conn)
				return nil
			})
		}
	})
	return g.Wait()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	peer := conn.RemoteAddr().String()
	log := dblog.WithComponent("server")
	log.Info().Str("peer", peer).Msg("client connected")

	c := s.Engine.NewConnection()
	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		line, err := reader.ReadString('\n')
		query := strings.TrimSpace(line)
		if query != "" {
			s.respond(writer, c, query)
		}
		if err != nil {
			log.Info().Str("peer", peer).Msg("client disconnected")
			return
		}
	}
}

// wireResponse is the TCP server's JSON-lines wire format.
type wireResponse struct {
	Columns      []string        `json:"columns,omitempty"`
	Rows         [][]interface{} `json:"rows,omitempty"`
	AffectedRows int             `json:"affected_rows"`
	Message      string          `json:"message,omitempty"`
	Error        string          `json:"error,omitempty"`
}

func (s *Server) respond(w *bufio.Writer, c *exec.Connection, query string) {
	resp := s.execute(c, query)
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(wireResponse{Error: err.Error()})
	}
	w.Write(data)
	w.WriteByte('\n')
	w.Flush()
}

func (s *Server) execute(c *exec.Connection, query string) wireResponse {
	stmt, err := sqlfe.Parse(query)
	if err != nil {
		return wireResponse{Error: "parse error: " + err.Error()}
	}
	res, err := c.Execute(stmt)
	if err != nil {
		return wireResponse{Error: "execution error: " + err.Error()}
	}
	resp := wireResponse{
		Columns:      res.Columns,
		AffectedRows: res.AffectedRows,
		Message:      res.Message,
	}
	for _, row := range res.Rows {
		resp.Rows = append(resp.Rows, valuesToJSON(row))
	}
	return resp
}

func valuesToJSON(row []value.Value) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		if v.IsNull() {
			out[i] = nil
			continue
		}
		out[i] = v.String()
	}
	return out
}

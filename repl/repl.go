// Package repl implements arcdb's interactive read-eval-print loop: a
// persistent prompt over stdin/stdout that accumulates input until a
// statement ends with a semicolon, then parses, plans, and executes it
// against one shared connection.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chocapikk/arcdb/catalog"
	"github.com/chocapikk/arcdb/exec"
	"github.com/chocapikk/arcdb/sqlfe"
)

const banner = `
   _              ____  ____
  / \   _ __ ___ |  _ \| __ )
 / _ \ | '__/ __|| | | |  _ \
/ ___ \| | | (__ | |_| | |_) |
/_/   \_\_|  \___||____/|____/

 A simple relational database engine
 Type '.help' for help, '.quit' to exit
`

const helpText = `
Commands:
  .help              Show this help message
  .quit / .exit       Exit arcdb
  .tables            List all tables
  .schema <table>    Show table schema

SQL Commands:
  CREATE TABLE ...   Create a new table
  DROP TABLE ...     Drop a table
  INSERT INTO ...    Insert rows
  SELECT ...         Query data
  UPDATE ...         Update rows
  DELETE FROM ...    Delete rows

Example:
  CREATE TABLE users (id INT32 PRIMARY KEY, name STRING);
  INSERT INTO users VALUES (1, 'Alice'), (2, 'Bob');
  SELECT * FROM users WHERE id = 1;
`

// REPL drives one interactive session over in/out against engine,
// saving the catalog to catalogPath whenever the session exits.
type REPL struct {
	engine      *exec.Engine
	catalog     *catalog.Catalog
	catalogPath string
	conn        *exec.Connection
	out         io.Writer
}

// New returns a REPL bound to engine, saving its catalog to
// catalogPath on exit.
func New(engine *exec.Engine, cat *catalog.Catalog, catalogPath string, out io.Writer) *REPL {
	return &REPL{engine: engine, catalog: cat, catalogPath: catalogPath, conn: engine.NewConnection(), out: out}
}

// Run reads statements from in until EOF or a .quit/.exit command,
// printing the banner first.
func (r *REPL) Run(in io.Reader) {
	fmt.Fprint(r.out, banner)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var buf strings.Builder
	inMultiline := false

	prompt := func() {
		if inMultiline {
			fmt.Fprint(r.out, "...> ")
		} else {
			fmt.Fprint(r.out, "arcdb> ")
		}
	}

	prompt()
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !inMultiline && strings.HasPrefix(trimmed, ".") {
			if r.handleCommand(trimmed) {
				return
			}
			prompt()
			continue
		}

		if trimmed == "" {
			if inMultiline {
				inMultiline = false
				r.executeSQL(buf.String())
				buf.Reset()
			}
			prompt()
			continue
		}

		buf.WriteString(line)
		buf.WriteByte('\n')

		if strings.HasSuffix(trimmed, ";") {
			inMultiline = false
			r.executeSQL(buf.String())
			buf.Reset()
		} else {
			inMultiline = true
		}
		prompt()
	}

	r.saveCatalog()
	fmt.Fprintln(r.out, "\nGoodbye!")
}

func (r *REPL) handleCommand(cmd string) (quit bool) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false
	}
	switch parts[0] {
	case ".help":
		fmt.Fprint(r.out, helpText)
	case ".quit", ".exit":
		r.saveCatalog()
		fmt.Fprintln(r.out, "Goodbye!")
		return true
	case ".tables":
		tables := r.catalog.ListTables()
		if len(tables) == 0 {
			fmt.Fprintln(r.out, "No tables found.")
			break
		}
		fmt.Fprintln(r.out, "Tables:")
		for _, td := range tables {
			fmt.Fprintf(r.out, "  %s\n", td.Name)
		}
	case ".schema":
		if len(parts) < 2 {
			for _, td := range r.catalog.ListTables() {
				printSchema(r.out, td)
			}
			break
		}
		td, ok := r.catalog.GetTable(parts[1])
		if !ok {
			fmt.Fprintf(r.out, "Error: table %q not found\n", parts[1])
			break
		}
		printSchema(r.out, td)
	default:
		fmt.Fprintf(r.out, "Unknown command: %s\n", parts[0])
		fmt.Fprintln(r.out, "Type '.help' for available commands.")
	}
	return false
}

func printSchema(out io.Writer, td *catalog.TableDef) {
	fmt.Fprintf(out, "%s:\n", td.Name)
	for _, col := range td.Schema.Columns {
		fmt.Fprintf(out, "  %s %s\n", col.Name, col.Type)
	}
}

func (r *REPL) executeSQL(sql string) {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return
	}
	stmt, err := sqlfe.Parse(sql)
	if err != nil {
		fmt.Fprintf(r.out, "Parse error: %v\n", err)
		return
	}
	res, err := r.conn.Execute(stmt)
	if err != nil {
		fmt.Fprintf(r.out, "Execution error: %v\n", err)
		return
	}
	fmt.Fprint(r.out, FormatResult(res))
}

func (r *REPL) saveCatalog() {
	_ = r.catalog.Save(r.catalogPath)
}

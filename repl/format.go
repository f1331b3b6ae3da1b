package repl

import (
	"fmt"
	"strings"

	"github.com/chocapikk/arcdb/exec"
)

// FormatResult renders a Result the way the REPL and one-shot exec
// subcommand print query output: a message line when one is set, a
// boxed ASCII table when there are columns or rows, or an affected-rows
// summary otherwise.
func FormatResult(res *exec.Result) string {
	if res.Message != "" {
		if res.AffectedRows > 0 {
			return fmt.Sprintf("%s\n%d row(s) affected\n", res.Message, res.AffectedRows)
		}
		return res.Message + "\n"
	}
	if len(res.Columns) == 0 && len(res.Rows) == 0 {
		if res.AffectedRows > 0 {
			return fmt.Sprintf("%d row(s) affected\n", res.AffectedRows)
		}
		return "OK\n"
	}
	return formatTable(res)
}

func formatTable(res *exec.Result) string {
	widths := make([]int, len(res.Columns))
	for i, c := range res.Columns {
		widths[i] = len(c)
	}
	for _, row := range res.Rows {
		for i, v := range row {
			if i >= len(widths) {
				continue
			}
			if l := len(v.String()); l > widths[i] {
				widths[i] = l
			}
		}
	}

	var sep strings.Builder
	sep.WriteByte('+')
	for _, w := range widths {
		sep.WriteString(strings.Repeat("-", w+2))
		sep.WriteByte('+')
	}
	sep.WriteByte('\n')

	var out strings.Builder
	out.WriteString(sep.String())
	out.WriteByte('|')
	for i, c := range res.Columns {
		out.WriteString(fmt.Sprintf(" %-*s |", widths[i], c))
	}
	out.WriteByte('\n')
	out.WriteString(sep.String())

	for _, row := range res.Rows {
		out.WriteByte('|')
		for i, v := range row {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			out.WriteString(fmt.Sprintf(" %*s |", w, v.String()))
		}
		out.WriteByte('\n')
	}
	if len(res.Rows) > 0 {
		out.WriteString(sep.String())
	}
	out.WriteString(fmt.Sprintf("%d row(s) returned\n", len(res.Rows)))
	return out.String()
}

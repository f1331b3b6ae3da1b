package exec

import (
	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/sqlfe"
	"github.com/chocapikk/arcdb/storage/value"
)

// row is the execution-time representation of one tuple flowing
// through the plan tree: parallel slices of table alias, column name,
// and value, so joins can simply concatenate two rows.
type row struct {
	aliases []string
	names   []string
	values  []value.Value
}

func (r row) resolve(ref *sqlfe.ColumnRef) (value.Value, error) {
	candidate := -1
	for i, name := range r.names {
		if name != ref.Column {
			continue
		}
		if ref.Table != "" && r.aliases[i] != ref.Table {
			continue
		}
		if candidate != -1 {
			return value.Value{}, dberr.Newf(dberr.KindPlan, "ambiguous column reference %q", ref.Column)
		}
		candidate = i
	}
	if candidate == -1 {
		return value.Value{}, dberr.Newf(dberr.KindPlan, "unknown column %q", ref.Column)
	}
	return r.values[candidate], nil
}

func concatRows(left, right row) row {
	return row{
		aliases: append(append([]string(nil), left.aliases...), right.aliases...),
		names:   append(append([]string(nil), left.names...), right.names...),
		values:  append(append([]value.Value(nil), left.values...), right.values...),
	}
}

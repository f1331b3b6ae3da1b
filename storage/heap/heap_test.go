package heap

import (
	"testing"

	"github.com/chocapikk/arcdb/storage/buffer"
	"github.com/chocapikk/arcdb/storage/disk"
	"github.com/chocapikk/arcdb/storage/tuple"
	"github.com/chocapikk/arcdb/storage/value"
)

func setup(t *testing.T, capacity int) *buffer.Manager {
	t.Helper()
	dir := t.TempDir()
	d := disk.New(dir)
	return buffer.New(capacity, d)
}

func row(s string) tuple.Tuple {
	return tuple.New([]value.Value{value.String(s)})
}

func TestSlotStabilityAfterDelete(t *testing.T) {
	bpm := setup(t, 4)
	f := New(1, bpm)

	a, err := f.Insert(row("A"))
	if err != nil {
		t.Fatalf("insert A: %v", err)
	}
	b, err := f.Insert(row("B"))
	if err != nil {
		t.Fatalf("insert B: %v", err)
	}
	c, err := f.Insert(row("C"))
	if err != nil {
		t.Fatalf("insert C: %v", err)
	}

	if err := f.Delete(b); err != nil {
		t.Fatalf("delete B: %v", err)
	}

	entries := f.Scan()
	if len(entries) != 2 {
		t.Fatalf("expected 2 live rows after delete, got %d", len(entries))
	}
	if entries[0].ID != a || entries[0].T.Values[0].AsString() != "A" {
		t.Fatalf("expected first entry to be A at stable slot, got %+v", entries[0])
	}
	if entries[1].ID != c || entries[1].T.Values[0].AsString() != "C" {
		t.Fatalf("expected second entry to be C at stable slot, got %+v", entries[1])
	}

	d, err := f.Insert(row("D"))
	if err != nil {
		t.Fatalf("insert D: %v", err)
	}
	if d == b {
		t.Fatalf("expected D to receive a fresh slot, not B's old slot")
	}

	entries = f.Scan()
	if len(entries) != 3 {
		t.Fatalf("expected 3 live rows after reinsert, got %d", len(entries))
	}
}

func TestGetMissingSlot(t *testing.T) {
	bpm := setup(t, 4)
	f := New(1, bpm)

	a, err := f.Insert(row("A"))
	if err != nil {
		t.Fatalf("insert A: %v", err)
	}
	if err := f.Delete(a); err != nil {
		t.Fatalf("delete A: %v", err)
	}
	if _, ok := f.Get(a); ok {
		t.Fatalf("expected tombstoned slot to be absent")
	}
}

func TestUpdateAndPageLSN(t *testing.T) {
	bpm := setup(t, 4)
	f := New(1, bpm)

	a, err := f.Insert(row("A"))
	if err != nil {
		t.Fatalf("insert A: %v", err)
	}
	if err := f.Update(a, row("AA")); err != nil {
		t.Fatalf("update A: %v", err)
	}
	got, ok := f.Get(a)
	if !ok || got.Values[0].AsString() != "AA" {
		t.Fatalf("expected updated value AA, got %+v ok=%v", got, ok)
	}

	if err := f.SetPageLSN(a.PageID, 42); err != nil {
		t.Fatalf("set page lsn: %v", err)
	}
	if f.PageLSN(a.PageID) != 42 {
		t.Fatalf("expected page lsn 42, got %d", f.PageLSN(a.PageID))
	}
}

func TestInsertAcrossMultiplePages(t *testing.T) {
	bpm := setup(t, 4)
	f := New(1, bpm)

	big := make([]byte, 300)
	for i := range big {
		big[i] = 'x'
	}
	row := tuple.New([]value.Value{value.Bytes(big)})

	var lastPage uint32
	sawNewPage := false
	for i := 0; i < 30; i++ {
		id, err := f.Insert(row)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if i > 0 && id.PageID != lastPage {
			sawNewPage = true
		}
		lastPage = id.PageID
	}
	if !sawNewPage {
		t.Fatalf("expected inserts to eventually spill onto a new page")
	}
}

package btree

import (
	"testing"

	"github.com/chocapikk/arcdb/storage/heap"
	"github.com/chocapikk/arcdb/storage/value"
)

func k(vs ...value.Value) Key { return Key(vs) }

func TestInsertSearchAcrossSplits(t *testing.T) {
	tree := New()
	for i := 0; i < 50; i++ {
		tree.Insert(k(value.Int32(int32(i))), heap.SlotID{PageID: uint32(i / 10), Slot: uint16(i % 10)})
	}
	for i := 0; i < 50; i++ {
		got := tree.Search(k(value.Int32(int32(i))))
		if len(got) != 1 {
			t.Fatalf("key %d: expected 1 slot, got %d", i, len(got))
		}
		want := heap.SlotID{PageID: uint32(i / 10), Slot: uint16(i % 10)}
		if got[0] != want {
			t.Fatalf("key %d: got %+v want %+v", i, got[0], want)
		}
	}
}

func TestDuplicateKeys(t *testing.T) {
	tree := New()
	key := k(value.String("dup"))
	tree.Insert(key, heap.SlotID{PageID: 0, Slot: 0})
	tree.Insert(key, heap.SlotID{PageID: 0, Slot: 1})
	got := tree.Search(key)
	if len(got) != 2 {
		t.Fatalf("expected 2 slots for duplicate key, got %d", len(got))
	}
}

func TestRangeScanInclusiveBounds(t *testing.T) {
	tree := New()
	for i := 0; i < 20; i++ {
		tree.Insert(k(value.Int32(int32(i))), heap.SlotID{PageID: 0, Slot: uint16(i)})
	}
	lo := k(value.Int32(5))
	hi := k(value.Int32(10))
	entries := tree.RangeScan(lo, hi)
	if len(entries) != 6 {
		t.Fatalf("expected 6 entries in [5,10], got %d", len(entries))
	}
	if !entries[0].Key.Equal(k(value.Int32(5))) || !entries[len(entries)-1].Key.Equal(k(value.Int32(10))) {
		t.Fatalf("range bounds not inclusive: first=%v last=%v", entries[0].Key, entries[len(entries)-1].Key)
	}
}

func TestScanAllAscending(t *testing.T) {
	tree := New()
	order := []int32{30, 10, 20, 5, 25}
	for _, v := range order {
		tree.Insert(k(value.Int32(v)), heap.SlotID{PageID: 0, Slot: uint16(v)})
	}
	entries := tree.ScanAll()
	if len(entries) != len(order) {
		t.Fatalf("expected %d entries, got %d", len(order), len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key.Compare(entries[i].Key) > 0 {
			t.Fatalf("scan not in ascending order at index %d", i)
		}
	}
}

func TestDeleteNoRebalance(t *testing.T) {
	tree := New()
	for i := 0; i < 30; i++ {
		tree.Insert(k(value.Int32(int32(i))), heap.SlotID{PageID: 0, Slot: uint16(i)})
	}
	slot := heap.SlotID{PageID: 0, Slot: 15}
	if !tree.Delete(k(value.Int32(15)), slot) {
		t.Fatalf("expected delete to succeed")
	}
	if got := tree.Search(k(value.Int32(15))); len(got) != 0 {
		t.Fatalf("expected key 15 gone after delete, found %+v", got)
	}
	if got := tree.Search(k(value.Int32(14))); len(got) != 1 {
		t.Fatalf("expected neighboring key 14 untouched")
	}
}

func TestCompositeKeyOrderingAndLengthTiebreak(t *testing.T) {
	tree := New()
	// (1, "b") and (1,) should order with the shorter key first: a
	// composite prefix sorts before any key that extends it.
	short := k(value.Int32(1))
	long := k(value.Int32(1), value.String("b"))
	if short.Compare(long) >= 0 {
		t.Fatalf("expected prefix key to sort before its extension")
	}

	tree.Insert(k(value.Int32(1), value.String("b")), heap.SlotID{PageID: 0, Slot: 0})
	tree.Insert(k(value.Int32(1), value.String("a")), heap.SlotID{PageID: 0, Slot: 1})
	tree.Insert(k(value.Int32(2), value.String("a")), heap.SlotID{PageID: 0, Slot: 2})

	got := tree.Search(k(value.Int32(1), value.String("a")))
	if len(got) != 1 || got[0].Slot != 1 {
		t.Fatalf("expected exactly slot 1 for composite key (1,\"a\"), got %+v", got)
	}

	entries := tree.RangeScan(k(value.Int32(1)), k(value.Int32(1), value.String("z")))
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries in composite range [ (1) , (1,\"z\") ], got %d", len(entries))
	}
}

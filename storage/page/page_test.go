package page

import "testing"

func TestInsertGetDelete(t *testing.T) {
	p := New(0, TypeHeap)

	s1, err := p.Insert([]byte("alpha"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	s2, err := p.Insert([]byte("beta"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	s3, err := p.Insert([]byte("gamma"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := p.Delete(s2); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if p.IsLive(s2) {
		t.Fatalf("expected s2 to be a tombstone")
	}
	if _, ok := p.Get(s2); ok {
		t.Fatalf("expected Get on tombstoned slot to fail")
	}

	v1, ok := p.Get(s1)
	if !ok || string(v1) != "alpha" {
		t.Fatalf("got %q ok=%v", v1, ok)
	}
	v3, ok := p.Get(s3)
	if !ok || string(v3) != "gamma" {
		t.Fatalf("got %q ok=%v", v3, ok)
	}

	if p.TupleCount() != 3 {
		t.Fatalf("tuple count should not decrease on delete, got %d", p.TupleCount())
	}
}

func TestUpdateInPlaceAndGrow(t *testing.T) {
	p := New(0, TypeHeap)
	s, err := p.Insert([]byte("short"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := p.Update(s, []byte("sh")); err != nil {
		t.Fatalf("shrink update failed: %v", err)
	}
	v, _ := p.Get(s)
	if string(v) != "sh" {
		t.Fatalf("got %q", v)
	}

	if err := p.Update(s, []byte("a much longer payload than before")); err != nil {
		t.Fatalf("grow update failed: %v", err)
	}
	v, _ = p.Get(s)
	if string(v) != "a much longer payload than before" {
		t.Fatalf("got %q", v)
	}
}

func TestInsertNoSpace(t *testing.T) {
	p := New(0, TypeHeap)
	big := make([]byte, Size)
	if _, err := p.Insert(big); err == nil {
		t.Fatalf("expected no-space error")
	}
}

func TestSlotsNeverOverlap(t *testing.T) {
	p := New(0, TypeHeap)
	var slots []uint16
	payload := make([]byte, 100)
	for i := 0; i < 30; i++ {
		s, err := p.Insert(payload)
		if err != nil {
			break
		}
		slots = append(slots, s)
	}

	type span struct{ start, end int }
	var spans []span
	for _, s := range slots {
		off, size := p.slotEntry(s)
		if size == 0 {
			continue
		}
		spans = append(spans, span{int(off), int(off) + int(size)})
	}
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].start < spans[j].end && spans[j].start < spans[i].end {
				t.Fatalf("overlapping live ranges: %v %v", spans[i], spans[j])
			}
		}
	}
}

func TestSetLSN(t *testing.T) {
	p := New(0, TypeHeap)
	p.SetLSN(42)
	if p.LSN() != 42 {
		t.Fatalf("got %d", p.LSN())
	}
	if !p.Dirty {
		t.Fatalf("expected SetLSN to mark dirty")
	}
}

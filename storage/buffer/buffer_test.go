package buffer

import (
	"testing"

	"github.com/chocapikk/arcdb/storage/disk"
)

func setup(t *testing.T, capacity int) *Manager {
	t.Helper()
	dir := t.TempDir()
	d := disk.New(dir)
	return New(capacity, d)
}

func TestNewPageAndFetch(t *testing.T) {
	bpm := setup(t, 4)

	id, p, err := bpm.NewPage(1)
	if err != nil {
		t.Fatalf("new page failed: %v", err)
	}
	p.SetLSN(7)
	bpm.Unpin(id, true)

	if err := bpm.Flush(id); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	fetched, err := bpm.Fetch(id)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if fetched.LSN() != 7 {
		t.Fatalf("got lsn %d", fetched.LSN())
	}
	bpm.Unpin(id, false)
}

func TestEvictionWritesDirtyVictim(t *testing.T) {
	bpm := setup(t, 1)

	id1, p1, err := bpm.NewPage(1)
	if err != nil {
		t.Fatalf("new page failed: %v", err)
	}
	p1.SetLSN(99)
	bpm.Unpin(id1, true)

	// Capacity is 1 and the only frame is unpinned, so requesting a
	// second page must evict and flush it.
	id2, _, err := bpm.NewPage(1)
	if err != nil {
		t.Fatalf("new page failed: %v", err)
	}
	bpm.Unpin(id2, false)

	refetched, err := bpm.Fetch(id1)
	if err != nil {
		t.Fatalf("refetch failed: %v", err)
	}
	if refetched.LSN() != 99 {
		t.Fatalf("expected dirty victim to be persisted, got lsn %d", refetched.LSN())
	}
	bpm.Unpin(id1, false)
}

func TestBufferPoolFullWhenAllPinned(t *testing.T) {
	bpm := setup(t, 1)

	_, _, err := bpm.NewPage(1)
	if err != nil {
		t.Fatalf("new page failed: %v", err)
	}
	// frame stays pinned; next NewPage must fail since no free list
	// entry and no unpinned frame exists.
	if _, _, err := bpm.NewPage(1); err == nil {
		t.Fatalf("expected buffer-pool-full error")
	}
}

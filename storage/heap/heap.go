// Package heap implements the append-dominant tuple collection
// addressed by (page, slot): insert tries the most-recently-used page
// before allocating a new one, update/delete/get/scan go through the
// buffer pool.
package heap

import (
	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/storage/buffer"
	"github.com/chocapikk/arcdb/storage/tuple"
)

// SlotID is the row identity used by indexes: a (page_id, slot-number)
// pair, stable for the lifetime of the tuple.
type SlotID struct {
	PageID uint32
	Slot   uint16
}

// File is a heap file bound to one table id over a shared buffer pool.
type File struct {
	tableID uint32
	bpm     *buffer.Manager
	lastPID uint32
	hasLast bool
}

// New creates a heap file with no pages yet; the first Insert will
// allocate page 0.
func New(tableID uint32, bpm *buffer.Manager) *File {
	return &File{tableID: tableID, bpm: bpm}
}

// Open binds to a heap file that already has pageCount pages on disk.
func Open(tableID uint32, bpm *buffer.Manager, pageCount uint64) *File {
	f := &File{tableID: tableID, bpm: bpm}
	if pageCount > 0 {
		f.lastPID = uint32(pageCount - 1)
		f.hasLast = true
	}
	return f
}

func (f *File) gid(pageID uint32) buffer.GlobalPageID {
	return buffer.GlobalPageID{TableID: f.tableID, PageID: pageID}
}

// Insert encodes tuple t and places it on the most-recently-used page,
// falling back to a freshly allocated page when the current one is
// full. Returns the new SlotID.
func (f *File) Insert(t tuple.Tuple) (SlotID, error) {
	payload := tuple.Encode(t)

	if f.hasLast {
		p, err := f.bpm.Fetch(f.gid(f.lastPID))
		if err != nil {
			return SlotID{}, err
		}
		slot, err := p.Insert(payload)
		if err == nil {
			f.bpm.Unpin(f.gid(f.lastPID), true)
			return SlotID{PageID: f.lastPID, Slot: slot}, nil
		}
		f.bpm.Unpin(f.gid(f.lastPID), false)
	}

	gid, p, err := f.bpm.NewPage(f.tableID)
	if err != nil {
		return SlotID{}, err
	}
	slot, err := p.Insert(payload)
	if err != nil {
		f.bpm.Unpin(gid, false)
		return SlotID{}, err
	}
	f.bpm.Unpin(gid, true)
	f.lastPID = gid.PageID
	f.hasLast = true
	return SlotID{PageID: gid.PageID, Slot: slot}, nil
}

// InsertAt places t on pageID specifically, appending at that page's
// current tuple count rather than choosing a page itself. Used by
// recovery to redo an insert into the exact slot its WAL record names:
// replaying records for a page strictly in LSN order reproduces the
// same slot assignment page.Insert would have made originally, since
// the disk image is guaranteed to still be in the pre-insert state.
func (f *File) InsertAt(pageID uint32, t tuple.Tuple) (SlotID, error) {
	p, err := f.bpm.Fetch(f.gid(pageID))
	if err != nil {
		return SlotID{}, err
	}
	slot, err := p.Insert(tuple.Encode(t))
	if err != nil {
		f.bpm.Unpin(f.gid(pageID), false)
		return SlotID{}, err
	}
	f.bpm.Unpin(f.gid(pageID), true)
	if !f.hasLast || pageID >= f.lastPID {
		f.lastPID = pageID
		f.hasLast = true
	}
	return SlotID{PageID: pageID, Slot: slot}, nil
}

// Update overwrites the tuple at id. See page.Update for the
// in-place-or-tail-move semantics; cross-page relocation is not
// attempted and failures surface as KindStorage "no space".
func (f *File) Update(id SlotID, t tuple.Tuple) error {
	p, err := f.bpm.Fetch(f.gid(id.PageID))
	if err != nil {
		return err
	}
	payload := tuple.Encode(t)
	if err := p.Update(id.Slot, payload); err != nil {
		f.bpm.Unpin(f.gid(id.PageID), false)
		return err
	}
	f.bpm.Unpin(f.gid(id.PageID), true)
	return nil
}

// Delete tombstones the slot at id.
func (f *File) Delete(id SlotID) error {
	p, err := f.bpm.Fetch(f.gid(id.PageID))
	if err != nil {
		return err
	}
	if err := p.Delete(id.Slot); err != nil {
		f.bpm.Unpin(f.gid(id.PageID), false)
		return err
	}
	f.bpm.Unpin(f.gid(id.PageID), true)
	return nil
}

// Get returns the decoded tuple at id, or ok=false if the slot is a
// tombstone or out of range.
func (f *File) Get(id SlotID) (tuple.Tuple, bool) {
	p, err := f.bpm.Fetch(f.gid(id.PageID))
	if err != nil {
		return tuple.Tuple{}, false
	}
	defer f.bpm.Unpin(f.gid(id.PageID), false)

	payload, ok := p.Get(id.Slot)
	if !ok {
		return tuple.Tuple{}, false
	}
	t, err := tuple.Decode(payload)
	if err != nil {
		return tuple.Tuple{}, false
	}
	return t, true
}

// Entry pairs a SlotID with its decoded tuple, as produced by Scan.
type Entry struct {
	ID SlotID
	T  tuple.Tuple
}

// Scan iterates every page in id order and emits every live tuple.
func (f *File) Scan() []Entry {
	var out []Entry
	if !f.hasLast {
		return out
	}
	for pid := uint32(0); pid <= f.lastPID; pid++ {
		p, err := f.bpm.Fetch(f.gid(pid))
		if err != nil {
			continue
		}
		for slot := uint16(0); slot < p.TupleCount(); slot++ {
			payload, ok := p.Get(slot)
			if !ok {
				continue
			}
			t, err := tuple.Decode(payload)
			if err != nil {
				continue
			}
			out = append(out, Entry{ID: SlotID{PageID: pid, Slot: slot}, T: t})
		}
		f.bpm.Unpin(f.gid(pid), false)
	}
	return out
}

// PageLSN returns the page-LSN header field for pageID.
func (f *File) PageLSN(pageID uint32) uint64 {
	p, err := f.bpm.Fetch(f.gid(pageID))
	if err != nil {
		return 0
	}
	defer f.bpm.Unpin(f.gid(pageID), false)
	return p.LSN()
}

// SetPageLSN writes the page-LSN header field for pageID.
func (f *File) SetPageLSN(pageID uint32, lsn uint64) error {
	p, err := f.bpm.Fetch(f.gid(pageID))
	if err != nil {
		return err
	}
	p.SetLSN(lsn)
	f.bpm.Unpin(f.gid(pageID), true)
	return nil
}

// Flush writes every resident page of this table through the buffer
// pool's flush path. A heap file shares the pool with every other
// table, so this flushes the whole pool — acceptable for the single
// process deployments this engine targets.
func (f *File) Flush() error {
	if err := f.bpm.FlushAll(); err != nil {
		return dberr.Wrap(dberr.KindIO, err, "flush heap file")
	}
	return nil
}
